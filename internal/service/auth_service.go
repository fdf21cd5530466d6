// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/pkg/logger"
	"captionchecker-be/internal/pkg/mailer"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"captionchecker-be/pkg/events"
	pktNats "captionchecker-be/pkg/nats"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	ConfirmEmail(ctx context.Context, req *dto.ConfirmEmailRequest) (alreadyVerified bool, err error)
	ResendConfirmEmail(ctx context.Context, req *dto.ResendConfirmEmailRequest) (alreadyVerified bool, err error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	tokenService   ITokenService
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	planTable      entity.PlanTable
	log            logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokenService ITokenService,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	planTable entity.PlanTable,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		tokenService:   tokenService,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		planTable:      planTable,
		log:            log,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user already exists", apperr.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	maxRequests, maxImageRequests := s.planTable.Limits(entity.PlanFree)
	user := &entity.User{
		Id:               uuid.New(),
		Email:            req.Email,
		FullName:         req.FullName,
		PasswordHash:     &hashStr,
		Verified:         false,
		Plan:             entity.PlanFree,
		Requests:         0,
		MaxRequests:      maxRequests,
		ImageRequests:    0,
		MaxImageRequests: maxImageRequests,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	verifyToken, err := s.tokenService.IssueEmailVerify(user.Email)
	if err != nil {
		return nil, err
	}
	if err := uow.UserRepository().SetVerificationToken(ctx, user.Id, verifyToken); err != nil {
		return nil, err
	}

	go func() {
		if emailErr := s.emailService.SendVerificationLink(user.Email, verifyToken); emailErr != nil {
			s.log.Error("auth", "failed to send verification email", map[string]interface{}{
				"email": user.Email,
				"error": emailErr.Error(),
			})
		}
	}()

	s.publish(ctx, "USER_REGISTERED", map[string]interface{}{
		"user_id": user.Id,
		"email":   user.Email,
	})

	return &dto.SignupResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	// OAuth-only accounts carry no password hash.
	if user.PasswordHash == nil {
		return nil, fmt.Errorf("%w: this account uses Google sign-in", apperr.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	signedToken, err := s.tokenService.IssueSession(user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "USER_LOGIN", map[string]interface{}{
		"user_id": user.Id,
		"time":    time.Now().Format(time.RFC822),
	})

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User:        toUserDTO(user),
	}, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, req *dto.ConfirmEmailRequest) (bool, error) {
	email, err := s.tokenService.VerifyEmailVerify(req.Token)
	if err != nil {
		return false, fmt.Errorf("%w: token expired or invalid", apperr.ErrUnauthenticated)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	// A consumed link lands here; tell the caller rather than pretending
	// the verification just happened.
	if user.Verified {
		return true, nil
	}

	// Guarded on the stored token so a consumed link cannot be replayed.
	if err := uow.UserRepository().MarkVerified(ctx, user.Id, req.Token); err != nil {
		return false, fmt.Errorf("%w: token expired or invalid", apperr.ErrUnauthenticated)
	}
	return false, nil
}

func (s *authService) ResendConfirmEmail(ctx context.Context, req *dto.ResendConfirmEmailRequest) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	if user.Verified {
		return true, nil
	}

	verifyToken, err := s.tokenService.IssueEmailVerify(user.Email)
	if err != nil {
		return false, err
	}
	if err := uow.UserRepository().SetVerificationToken(ctx, user.Id, verifyToken); err != nil {
		return false, err
	}

	go func() {
		if emailErr := s.emailService.SendVerificationLink(user.Email, verifyToken); emailErr != nil {
			s.log.Error("auth", "failed to resend verification email", map[string]interface{}{
				"email": user.Email,
				"error": emailErr.Error(),
			})
		}
	}()

	return false, nil
}

func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}

	resetToken, err := s.tokenService.IssuePasswordReset(user.Id, user.Email)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(15 * time.Minute)

	if err := uow.UserRepository().SetResetToken(ctx, user.Id, resetToken, expiresAt); err != nil {
		return err
	}

	go func() {
		if emailErr := s.emailService.SendResetLink(user.Email, resetToken); emailErr != nil {
			s.log.Error("auth", "failed to send reset email", map[string]interface{}{
				"email": user.Email,
				"error": emailErr.Error(),
			})
		}
	}()

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	userId, email, err := s.tokenService.VerifyPasswordReset(req.Token)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthenticated)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil || user.Email != email {
		return fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthenticated)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Guarded on the stored token and expiry; a used token finds no row.
	if err := uow.UserRepository().ResetPassword(ctx, userId, req.Token, string(hash)); err != nil {
		return fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthenticated)
	}
	return nil
}

func (s *authService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("auth", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toUserDTO(user *entity.User) dto.UserDTO {
	return dto.UserDTO{
		Id:               user.Id,
		Email:            user.Email,
		FullName:         user.FullName,
		Verified:         user.Verified,
		Plan:             user.Plan,
		Requests:         user.Requests,
		MaxRequests:      user.MaxRequests,
		ImageRequests:    user.ImageRequests,
		MaxImageRequests: user.MaxImageRequests,
	}
}
