// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/config"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/pkg/logger"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, state, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory   unitofwork.RepositoryFactory
	tokenService ITokenService
	planTable    entity.PlanTable
	googleConf   *oauth2.Config
	// states holds issued anti-CSRF states; a callback with an unknown
	// state is rejected.
	states *cache.Cache
	log    logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokenService ITokenService,
	cfg config.AuthConfig,
	planTable entity.PlanTable,
	log logger.ILogger,
) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory:   uowFactory,
		tokenService: tokenService,
		planTable:    planTable,
		googleConf:   conf,
		states:       cache.New(10*time.Minute, 15*time.Minute),
		log:          log,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.states.SetDefault(state, true)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, state, code string) (*dto.LoginResponse, error) {
	if provider != "google" {
		return nil, errors.New("unsupported provider")
	}

	if _, known := s.states.Get(state); !known {
		return nil, fmt.Errorf("%w: unknown oauth state", apperr.ErrUnauthenticated)
	}
	s.states.Delete(state)

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", apperr.ErrUnauthenticated, err)
	}

	googleUser, err := s.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: googleUser.Email})
	if err != nil {
		return nil, err
	}

	// First federated sight: auto-provision. The provider already confirmed
	// the email, so the account starts verified.
	if user == nil {
		maxRequests, maxImageRequests := s.planTable.Limits(entity.PlanFree)
		user = &entity.User{
			Id:               uuid.New(),
			Email:            googleUser.Email,
			FullName:         googleUser.Name,
			PasswordHash:     nil,
			Verified:         true,
			Plan:             entity.PlanFree,
			MaxRequests:      maxRequests,
			MaxImageRequests: maxImageRequests,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}

		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.Info("oauth", "provisioned user from google login", map[string]interface{}{
			"user_id": user.Id,
		})
	}

	signedToken, err := s.tokenService.IssueSession(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User:        toUserDTO(user),
	}, nil
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *oauthService) fetchUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", googleUserInfoURL+"?access_token="+accessToken, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed getting user info: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed reading response: %v", apperr.ErrUpstream, err)
	}

	var info googleUserInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, fmt.Errorf("%w: failed to parse user info", apperr.ErrUpstream)
	}
	return &info, nil
}
