// FILE: internal/service/fakes_test.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/pkg/logger"
	"captionchecker-be/internal/pkg/mailer"
	"captionchecker-be/internal/repository/contract"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory UserRepository. Its guarded operations
// (ConsumeQuota, MarkVerified, ResetPassword) mirror the conditional
// UPDATE semantics of the real implementation under a mutex.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		cp := *u
		r.users[u.Id] = &cp
	}
	return r
}

func (r *fakeUserRepo) get(id uuid.UUID) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (r *fakeUserRepo) matches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		case specification.ByVerifyEmailToken:
			if u.VerifyEmailToken == nil || *u.VerifyEmailToken != s.Token {
				return false
			}
		case specification.ByPlan:
			if u.Plan != s.Plan {
				return false
			}
		}
	}
	return true
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Emails carry a unique index in the real table.
	for _, u := range r.users {
		if u.Id != user.Id && u.Email == user.Email {
			return fmt.Errorf("%w: user already exists", apperr.ErrConflict)
		}
	}
	cp := *user
	r.users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if r.matches(u, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, u := range r.users {
		if r.matches(u, specs) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) SetVerificationToken(ctx context.Context, userId uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userId]; ok {
		u.VerifyEmailToken = &token
	}
	return nil
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, userId uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userId]
	if !ok || u.VerifyEmailToken == nil || *u.VerifyEmailToken != token {
		return apperr.ErrUnauthenticated
	}
	u.Verified = true
	u.VerifyEmailToken = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, userId uuid.UUID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userId]; ok {
		u.ResetToken = &token
		u.ResetTokenExp = &expiresAt
	}
	return nil
}

func (r *fakeUserRepo) ResetPassword(ctx context.Context, userId uuid.UUID, token, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userId]
	if !ok || u.ResetToken == nil || *u.ResetToken != token || u.ResetTokenExp == nil || !u.ResetTokenExp.After(time.Now()) {
		return apperr.ErrUnauthenticated
	}
	u.PasswordHash = &passwordHash
	u.ResetToken = nil
	u.ResetTokenExp = nil
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userId uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userId]; ok {
		u.PasswordHash = &passwordHash
	}
	return nil
}

func (r *fakeUserRepo) ConsumeQuota(ctx context.Context, userId uuid.UUID, action entity.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userId]
	if !ok {
		return apperr.ErrNotFound
	}
	if !u.Verified && u.Requests+u.ImageRequests >= entity.UnverifiedActionCap {
		return apperr.ErrQuotaExceeded
	}
	if action == entity.ActionImage {
		if u.ImageRequests >= u.MaxImageRequests {
			return apperr.ErrQuotaExceeded
		}
		u.ImageRequests++
		return nil
	}
	if u.Requests >= u.MaxRequests {
		return apperr.ErrQuotaExceeded
	}
	u.Requests++
	return nil
}

func (r *fakeUserRepo) ApplyPlan(ctx context.Context, userId uuid.UUID, plan, paymentId string, maxRequests, maxImageRequests int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userId]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Plan = plan
	u.PaymentId = &paymentId
	u.Requests = 0
	u.ImageRequests = 0
	u.MaxRequests = maxRequests
	u.MaxImageRequests = maxImageRequests
	return nil
}

type fakeUnitOfWork struct {
	repo contract.UserRepository
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error         { return nil }
func (u *fakeUnitOfWork) Commit() error                           { return nil }
func (u *fakeUnitOfWork) Rollback() error                         { return nil }
func (u *fakeUnitOfWork) UserRepository() contract.UserRepository { return u.repo }

type fakeFactory struct {
	repo contract.UserRepository
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

func newFakeFactory(repo contract.UserRepository) unitofwork.RepositoryFactory {
	return &fakeFactory{repo: repo}
}

// fakeEmailService records outgoing mail instead of dialing SMTP.
type fakeEmailService struct {
	mu         sync.Mutex
	verifyMail []string
	resetMail  []string
}

var _ mailer.IEmailService = (*fakeEmailService)(nil)

func (f *fakeEmailService) SendVerificationLink(toEmail, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyMail = append(f.verifyMail, toEmail)
	return nil
}

func (f *fakeEmailService) SendResetLink(toEmail, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetMail = append(f.resetMail, toEmail)
	return nil
}

// nopLogger keeps test output clean.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

var _ logger.ILogger = nopLogger{}
