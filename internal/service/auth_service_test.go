// FILE: internal/service/auth_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T, users ...*entity.User) (IAuthService, *fakeUserRepo, ITokenService) {
	t.Helper()
	repo := newFakeUserRepo(users...)
	tokenSvc := NewTokenService("test-secret", time.Hour, 15*time.Minute)
	svc := NewAuthService(
		newFakeFactory(repo),
		tokenSvc,
		&fakeEmailService{},
		nil,
		entity.DefaultPlanTable(),
		nopLogger{},
	)
	return svc, repo, tokenSvc
}

func hashOf(t *testing.T, password string) *string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s := string(h)
	return &s
}

func TestSignupDefaults(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)

	res, err := svc.Signup(context.Background(), &dto.SignupRequest{
		FullName: "New Creator",
		Email:    "new@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	user := repo.get(res.Id)
	require.NotNil(t, user)
	assert.Equal(t, entity.PlanFree, user.Plan)
	assert.False(t, user.Verified)
	assert.Equal(t, 0, user.Requests)
	assert.Equal(t, 3, user.MaxRequests)
	assert.Equal(t, 1, user.MaxImageRequests)
	assert.NotNil(t, user.VerifyEmailToken)
	require.NotNil(t, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("hunter2hunter2")))
}

func TestSignupDuplicateEmail(t *testing.T) {
	existing := &entity.User{Id: uuid.New(), Email: "dup@example.com"}
	svc, _, _ := newAuthFixture(t, existing)

	_, err := svc.Signup(context.Background(), &dto.SignupRequest{
		FullName: "Someone Else",
		Email:    "dup@example.com",
		Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSignupConcurrentDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	ctx := context.Background()

	// Both requests can pass the existence check before either row lands;
	// the unique index settles it and the loser must still see a conflict.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Signup(ctx, &dto.SignupRequest{
				FullName: "Racing Creator",
				Email:    "race@example.com",
				Password: "hunter2hunter2",
			})
		}(i)
	}
	wg.Wait()

	var created, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperr.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected signup error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, conflicted)

	count, err := repo.Count(ctx, specification.ByEmail{Email: "race@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLogin(t *testing.T) {
	user := &entity.User{
		Id:           uuid.New(),
		Email:        "login@example.com",
		FullName:     "Login User",
		PasswordHash: hashOf(t, "correct-horse"),
		Verified:     true,
		Plan:         entity.PlanFree,
		MaxRequests:  3,
	}
	svc, _, tokenSvc := newAuthFixture(t, user)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "login@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	claims, err := tokenSvc.VerifySession(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Id, claims.UserId)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "login@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLoginOAuthOnlyAccount(t *testing.T) {
	user := &entity.User{Id: uuid.New(), Email: "gg@example.com", PasswordHash: nil, Verified: true}
	svc, _, _ := newAuthFixture(t, user)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "gg@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestConfirmEmailSingleUse(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, &dto.SignupRequest{
		FullName: "Pending User",
		Email:    "pending@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	token := *repo.get(res.Id).VerifyEmailToken

	already, err := svc.ConfirmEmail(ctx, &dto.ConfirmEmailRequest{Token: token})
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, repo.get(res.Id).Verified)

	// A replayed link reports the account as already verified instead of
	// claiming a fresh verification happened.
	already, err = svc.ConfirmEmail(ctx, &dto.ConfirmEmailRequest{Token: token})
	require.NoError(t, err)
	assert.True(t, already)

	_, err = svc.ConfirmEmail(ctx, &dto.ConfirmEmailRequest{Token: "bogus"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestResendConfirmEmail(t *testing.T) {
	unverified := &entity.User{Id: uuid.New(), Email: "u@example.com"}
	verified := &entity.User{Id: uuid.New(), Email: "v@example.com", Verified: true}
	svc, repo, _ := newAuthFixture(t, unverified, verified)
	ctx := context.Background()

	already, err := svc.ResendConfirmEmail(ctx, &dto.ResendConfirmEmailRequest{Email: "u@example.com"})
	require.NoError(t, err)
	assert.False(t, already)
	assert.NotNil(t, repo.get(unverified.Id).VerifyEmailToken)

	already, err = svc.ResendConfirmEmail(ctx, &dto.ResendConfirmEmailRequest{Email: "v@example.com"})
	require.NoError(t, err)
	assert.True(t, already)

	_, err = svc.ResendConfirmEmail(ctx, &dto.ResendConfirmEmailRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResetPasswordSingleUse(t *testing.T) {
	user := &entity.User{
		Id:           uuid.New(),
		Email:        "reset@example.com",
		PasswordHash: hashOf(t, "old-password"),
		Verified:     true,
	}
	svc, repo, _ := newAuthFixture(t, user)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "reset@example.com"}))
	token := *repo.get(user.Id).ResetToken

	require.NoError(t, svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "new-password-1"}))

	updated, err := repo.FindOne(ctx, specification.ByEmail{Email: "reset@example.com"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*updated.PasswordHash), []byte("new-password-1")))
	assert.Nil(t, updated.ResetToken)

	// Second use of the same link must fail.
	err = svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "new-password-2"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	err := svc.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
