// FILE: internal/service/token_service.go
package service

import (
	"fmt"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenPurpose string

const (
	TokenPurposeSession       TokenPurpose = "session"
	TokenPurposeEmailVerify   TokenPurpose = "email-verify"
	TokenPurposePasswordReset TokenPurpose = "password-reset"
)

// SessionClaims is the decoded session token. Requests is a snapshot taken
// at issuance, kept for display only; entitlement checks always re-read
// the user row.
type SessionClaims struct {
	UserId   uuid.UUID
	Email    string
	FullName string
	Requests int
}

type ITokenService interface {
	IssueSession(user *entity.User) (string, error)
	IssueEmailVerify(email string) (string, error)
	IssuePasswordReset(userId uuid.UUID, email string) (string, error)

	VerifySession(token string) (*SessionClaims, error)
	VerifyEmailVerify(token string) (string, error)
	VerifyPasswordReset(token string) (uuid.UUID, string, error)
}

type tokenService struct {
	secret       []byte
	sessionTTL   time.Duration
	mailTokenTTL time.Duration
}

func NewTokenService(secret string, sessionTTL, mailTokenTTL time.Duration) ITokenService {
	return &tokenService{
		secret:       []byte(secret),
		sessionTTL:   sessionTTL,
		mailTokenTTL: mailTokenTTL,
	}
}

func (s *tokenService) sign(purpose TokenPurpose, ttl time.Duration, claims jwt.MapClaims) (string, error) {
	claims["purpose"] = string(purpose)
	claims["exp"] = time.Now().Add(ttl).Unix()
	claims["iat"] = time.Now().Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parse validates signature, expiry and purpose. Every failure mode
// collapses into ErrUnauthenticated so callers cannot leak which check
// tripped.
func (s *tokenService) parse(tokenStr string, purpose TokenPurpose) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	if p, _ := claims["purpose"].(string); p != string(purpose) {
		return nil, apperr.ErrUnauthenticated
	}
	return claims, nil
}

func (s *tokenService) IssueSession(user *entity.User) (string, error) {
	return s.sign(TokenPurposeSession, s.sessionTTL, jwt.MapClaims{
		"user_id":   user.Id.String(),
		"email":     user.Email,
		"full_name": user.FullName,
		"requests":  user.Requests,
	})
}

func (s *tokenService) IssueEmailVerify(email string) (string, error) {
	return s.sign(TokenPurposeEmailVerify, s.mailTokenTTL, jwt.MapClaims{
		"email": email,
	})
}

func (s *tokenService) IssuePasswordReset(userId uuid.UUID, email string) (string, error) {
	return s.sign(TokenPurposePasswordReset, s.mailTokenTTL, jwt.MapClaims{
		"user_id": userId.String(),
		"email":   email,
	})
}

func (s *tokenService) VerifySession(tokenStr string) (*SessionClaims, error) {
	claims, err := s.parse(tokenStr, TokenPurposeSession)
	if err != nil {
		return nil, err
	}

	idStr, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(idStr)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}

	email, _ := claims["email"].(string)
	fullName, _ := claims["full_name"].(string)
	requests, _ := claims["requests"].(float64)

	return &SessionClaims{
		UserId:   userId,
		Email:    email,
		FullName: fullName,
		Requests: int(requests),
	}, nil
}

func (s *tokenService) VerifyEmailVerify(tokenStr string) (string, error) {
	claims, err := s.parse(tokenStr, TokenPurposeEmailVerify)
	if err != nil {
		return "", err
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", apperr.ErrUnauthenticated
	}
	return email, nil
}

func (s *tokenService) VerifyPasswordReset(tokenStr string) (uuid.UUID, string, error) {
	claims, err := s.parse(tokenStr, TokenPurposePasswordReset)
	if err != nil {
		return uuid.Nil, "", err
	}

	idStr, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", apperr.ErrUnauthenticated
	}
	email, _ := claims["email"].(string)

	return userId, email, nil
}
