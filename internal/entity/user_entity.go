// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionText  Action = "text-analysis"
	ActionImage Action = "image-analysis"
)

// UnverifiedActionCap limits an unverified account to a single analysis
// (text or image) until the email is confirmed.
const UnverifiedActionCap = 1

type User struct {
	Id           uuid.UUID
	Email        string
	FullName     string
	PasswordHash *string // nil for OAuth-only accounts

	Verified         bool
	VerifyEmailToken *string
	ResetToken       *string
	ResetTokenExp    *time.Time

	Plan             string
	Requests         int
	MaxRequests      int
	ImageRequests    int
	MaxImageRequests int
	PaymentId        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counter returns the (used, ceiling) pair for an action type.
func (u *User) Counter(action Action) (int, int) {
	if action == ActionImage {
		return u.ImageRequests, u.MaxImageRequests
	}
	return u.Requests, u.MaxRequests
}

// TotalActions is the combined usage across both action types, used for
// the unverified cap.
func (u *User) TotalActions() int {
	return u.Requests + u.ImageRequests
}
