package contract

import (
	"context"
	"time"

	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Verification lifecycle
	SetVerificationToken(ctx context.Context, userId uuid.UUID, token string) error
	// MarkVerified flips the verified flag and clears the stored token in a
	// single conditional update; a consumed token cannot be replayed.
	MarkVerified(ctx context.Context, userId uuid.UUID, token string) error

	// Password reset lifecycle
	SetResetToken(ctx context.Context, userId uuid.UUID, token string, expiresAt time.Time) error
	// ResetPassword updates the hash and clears the reset token atomically,
	// guarded on the token still matching. A second use finds no row.
	ResetPassword(ctx context.Context, userId uuid.UUID, token, passwordHash string) error
	UpdatePassword(ctx context.Context, userId uuid.UUID, passwordHash string) error

	// ConsumeQuota is the atomic increment-if-below-ceiling primitive for a
	// billable action. It must never push a counter past its ceiling, and
	// must enforce the unverified single-action cap, under any concurrency.
	ConsumeQuota(ctx context.Context, userId uuid.UUID, action entity.Action) error

	// ApplyPlan sets the plan and ceilings, stores the payment reference and
	// resets both usage counters to zero.
	ApplyPlan(ctx context.Context, userId uuid.UUID, plan, paymentId string, maxRequests, maxImageRequests int) error
}
