// FILE: internal/service/entitlement_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IEntitlementService authorizes and meters billable analysis actions.
// The contract is: Authorize before the paid upstream call, Consume only
// after it succeeded. Authorize is a cheap pre-check; Consume is the
// atomic guard that actually prevents over-consumption.
type IEntitlementService interface {
	Authorize(ctx context.Context, userId uuid.UUID, action entity.Action) error
	Consume(ctx context.Context, userId uuid.UUID, action entity.Action) error
}

type entitlementService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewEntitlementService(uowFactory unitofwork.RepositoryFactory) IEntitlementService {
	return &entitlementService{
		uowFactory: uowFactory,
	}
}

func (s *entitlementService) Authorize(ctx context.Context, userId uuid.UUID, action entity.Action) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user not found", apperr.ErrUnauthenticated)
	}

	if !user.Verified && user.TotalActions() >= entity.UnverifiedActionCap {
		return fmt.Errorf("%w: please verify your email to keep analyzing captions", apperr.ErrQuotaExceeded)
	}

	used, ceiling := user.Counter(action)
	if used >= ceiling {
		return fmt.Errorf("%w: request limit reached, please upgrade your plan from the pricing tab", apperr.ErrQuotaExceeded)
	}

	return nil
}

func (s *entitlementService) Consume(ctx context.Context, userId uuid.UUID, action entity.Action) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().ConsumeQuota(ctx, userId, action); err != nil {
		if errors.Is(err, apperr.ErrQuotaExceeded) {
			return fmt.Errorf("%w: request limit reached, please upgrade your plan from the pricing tab", apperr.ErrQuotaExceeded)
		}
		return err
	}
	return nil
}
