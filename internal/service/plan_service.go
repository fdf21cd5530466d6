// FILE: internal/service/plan_service.go
// Service for plan listing and usage status.
package service

import (
	"context"
	"fmt"
	"sort"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IPlanService interface {
	GetPlans(ctx context.Context) []*dto.PlanResponse
	GetUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error)
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
	planTable  entity.PlanTable
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory, planTable entity.PlanTable) IPlanService {
	return &planService{
		uowFactory: uowFactory,
		planTable:  planTable,
	}
}

func (s *planService) GetPlans(ctx context.Context) []*dto.PlanResponse {
	res := make([]*dto.PlanResponse, 0, len(s.planTable))
	for _, p := range s.planTable {
		res = append(res, &dto.PlanResponse{
			Slug:             p.Slug,
			Name:             p.Name,
			Price:            p.Price,
			MaxRequests:      p.MaxRequests,
			MaxImageRequests: p.MaxImageRequests,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Price < res[j].Price })
	return res
}

func (s *planService) GetUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	u := toUserDTO(user)
	return &u, nil
}
