// FILE: internal/service/user_service.go
package service

import (
	"context"
	"fmt"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	// GetProfile returns the durable user state; the session token's usage
	// snapshot is never used here.
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUserService(uowFactory unitofwork.RepositoryFactory) IUserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
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
