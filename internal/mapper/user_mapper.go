package mapper

import (
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:               u.Id,
		Email:            u.Email,
		FullName:         u.FullName,
		PasswordHash:     u.PasswordHash,
		Verified:         u.Verified,
		VerifyEmailToken: u.VerifyEmailToken,
		ResetToken:       u.ResetToken,
		ResetTokenExp:    u.ResetTokenExp,
		Plan:             u.Plan,
		Requests:         u.Requests,
		MaxRequests:      u.MaxRequests,
		ImageRequests:    u.ImageRequests,
		MaxImageRequests: u.MaxImageRequests,
		PaymentId:        u.PaymentId,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:               u.Id,
		Email:            u.Email,
		FullName:         u.FullName,
		PasswordHash:     u.PasswordHash,
		Verified:         u.Verified,
		VerifyEmailToken: u.VerifyEmailToken,
		ResetToken:       u.ResetToken,
		ResetTokenExp:    u.ResetTokenExp,
		Plan:             u.Plan,
		Requests:         u.Requests,
		MaxRequests:      u.MaxRequests,
		ImageRequests:    u.ImageRequests,
		MaxImageRequests: u.MaxImageRequests,
		PaymentId:        u.PaymentId,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}
