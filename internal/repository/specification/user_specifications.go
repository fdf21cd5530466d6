package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByEmail matches the stored email exactly (case-sensitive).
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

// ByVerifyEmailToken filters by the pending verification token.
type ByVerifyEmailToken struct {
	Token string
}

func (s ByVerifyEmailToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("verify_email_token = ?", s.Token)
}

// ByPlan filters by plan slug.
type ByPlan struct {
	Plan string
}

func (s ByPlan) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("plan = ?", s.Plan)
}
