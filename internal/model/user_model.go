package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName     string    `gorm:"type:varchar(255);not null"`
	PasswordHash *string   `gorm:"type:varchar(255)"`

	Verified         bool    `gorm:"default:false"`
	VerifyEmailToken *string `gorm:"type:text"`
	ResetToken       *string `gorm:"type:text"`
	ResetTokenExp    *time.Time

	Plan             string  `gorm:"type:varchar(50);not null;default:'free'"`
	Requests         int     `gorm:"default:0"`
	MaxRequests      int     `gorm:"default:3"`
	ImageRequests    int     `gorm:"default:0"`
	MaxImageRequests int     `gorm:"default:1"`
	PaymentId        *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
