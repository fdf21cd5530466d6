// FILE: internal/dto/user_dto.go
package dto

import (
	"github.com/google/uuid"
)

type UserDTO struct {
	Id               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Verified         bool      `json:"verified"`
	Plan             string    `json:"plan"`
	Requests         int       `json:"requests"`
	MaxRequests      int       `json:"max_requests"`
	ImageRequests    int       `json:"image_requests"`
	MaxImageRequests int       `json:"max_image_requests"`
}
