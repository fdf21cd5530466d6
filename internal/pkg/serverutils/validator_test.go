// FILE: internal/pkg/serverutils/validator_test.go
package serverutils

import (
	"testing"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/dto"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct(t *testing.T) {
	err := ValidateStruct(&dto.SignupRequest{
		FullName: "Valid Name",
		Email:    "valid@example.com",
		Password: "longenough",
	})
	assert.NoError(t, err)

	tests := []struct {
		name string
		req  dto.SignupRequest
	}{
		{"missing email", dto.SignupRequest{FullName: "Name", Password: "longenough"}},
		{"bad email", dto.SignupRequest{FullName: "Name", Email: "not-an-email", Password: "longenough"}},
		{"short password", dto.SignupRequest{FullName: "Name", Email: "a@b.co", Password: "short"}},
		{"short name", dto.SignupRequest{FullName: "ab", Email: "a@b.co", Password: "longenough"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}
