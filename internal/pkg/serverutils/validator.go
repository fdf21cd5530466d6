// FILE: internal/pkg/serverutils/validator.go
package serverutils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"captionchecker-be/internal/apperr"
)

var validate = validator.New()

// ValidateStruct runs the `validate` tags on a request DTO and folds any
// failure into the ValidationError taxonomy bucket.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if ok := errors.As(err, &verrs); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: field %s failed on %s", apperr.ErrValidation, f.Field(), f.Tag())
		}
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}
