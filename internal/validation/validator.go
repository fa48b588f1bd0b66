// Package validation adapts go-playground/validator to echo's Validator
// interface. Field names in messages use the json tag.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with required-struct checks enabled.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks i against its `validate` struct tags.
func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

// Reason turns a validation error into a short client facing reason such as
// "email_required" or "email_invalid". Other errors yield "invalid_body".
func Reason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid_body"
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fe.Field() + "_required"
	}
	return fe.Field() + "_invalid"
}
