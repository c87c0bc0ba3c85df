// Package validation wraps go-playground/validator so that struct tag
// failures surface as domain validation errors with per-field details.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/boxofficeapp/boxoffice-server/internal/errors"
)

// Validator checks structs against their validate tags.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names, so
// the details map lines up with what the client actually sent.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return &Validator{v: v}
}

// Validate returns nil or a domain validation error listing every
// failed field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
