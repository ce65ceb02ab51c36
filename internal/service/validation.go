package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// newValidator reports field errors by their JSON names so callers can highlight the input.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validationError converts the first validator failure into a field-scoped ValidationError.
// Fields are checked in struct declaration order, so the first failure is the primary cause.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	first := fieldErrs[0]
	field := first.Field()
	switch first.Tag() {
	case "required":
		return appErrors.Validation(field, "")
	case "oneof":
		return appErrors.Validation(field, field+" must be one of "+first.Param())
	case "min", "max":
		return appErrors.Validation(field, field+" is out of range")
	default:
		return appErrors.Validation(field, field+" is invalid")
	}
}
