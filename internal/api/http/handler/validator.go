package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StructValidator plugs go-playground/validator into fiber's binder, so
// every bound body is validated by its `validate` tags.
type StructValidator struct {
	validate *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &StructValidator{validate: v}
}

func (s *StructValidator) Validate(out any) error {
	return s.validate.Struct(out)
}
