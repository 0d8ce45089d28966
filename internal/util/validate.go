package util

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NewValidator returns a validator with the project's custom rules
// registered: "slug" and "uuid_str".
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
	_ = v.RegisterValidation("uuid_str", func(fl validator.FieldLevel) bool {
		return IsUUID(fl.Field().String())
	})
	return v
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
