package models

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a payload struct against its validate tags.
func Validate(payload any) error {
	return validate.Struct(payload)
}
