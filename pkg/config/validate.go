package config

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks cfg against its struct tags (required fields, oneof
// enumerations, numeric ranges), matching the teacher's use of
// go-playground/validator for the same purpose.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}
