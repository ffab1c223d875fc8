// Package validation checks configuration structs with validator/v10 tags and
// reports failures as a single VALIDATION_ERROR AppError listing every field.
//
//	type Config struct {
//	    Workers int `mapstructure:"workers" validate:"min=1"`
//	}
//	err := validation.Validate(cfg)
package validation
