// Package validation provides struct validation for stagekit
// configuration using go-playground/validator struct tags.
//
//	type Config struct {
//	    CacheDir       string `validate:"required"`
//	    MaxConcurrency int    `validate:"min=1"`
//	}
//
//	if err := validation.Validate(&cfg); err != nil { ... }
package validation
