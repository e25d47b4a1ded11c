// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// isinRegex matches the 12-character ISIN layout: two uppercase letters
// followed by ten uppercase alphanumerics.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{10}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("isin", validateISIN)
		_ = v.RegisterValidation("instrument_category", validateInstrumentCategory)
	}
}

// IsValidISIN reports whether s matches the fixed ISIN pattern. Exposed for
// callers outside the binding path (CLI, enrichment runner).
func IsValidISIN(s string) bool {
	return isinRegex.MatchString(s)
}

func validateISIN(fl validator.FieldLevel) bool {
	return isinRegex.MatchString(fl.Field().String())
}

func validateInstrumentCategory(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "fund", "equity":
		return true
	}
	return false
}
