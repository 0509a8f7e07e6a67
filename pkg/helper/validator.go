package helper

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate shortcuts
func ValidateStruct(s interface{}) error { return validate.Struct(s) }
