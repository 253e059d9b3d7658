package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// oneOf accepts a space separated list, so enumeration values like the server
// types and billing codes can be spelled out in the binding tag.
func oneOf(fl validator.FieldLevel) bool {
	matches := strings.Split(fl.Param(), " ")
	value := fl.Field().String()
	for _, match := range matches {
		if match == value {
			return true
		}
	}
	return false
}

// RegisterValidation hooks the custom validators into gin's binding engine.
// Call once at startup, before any request is bound.
func RegisterValidation() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation("oneOf", oneOf)
	}
	return fmt.Errorf("error getting validation engine")
}
