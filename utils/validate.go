package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var basicEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewValidator returns a validator that reports json field names and knows
// the basic_email rule.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return basicEmail.MatchString(fl.Field().String())
	})
	return v
}

// IsBasicEmail reports whether s looks like an email address.
func IsBasicEmail(s string) bool {
	return basicEmail.MatchString(s)
}

// FieldError is the first validation failure in a friendlier shape.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FirstFieldError converts a validator error into a FieldError. ok is false
// when err is not a validation error.
func FirstFieldError(err error) (FieldError, bool) {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return FieldError{}, false
	}
	fe := errs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "gt", "min":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		if fe.Tag() == "gt" {
			msg = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		}
	case "max":
		msg = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "basic_email", "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return FieldError{Field: field, Message: msg}, true
}
