package service

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

// useJSONNames makes validation errors report the client facing field names.
func useJSONNames(validate *validator.Validate) {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// firstViolation reduces validator output to one readable message.
func firstViolation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	fe := fieldErrs[0]
	field := fe.Field()
	collection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "min":
		if collection {
			message = fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		} else {
			message = fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
	case "max":
		if collection {
			message = fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		} else {
			message = fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
		}
	case "oneof":
		message = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		message = fmt.Sprintf("%s must be a valid URL", field)
	default:
		message = fmt.Sprintf("%s is invalid", field)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// textSanitizer strips every HTML element and trims the result.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func (s *textSanitizer) cleanAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, s.clean(v))
	}
	return out
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
