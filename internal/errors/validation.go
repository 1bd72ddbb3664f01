package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/userhub-backend/internal/response"
	"github.com/ikkim/userhub-backend/pkg/util"
)

// StrongPasswordTag enforces util.PasswordStrengthError on a string field.
const StrongPasswordTag = "strong_password"

var registerOnce sync.Once

// RegisterValidators adds the custom rules to gin's validator and makes
// field errors report JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		mustRegisterValidation(v, StrongPasswordTag, func(fl validator.FieldLevel) bool {
			return util.PasswordStrengthError(fl.Field().String()) == ""
		})
	})
}

func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation %q: %v", tag, err))
	}
}

// TranslateBindError converts the error of ShouldBindJSON into field errors.
func TranslateBindError(err error) []response.FieldError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]response.FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, response.FieldError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		return fields
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		field := typeError.Field
		if field == "" {
			field = "body"
		}
		return []response.FieldError{{
			Field:   field,
			Message: fmt.Sprintf("The %s field must be of type %s", field, typeError.Type.String()),
		}}
	}

	return []response.FieldError{{Field: "body", Message: "The request body must be valid JSON"}}
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters", field, param)
		}
		return fmt.Sprintf("The %s field must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters", field, param)
		}
		return fmt.Sprintf("The %s field must not be greater than %s", field, param)
	case "len":
		return fmt.Sprintf("The %s field must be %s characters", field, param)
	case "numeric":
		return fmt.Sprintf("The %s field must be numeric", field)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match", field)
	case "dive", "required_with":
		return fmt.Sprintf("The %s field is invalid", field)
	case StrongPasswordTag:
		value, _ := fe.Value().(string)
		return fmt.Sprintf("The %s field %s", field, util.PasswordStrengthError(value))
	}
	return fmt.Sprintf("The %s field failed %s validation", field, fe.Tag())
}
