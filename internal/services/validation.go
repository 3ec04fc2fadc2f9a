package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures into
// a ValidationError keyed by json field name.
func validateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", fe.Field())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", fe.Field())
	default:
		return fmt.Sprintf("The %s is invalid.", fe.Field())
	}
}
