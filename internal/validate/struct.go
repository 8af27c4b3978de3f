package validate

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Struct checks a tagged request struct and reports every failed field as a
// Violation.  Field names come from the json tags.
func Struct(s any) error {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &Error{}
	for _, fe := range fieldErrs {
		ve.Details = append(ve.Details, describeField(fe))
	}
	return ve
}

func describeField(fe validator.FieldError) Violation {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return violation(name, "any.required", fmt.Sprintf("%q is required", name))
	case "email":
		return violation(name, "string.email", fmt.Sprintf("%q must be a valid email", name))
	case "min":
		return violation(name, "string.min",
			fmt.Sprintf("%q length must be at least %s characters long", name, fe.Param()))
	case "max":
		return violation(name, "string.max",
			fmt.Sprintf("%q length must be less than or equal to %s characters long", name, fe.Param()))
	}
	return violation(name, fe.Tag(), fmt.Sprintf("%q is invalid", name))
}
