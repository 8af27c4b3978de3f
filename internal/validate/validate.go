// Package validate checks untrusted catalog write payloads.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// Violation is one failed rule, addressed by the payload field it concerns.
type Violation struct {
	Message string   `json:"message"`
	Path    []string `json:"path"`
	Type    string   `json:"type"`
}

// Error carries every violation found in a payload.
type Error struct {
	Details []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.Message
	}
	return strings.Join(msgs, ". ")
}

// AsError returns the *Error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var ve *Error
	ok := errors.As(err, &ve)
	return ve, ok
}

type moviePayload struct {
	Title       *string `json:"title" validate:"required,min=1,max=255"`
	Type        *string `json:"type" validate:"required,oneof='Movie' 'TV Show'"`
	Director    *string `json:"director" validate:"omitempty,max=255"`
	Budget      *string `json:"budget" validate:"omitempty,max=100"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Duration    *string `json:"duration" validate:"omitempty,max=100"`
	Year        *string `json:"year" validate:"omitempty,max=50"`
	Description *string `json:"description"`
}

// movieFields lists the recognized keys in reporting order.
var movieFields = []string{"title", "type", "director", "budget", "location", "duration", "year", "description"}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Movie validates a write payload and returns its sanitized form.  Every
// field is checked before reporting; keys outside the recognized set are
// dropped.  title and type are required; the optional fields accept an
// empty string or null.
func Movie(input map[string]any) (model.MovieInput, error) {
	var p moviePayload
	refs := map[string]**string{
		"title": &p.Title, "type": &p.Type, "director": &p.Director, "budget": &p.Budget,
		"location": &p.Location, "duration": &p.Duration, "year": &p.Year, "description": &p.Description,
	}

	found := map[string]Violation{}
	for _, name := range movieFields {
		raw, ok := input[name]
		if !ok || raw == nil {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			found[name] = violation(name, "string.base", fmt.Sprintf("%q must be a string", name))
			continue
		}
		*refs[name] = &s
	}

	if err := structValidator.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return model.MovieInput{}, err
		}
		for _, fe := range fieldErrs {
			name := fe.Field()
			if _, seen := found[name]; seen {
				continue
			}
			found[name] = describe(fe, input)
		}
	}

	if len(found) > 0 {
		ve := &Error{}
		for _, name := range movieFields {
			if d, ok := found[name]; ok {
				ve.Details = append(ve.Details, d)
			}
		}
		return model.MovieInput{}, ve
	}

	kind := model.Kind(*p.Type)
	out := model.MovieInput{Title: p.Title, Kind: &kind}
	for name, dst := range map[string]*model.Optional{
		"director": &out.Director, "budget": &out.Budget, "location": &out.Location,
		"duration": &out.Duration, "year": &out.Year, "description": &out.Description,
	} {
		if _, ok := input[name]; ok {
			*dst = model.Optional{Present: true, Value: *refs[name]}
		}
	}
	return out, nil
}

func describe(fe validator.FieldError, input map[string]any) Violation {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		if s, ok := input[name].(string); ok && s == "" {
			return violation(name, "string.empty", fmt.Sprintf("%q is not allowed to be empty", name))
		}
		return violation(name, "any.required", fmt.Sprintf("%q is required", name))
	case "min":
		return violation(name, "string.empty", fmt.Sprintf("%q is not allowed to be empty", name))
	case "max":
		return violation(name, "string.max",
			fmt.Sprintf("%q length must be less than or equal to %s characters long", name, fe.Param()))
	case "oneof":
		return violation(name, "any.only", fmt.Sprintf("%q must be one of [Movie, TV Show]", name))
	}
	return violation(name, fe.Tag(), fmt.Sprintf("%q is invalid", name))
}

func violation(name, typ, msg string) Violation {
	return Violation{Message: msg, Path: []string{name}, Type: typ}
}
