// Package validate wraps go-playground/validator with field-level errors the
// web layer can render next to form inputs.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is one rejected field.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message renders a short human-readable reason.
func (f FieldError) Message() string {
	switch f.Tag {
	case "required", "required_for_kind":
		return "is required"
	case "max":
		return "must be at most " + f.Param
	case "min":
		return "must be at least " + f.Param
	case "oneof":
		return "must be one of " + f.Param
	case "email":
		return "must be a valid email address"
	case "slug":
		return "may only contain lowercase letters, digits, - and _"
	case "exists":
		return "refers to something that no longer exists"
	case "shares_total":
		return "must add up to 100%, not " + f.Param
	default:
		return "is invalid"
	}
}

// Errors is returned when a struct fails validation.
type Errors []FieldError

// Error implements error.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+" "+fe.Message())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the error for a field name, if any.
func (e Errors) Field(name string) (FieldError, bool) {
	for _, fe := range e {
		if fe.Field == name {
			return fe, true
		}
	}
	return FieldError{}, false
}

// AsErrors reports whether err carries validation field errors.
func AsErrors(err error) (Errors, bool) {
	var out Errors
	if errors.As(err, &out) {
		return out, true
	}
	return nil, false
}

var (
	instance *validator.Validate
	once     sync.Once
	mu       sync.Mutex
)

// Validator returns the shared validator instance. Struct field names are
// reported using their `form` tag when present.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("slug", validateSlug)
		instance = v
	})
	return instance
}

// RegisterStructRules installs a struct-level rule for the given types. It is
// safe to call more than once for the same type.
func RegisterStructRules(fn validator.StructLevelFunc, types ...any) {
	mu.Lock()
	defer mu.Unlock()
	Validator().RegisterStructValidation(fn, types...)
}

// Struct validates v and converts validator failures into Errors.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validate: %w", err)
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}
	out := make(Errors, 0, len(failures))
	for _, failure := range failures {
		out = append(out, FieldError{
			Field: failure.Field(),
			Tag:   failure.Tag(),
			Param: failure.Param(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func validateSlug(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
