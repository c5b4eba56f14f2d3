package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/academia/internal/pkg/apperrors"
)

// Normalizer is implemented by records that canonicalize their own input
// (trimming, stripping separators) before rules run. Normalize must be idempotent.
type Normalizer interface {
	Normalize()
}

// Validator checks records against the rules declared in their `validate` tags.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock replaces time.Now for the notfuture rule.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator with the custom rules registered.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	// Report fields by their JSON names
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs
	_ = v.validate.RegisterValidation("dni", validateDNI)
	_ = v.validate.RegisterValidation("phone", validatePhone)
	_ = v.validate.RegisterValidation("notfuture", notFuture(func() time.Time { return v.now() }))
	_ = v.validate.RegisterValidation("decimals", validateDecimals)

	return v
}

// Full normalizes s and checks every rule. s must be a pointer to a struct.
func (v *Validator) Full(s any) error {
	return v.run(s, nil)
}

// Partial normalizes s and checks only the fields whose JSON names are listed in present.
func (v *Validator) Partial(s any, present []string) error {
	set := make(map[string]struct{}, len(present))
	for _, p := range present {
		set[p] = struct{}{}
	}
	return v.run(s, set)
}

func (v *Validator) run(s any, only map[string]struct{}) error {
	if n, ok := s.(Normalizer); ok {
		n.Normalize()
	}

	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &apperrors.ValidationError{}
	for _, fe := range verrs {
		if only != nil {
			if _, ok := only[fe.Field()]; !ok {
				continue
			}
		}
		out.Fields = append(out.Fields, apperrors.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: formatFieldError(fe),
		})
	}
	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "notfuture":
		return fmt.Sprintf("%s cannot be in the future", field)
	case "dni":
		return fmt.Sprintf("%s must contain between 7 and 10 digits", field)
	case "phone":
		return fmt.Sprintf("%s must contain only digits, between 7 and 15 of them", field)
	case "decimals":
		return fmt.Sprintf("%s must have at most %s decimal places", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}
