package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is implemented by view form structs so cross-field rules can see the
// submitted values.
type Form interface {
	Values() Values
}

// Validator runs struct-tag rules (tag "validate", field names from the
// "form" tag) followed by cross-field rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with the custom "password" rule registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag name, which is a programming error.
	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return CheckPassword(fl.Field().String()).Met()
	}); err != nil {
		panic("form: register password validation: " + err.Error())
	}
	return &Validator{validate: v}
}

// Validate checks f and returns the resulting Result. Errors other than
// field validation failures (for example a non-struct argument) are returned
// as is.
func (v *Validator) Validate(f Form, rules ...Rule) (*Result, error) {
	res := NewResult()

	if err := v.validate.Struct(f); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, err
		}
		for _, fe := range ve {
			res.Add(fe.Field(), flagFor(fe.Tag()))
		}
	}

	values := f.Values()
	for _, rule := range rules {
		rule(values, res)
	}
	return res, nil
}

// flagFor maps validator tags to result flags.
func flagFor(tag string) string {
	switch tag {
	case "required":
		return FlagRequired
	case "email":
		return FlagEmail
	case "min":
		return FlagMinLength
	case "password":
		return FlagPassword
	default:
		return tag
	}
}
