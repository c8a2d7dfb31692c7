// Package form holds server-side form validation: a single authoritative
// validation result per submission, struct-tag rules backed by
// go-playground/validator, and cross-field rules such as PasswordsMatch.
package form

import (
	"slices"
	"sort"
)

// Field names shared by the views and the cross-field rules.
const (
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "passwordConfirmation"
)

// Error flags a field can carry.
const (
	FlagRequired            = "required"
	FlagEmail               = "email"
	FlagMinLength           = "minlength"
	FlagPassword            = "password"
	FlagPasswordsDoNotMatch = "passwordsDoNotMatch"
)

// Values is the submitted form value keyed by field name. A missing key means
// the form has no such field, which is different from an empty value.
type Values map[string]string

// Get returns the value of name and whether the field exists.
func (v Values) Get(name string) (string, bool) {
	s, ok := v[name]
	return s, ok
}

// Result is the validation state of one form submission. Views read field
// validity and messages from it; rules mutate it.
type Result struct {
	fields map[string][]string
}

// NewResult returns an empty (valid) result.
func NewResult() *Result {
	return &Result{fields: make(map[string][]string)}
}

// Add sets flag on field. Adding a flag twice is a no-op.
func (r *Result) Add(field, flag string) {
	if r.fields == nil {
		r.fields = make(map[string][]string)
	}
	if slices.Contains(r.fields[field], flag) {
		return
	}
	r.fields[field] = append(r.fields[field], flag)
}

// Remove clears flag from field, keeping every other flag. A field left with
// no flags is dropped entirely.
func (r *Result) Remove(field, flag string) {
	flags, ok := r.fields[field]
	if !ok {
		return
	}
	flags = slices.DeleteFunc(slices.Clone(flags), func(f string) bool { return f == flag })
	if len(flags) == 0 {
		delete(r.fields, field)
		return
	}
	r.fields[field] = flags
}

// Has reports whether field carries flag.
func (r *Result) Has(field, flag string) bool {
	return slices.Contains(r.fields[field], flag)
}

// Flags returns a copy of the flags on field in the order they were added,
// or nil when the field is valid.
func (r *Result) Flags(field string) []string {
	return slices.Clone(r.fields[field])
}

// Invalid reports whether field carries any flag.
func (r *Result) Invalid(field string) bool {
	return len(r.fields[field]) > 0
}

// Valid reports whether no field carries a flag.
func (r *Result) Valid() bool {
	return len(r.fields) == 0
}

// Fields returns the names of the invalid fields, sorted.
func (r *Result) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Message returns the message to display next to field, or "" when the field
// is valid.
func (r *Result) Message(field string) string {
	switch {
	case !r.Invalid(field):
		return ""
	case r.Has(field, FlagRequired):
		return "This field is required."
	case r.Has(field, FlagEmail):
		return "Invalid e-mail format."
	case field == FieldPassword:
		return "Password does not meet the minimum requirements."
	case r.Has(field, FlagPasswordsDoNotMatch):
		return "Passwords do not match."
	default:
		return "Invalid value."
	}
}
