package form

import (
	"slices"
	"testing"
)

func TestResult_AddRemove(t *testing.T) {
	r := NewResult()
	if !r.Valid() {
		t.Fatal("new result should be valid")
	}

	r.Add(FieldEmail, FlagRequired)
	r.Add(FieldEmail, FlagRequired)
	r.Add(FieldEmail, FlagEmail)
	if got := r.Flags(FieldEmail); !slices.Equal(got, []string{FlagRequired, FlagEmail}) {
		t.Errorf("Flags() = %v; want [required email]", got)
	}

	r.Remove(FieldEmail, FlagRequired)
	if got := r.Flags(FieldEmail); !slices.Equal(got, []string{FlagEmail}) {
		t.Errorf("Flags() after Remove = %v; want [email]", got)
	}

	r.Remove(FieldEmail, FlagEmail)
	if r.Invalid(FieldEmail) || !r.Valid() {
		t.Error("result should be valid once the last flag is removed")
	}
	if got := r.Flags(FieldEmail); got != nil {
		t.Errorf("Flags() of a valid field = %v; want nil", got)
	}
}

func TestResult_RemoveMissing(t *testing.T) {
	r := NewResult()
	r.Remove(FieldName, FlagRequired)
	if !r.Valid() {
		t.Error("removing from an empty result should keep it valid")
	}
}

func TestResult_FlagsIsCopy(t *testing.T) {
	r := NewResult()
	r.Add(FieldName, FlagRequired)
	flags := r.Flags(FieldName)
	flags[0] = "mutated"
	if !r.Has(FieldName, FlagRequired) {
		t.Error("mutating the returned slice must not change the result")
	}
}

func TestResult_Fields(t *testing.T) {
	r := NewResult()
	r.Add(FieldPassword, FlagRequired)
	r.Add(FieldEmail, FlagEmail)
	if got := r.Fields(); !slices.Equal(got, []string{FieldEmail, FieldPassword}) {
		t.Errorf("Fields() = %v; want [email password]", got)
	}
}

func TestResult_Message(t *testing.T) {
	tests := []struct {
		name  string
		field string
		flags []string
		want  string
	}{
		{"valid", FieldName, nil, ""},
		{"required wins", FieldEmail, []string{FlagEmail, FlagRequired}, "This field is required."},
		{"email", FieldEmail, []string{FlagEmail}, "Invalid e-mail format."},
		{"password rules", FieldPassword, []string{FlagMinLength}, "Password does not meet the minimum requirements."},
		{"mismatch", FieldPasswordConfirmation, []string{FlagPasswordsDoNotMatch}, "Passwords do not match."},
		{"other", FieldName, []string{"max"}, "Invalid value."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult()
			for _, f := range tt.flags {
				r.Add(tt.field, f)
			}
			if got := r.Message(tt.field); got != tt.want {
				t.Errorf("Message() = %q; want %q", got, tt.want)
			}
		})
	}
}
