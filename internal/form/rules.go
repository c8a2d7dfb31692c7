package form

// Rule is a cross-field check run after the struct-tag rules.
type Rule func(Values, *Result)

// PasswordsMatch compares the password and passwordConfirmation fields.
// A mismatch adds FlagPasswordsDoNotMatch to the confirmation field; a match
// removes only that flag. Forms without either field are left untouched.
func PasswordsMatch(v Values, r *Result) {
	password, ok := v.Get(FieldPassword)
	if !ok {
		return
	}
	confirmation, ok := v.Get(FieldPasswordConfirmation)
	if !ok {
		return
	}

	if password == confirmation {
		r.Remove(FieldPasswordConfirmation, FlagPasswordsDoNotMatch)
		return
	}
	r.Add(FieldPasswordConfirmation, FlagPasswordsDoNotMatch)
}

// MinPasswordLength is the minimum length of a registration password.
const MinPasswordLength = 8

// PasswordRequirements reports which complexity requirements a password meets.
type PasswordRequirements struct {
	MinLength bool
	Uppercase bool
	Lowercase bool
	Digit     bool
}

// Met reports whether all requirements are satisfied.
func (p PasswordRequirements) Met() bool {
	return p.MinLength && p.Uppercase && p.Lowercase && p.Digit
}

// CheckPassword evaluates the registration password requirements.
func CheckPassword(password string) PasswordRequirements {
	var req PasswordRequirements
	req.MinLength = len([]rune(password)) >= MinPasswordLength
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			req.Uppercase = true
		case r >= 'a' && r <= 'z':
			req.Lowercase = true
		case r >= '0' && r <= '9':
			req.Digit = true
		}
	}
	return req
}
