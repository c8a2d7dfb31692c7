package auth

import (
	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/form"
)

// LoginForm is the submitted login form.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Values implements form.Form.
func (f LoginForm) Values() form.Values {
	return form.Values{
		form.FieldEmail:    f.Email,
		form.FieldPassword: f.Password,
	}
}

// Input returns the credentials sent to the backend.
func (f LoginForm) Input() domain.LoginInput {
	return domain.LoginInput{Email: f.Email, Password: f.Password}
}

// RegistrationForm is the submitted registration form. PasswordConfirmation
// only exists here; Input drops it.
type RegistrationForm struct {
	Name                 string `form:"name" validate:"required"`
	Email                string `form:"email" validate:"required,email"`
	Password             string `form:"password" validate:"required,min=8,password"`
	PasswordConfirmation string `form:"passwordConfirmation" validate:"required"`
}

// Values implements form.Form.
func (f RegistrationForm) Values() form.Values {
	return form.Values{
		form.FieldName:                 f.Name,
		form.FieldEmail:                f.Email,
		form.FieldPassword:             f.Password,
		form.FieldPasswordConfirmation: f.PasswordConfirmation,
	}
}

// Input returns the account data sent to the backend.
func (f RegistrationForm) Input() domain.RegistrationInput {
	return domain.RegistrationInput{Name: f.Name, Email: f.Email, Password: f.Password}
}
