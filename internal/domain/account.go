package domain

import "github.com/google/uuid"

// RegistrationInput is the body of POST /autenticacao/cadastro.
// The confirmation field of the registration form is deliberately absent.
type RegistrationInput struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// LoginInput is the body of POST /autenticacao/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// AuthToken is the bearer credential returned by a successful login.
type AuthToken struct {
	Token string `json:"token"`
}

// User is the account returned after registration.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"nome"`
	Email string    `json:"email"`
}
