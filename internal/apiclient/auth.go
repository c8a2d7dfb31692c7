package apiclient

import (
	"context"
	"net/http"

	"github.com/simp-lee/authportal/internal/domain"
)

const (
	registerPath = "/autenticacao/cadastro"
	loginPath    = "/autenticacao/login"
)

// AuthClient issues the registration and login exchanges. It performs no
// local validation and returns failures unchanged.
type AuthClient struct {
	client *Client
}

// NewAuthClient creates an AuthClient on top of c.
func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{client: c}
}

// Register creates an account.
// POST /autenticacao/cadastro
func (a *AuthClient) Register(ctx context.Context, in domain.RegistrationInput) (*domain.User, error) {
	var user domain.User
	if err := a.client.DoJSON(ctx, http.MethodPost, registerPath, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
// POST /autenticacao/login
func (a *AuthClient) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthToken, error) {
	var token domain.AuthToken
	if err := a.client.DoJSON(ctx, http.MethodPost, loginPath, in, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
