package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/form"
	"github.com/simp-lee/authportal/internal/middleware"
)

// Page templates.
const (
	LoginTemplate    = "auth/login.html"
	RegisterTemplate = "auth/register.html"
)

// NoticeLoggedIn is shown after a successful login.
const NoticeLoggedIn = "Login successful!"

// Authenticator is the backend side of the auth pages.
type Authenticator interface {
	Register(ctx context.Context, in domain.RegistrationInput) (*domain.User, error)
	Login(ctx context.Context, in domain.LoginInput) (*domain.AuthToken, error)
}

// AuthHandler serves the login and registration pages.
//
// Invalid submissions are re-rendered with field messages and never reach
// the backend. Backend failures are attached with c.Error and rendered by the
// failure middleware.
type AuthHandler struct {
	client    Authenticator
	tokens    TokenStore
	validator *form.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. A nil validator or logger falls back
// to defaults; client and tokens are required.
func NewAuthHandler(client Authenticator, tokens TokenStore, v *form.Validator, logger *slog.Logger) *AuthHandler {
	if client == nil {
		panic("auth.NewAuthHandler: client must not be nil")
	}
	if tokens == nil {
		panic("auth.NewAuthHandler: token store must not be nil")
	}
	if v == nil {
		v = form.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{client: client, tokens: tokens, validator: v, logger: logger}
}

// RegisteredNotice is shown after a successful registration.
func RegisteredNotice(name string) string {
	return fmt.Sprintf("User %s registered successfully!", name)
}

// LoginPage renders an empty login form.
// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, LoginForm{}, form.NewResult(), "")
}

// Login validates the submitted credentials, exchanges them for a token and
// stores it.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var f LoginForm
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		_ = c.Error(fmt.Errorf("read login form: %w", err))
		return
	}

	res, err := h.validator.Validate(f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !res.Valid() {
		h.renderLogin(c, http.StatusUnprocessableEntity, LoginForm{Email: f.Email}, res, "")
		return
	}

	ctx := c.Request.Context()
	token, err := h.client.Login(ctx, f.Input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.tokens.Save(c, token.Token); err != nil {
		_ = c.Error(fmt.Errorf("store token: %w", err))
		return
	}

	h.logger.InfoContext(ctx, "login succeeded")
	h.renderLogin(c, http.StatusOK, LoginForm{Email: f.Email}, form.NewResult(), NoticeLoggedIn)
}

// RegisterPage renders an empty registration form.
// GET /cadastro
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	h.renderRegister(c, http.StatusOK, RegistrationForm{}, form.NewResult(), "")
}

// Register validates the registration form, including the password
// confirmation, and creates the account.
// POST /cadastro
func (h *AuthHandler) Register(c *gin.Context) {
	var f RegistrationForm
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		_ = c.Error(fmt.Errorf("read registration form: %w", err))
		return
	}

	res, err := h.validator.Validate(f, form.PasswordsMatch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !res.Valid() {
		h.renderRegister(c, http.StatusUnprocessableEntity, f, res, "")
		return
	}

	ctx := c.Request.Context()
	user, err := h.client.Register(ctx, f.Input())
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.InfoContext(ctx, "account registered", slog.String("user_id", user.ID.String()))
	h.renderRegister(c, http.StatusOK, RegistrationForm{}, form.NewResult(), RegisteredNotice(user.Name))
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, f LoginForm, res *form.Result, notice string) {
	c.HTML(status, LoginTemplate, gin.H{
		"Title":     "Login",
		"Form":      f,
		"Errors":    res,
		"Notice":    notice,
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// renderRegister never echoes the passwords back into the page.
func (h *AuthHandler) renderRegister(c *gin.Context, status int, f RegistrationForm, res *form.Result, notice string) {
	c.HTML(status, RegisterTemplate, gin.H{
		"Title":        "Register",
		"Form":         RegistrationForm{Name: f.Name, Email: f.Email},
		"Errors":       res,
		"Requirements": form.CheckPassword(f.Password),
		"Notice":       notice,
		"CSRFToken":    middleware.GetCSRFToken(c),
	})
}
