package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenStore keeps the bearer token on the client after a successful login.
// It is write-only: the portal never reads or clears the stored token.
type TokenStore interface {
	Save(c *gin.Context, token string) error
}

// CookieTokenStore stores the token in a persistent HttpOnly cookie.
type CookieTokenStore struct {
	name   string
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieTokenStore creates a store writing the cookie name. maxAge is used
// when the token carries no usable exp claim.
func NewCookieTokenStore(name string, maxAge time.Duration, secure bool) *CookieTokenStore {
	return &CookieTokenStore{name: name, maxAge: maxAge, secure: secure, now: time.Now}
}

// Save writes token to the response. The exp claim is read without verifying
// the signature; the portal holds no key and only uses it for the expiry.
func (s *CookieTokenStore) Save(c *gin.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}

	now := s.now()
	expires := now.Add(s.maxAge)
	if exp, ok := tokenExpiry(token); ok && exp.After(now) {
		expires = exp
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(now).Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
