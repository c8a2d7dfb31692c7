package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
)

// CSRF rejection reasons passed to CSRFConfig.Reject.
const (
	CSRFReasonMissing = "CSRF token missing"
	CSRFReasonInvalid = "CSRF token invalid"
)

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	// Secret signs tokens with HMAC-SHA256. Required.
	Secret string
	// Secure sets the Secure flag on the token cookie.
	Secure bool
	// Reject writes the response for a refused request. Defaults to a JSON
	// body with the given status.
	Reject func(c *gin.Context, status int, reason string)
}

// CSRF protects form submissions with a signed double-submit cookie.
//
// Token format: hex(nonce) + "." + base64url(HMAC-SHA256(nonce, secret))
//
// Safe methods get a token (reusing a valid cookie) exposed to templates
// under "CSRFToken". Unsafe methods must echo the cookie token in the
// "_csrf_token" form field or the X-CSRF-Token header.
func CSRF(cfg CSRFConfig) gin.HandlerFunc {
	secret := strings.TrimSpace(cfg.Secret)
	reject := cfg.Reject
	if reject == nil {
		reject = rejectJSON
	}
	if secret == "" {
		return func(c *gin.Context) {
			reject(c, http.StatusInternalServerError, "csrf secret is required")
			c.Abort()
		}
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token, err := c.Cookie(csrfCookieName)
			if err != nil || !validToken(token, secret) {
				token, err = generateToken(secret)
				if err != nil {
					reject(c, http.StatusInternalServerError, "failed to generate CSRF token")
					c.Abort()
					return
				}
				setCSRFCookie(c, token, cfg.Secure)
			}
			c.Set(csrfContextKey, token)
			c.Next()

		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			cookieToken, _ := c.Cookie(csrfCookieName)
			requestToken := c.PostForm(csrfFormField)
			if requestToken == "" {
				requestToken = c.GetHeader(csrfHeaderName)
			}
			if cookieToken == "" || requestToken == "" {
				reject(c, http.StatusForbidden, CSRFReasonMissing)
				c.Abort()
				return
			}
			if !validToken(cookieToken, secret) || !tokensMatch(cookieToken, requestToken) {
				reject(c, http.StatusForbidden, CSRFReasonInvalid)
				c.Abort()
				return
			}

			c.Set(csrfContextKey, cookieToken)
			c.Next()

		default:
			c.Next()
		}
	}
}

func rejectJSON(c *gin.Context, status int, reason string) {
	c.JSON(status, gin.H{"error": reason})
}

// GetCSRFToken returns the token stored by CSRF, or "".
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfContextKey); exists {
		if s, ok := token.(string); ok {
			return s
		}
	}
	return ""
}

func generateToken(secret string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	nonceHex := hex.EncodeToString(nonce)
	return nonceHex + "." + signNonce(nonceHex, secret), nil
}

func signNonce(nonce, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func validToken(token, secret string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(signNonce(nonce, secret))) == 1
}

func tokensMatch(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// setCSRFCookie stores the token readable by scripts so fetch requests can
// send it back in the header.
func setCSRFCookie(c *gin.Context, token string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
