package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/authportal/internal/pkg"
)

// errorTemplates maps HTTP status codes to their error template paths.
var errorTemplates = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusForbidden:           "errors/403.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// renderError writes a routing-level error (unknown path, refused form post)
// as an HTML page or a JSON envelope depending on the Accept header.
// Unmapped codes use errors/500.html; a template that fails falls back to
// plain text.
func renderError(c *gin.Context, code int, message string) {
	if pkg.WantsJSON(c) || !acceptsHTML(c) {
		c.JSON(code, pkg.Response{Code: code, Message: message})
		return
	}
	renderHTMLErrorPage(c, code, message)
}

func renderHTMLErrorPage(c *gin.Context, code int, message string) {
	plain := func() {
		c.Writer.Header().Del("Content-Type")
		c.Data(code, "text/plain; charset=utf-8",
			[]byte(fmt.Sprintf("%d %s", code, defaultStatusText(code))))
	}
	defer func() {
		if r := recover(); r != nil {
			plain()
		}
	}()

	tmpl, ok := errorTemplates[code]
	if !ok {
		tmpl = errorTemplates[http.StatusInternalServerError]
	}
	c.HTML(code, tmpl, gin.H{
		"Title":   defaultStatusText(code),
		"Message": message,
	})
	if !c.Writer.Written() {
		plain()
	}
}

// acceptsHTML returns true if the client accepts an HTML response.
// Matches text/html, */* (browser default), and empty Accept headers.
func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}

func defaultStatusText(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusRequestTimeout:
		return "Request Timeout"
	case http.StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Error"
	}
}
