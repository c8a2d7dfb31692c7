package failure

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/middleware"
	"github.com/simp-lee/authportal/internal/pkg"
)

// DialogTemplate is the page rendered for a handled failure.
const DialogTemplate = "errors/dialog.html"

// Middleware returns a gin middleware that hands the last error attached by
// a handler (via c.Error) to h and renders the error dialog, unless the
// handler already wrote a response.
func (h *Handler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		model := h.Handle(c.Request.Context(), last.Err, requestInfo(c))
		if c.Writer.Written() {
			return
		}
		Render(c, model)
	}
}

// HandlePanic is passed to middleware.Recovery so recovered panics reach the
// same handler as returned errors.
func (h *Handler) HandlePanic(c *gin.Context, recovered any) {
	model := h.Handle(c.Request.Context(), recovered, requestInfo(c))
	if c.Writer.Written() {
		return
	}
	Render(c, model)
}

// Render writes model as the error dialog page, or as JSON when the client
// explicitly asks for it.
func Render(c *gin.Context, model domain.ErrorDialogModel) {
	status := ResponseStatus(model)
	if pkg.WantsJSON(c) {
		c.JSON(status, model)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			renderPlain(c, status, model)
		}
	}()
	c.HTML(status, DialogTemplate, gin.H{
		"Title":  model.StandardError.Title,
		"Dialog": model,
		"Back":   backLink(c),
	})
	// A template that failed before writing leaves the response empty.
	if !c.Writer.Written() {
		renderPlain(c, status, model)
	}
}

func renderPlain(c *gin.Context, status int, model domain.ErrorDialogModel) {
	c.Writer.Header().Del("Content-Type")
	c.Data(status, "text/plain; charset=utf-8",
		[]byte(model.StandardError.Title+": "+model.StandardError.Message))
}

func requestInfo(c *gin.Context) RequestInfo {
	return RequestInfo{
		RequestID: middleware.GetRequestID(c),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
	}
}

// backLink is where the dialog's close action leads: the form a failed
// submission came from, or home for a failed page load.
func backLink(c *gin.Context) string {
	if c.Request.Method == http.MethodGet || c.Request.URL.Path == "" {
		return "/"
	}
	return c.Request.URL.Path
}
