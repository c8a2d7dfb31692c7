// Package greeting serves the page that shows the backend greeting.
package greeting

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageTemplate is the greeting page.
const PageTemplate = "greeting/index.html"

// MessageLoadFailed replaces the greeting when the backend call fails.
const MessageLoadFailed = "Error loading data from API."

// Source returns the greeting text.
type Source interface {
	Greeting(ctx context.Context) (string, error)
}

// Handler renders the greeting page. Failures are handled locally: the page
// shows MessageLoadFailed and the error is logged, without going through the
// failure middleware.
type Handler struct {
	source Source
	logger *slog.Logger
}

// NewHandler creates a Handler. Panics if source is nil.
func NewHandler(source Source, logger *slog.Logger) *Handler {
	if source == nil {
		panic("greeting.NewHandler: source must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{source: source, logger: logger}
}

// Page fetches the greeting and renders it.
// GET /ola
func (h *Handler) Page(c *gin.Context) {
	ctx := c.Request.Context()

	text, err := h.source.Greeting(ctx)
	failed := err != nil
	if failed {
		h.logger.ErrorContext(ctx, "failed to load greeting", slog.Any("error", err))
		text = MessageLoadFailed
	}

	c.HTML(http.StatusOK, PageTemplate, gin.H{
		"Title":    "Greeting",
		"Greeting": text,
		"Failed":   failed,
	})
}

// Module implements the app.Module interface for the greeting page.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("greeting.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers GET /ola.
func (m *Module) RegisterRoutes(_ *gin.RouterGroup, pages *gin.RouterGroup) {
	pages.GET("/ola", m.handler.Page)
}
