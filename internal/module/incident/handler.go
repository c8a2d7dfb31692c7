// Package incident exposes the failure journal: a JSON API and browsable
// pages listing recorded incidents.
package incident

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/pkg"
)

// Page templates.
const (
	ListTemplate   = "incident/list.html"
	DetailTemplate = "incident/detail.html"
)

// Reader reads recorded incidents.
type Reader interface {
	Get(ctx context.Context, id uint) (*domain.Incident, error)
	List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Incident], error)
}

// Handler serves incidents as JSON and as pages. Failures here render the
// plain error pages directly so browsing the journal never adds to it.
type Handler struct {
	reader Reader
	logger *slog.Logger
}

// NewHandler creates a Handler. Panics if reader is nil.
func NewHandler(reader Reader, logger *slog.Logger) *Handler {
	if reader == nil {
		panic("incident.NewHandler: reader must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reader: reader, logger: logger}
}

// List handles GET /api/v1/incidents.
func (h *Handler) List(c *gin.Context) {
	result, err := h.reader.List(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, result)
}

// Get handles GET /api/v1/incidents/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	incident, err := h.reader.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, incident)
}

// ListPage renders the incident list with pagination.
// GET /incidents
func (h *Handler) ListPage(c *gin.Context) {
	req := pkg.ParsePageRequest(c)

	result, err := h.reader.List(c.Request.Context(), req)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to list incidents", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	c.HTML(http.StatusOK, ListTemplate, gin.H{
		"Title":      "Incidents",
		"Incidents":  result.Items,
		"Pagination": result,
		"BaseURL":    "/incidents",
		"Filter":     req.Filter,
	})
}

// DetailPage renders one incident with its field errors.
// GET /incidents/:id
func (h *Handler) DetailPage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
		return
	}

	incident, err := h.reader.Get(c.Request.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			c.HTML(http.StatusNotFound, "errors/404.html", gin.H{})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "failed to load incident",
			slog.Uint64("id", uint64(id)), slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	c.HTML(http.StatusOK, DetailTemplate, gin.H{
		"Title":    fmt.Sprintf("Incident #%d", incident.ID),
		"Incident": incident,
	})
}

func parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 || id > uint64(^uint(0)) {
		return 0, fmt.Errorf("invalid id: %s", idStr)
	}
	return uint(id), nil
}

// Module implements the app.Module interface for the incident journal.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("incident.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers the incident API and pages.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	incidents := api.Group("/incidents")
	incidents.GET("", m.handler.List)
	incidents.GET("/:id", m.handler.Get)

	pages.GET("/incidents", m.handler.ListPage)
	pages.GET("/incidents/:id", m.handler.DetailPage)
}
