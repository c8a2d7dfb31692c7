package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/middleware"
	"github.com/simp-lee/authportal/internal/pkg"
	"github.com/simp-lee/authportal/web"
)

// Link is a navigation entry shown on the home page.
type Link struct {
	Href  string
	Label string
}

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules []Module
	Links   []Link
	// DB is the journal database; nil when the journal is disabled.
	DB         *gorm.DB
	Mode       string // "debug", "release" or "test"
	CSRFSecret string
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(deps.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}

	csrf := middleware.CSRF(middleware.CSRFConfig{
		Secret: deps.CSRFSecret,
		Secure: deps.Mode == gin.ReleaseMode,
		Reject: func(c *gin.Context, status int, reason string) {
			renderError(c, status, reason)
		},
	})

	if err := registerStaticRoutesWithError(r, deps.Mode); err != nil {
		return fmt.Errorf("register static routes: %w", err)
	}

	r.GET("/health", healthHandler(deps.DB))

	links := deps.Links
	r.GET("/", csrf, func(c *gin.Context) {
		c.HTML(http.StatusOK, "home.html", gin.H{
			"Title":     "Home",
			"Links":     links,
			"CSRFToken": middleware.GetCSRFToken(c),
		})
	})

	// JSON routes, no CSRF.
	api := r.Group("/api/v1")

	pages := r.Group("/")
	pages.Use(csrf)

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, pages)
	}

	r.NoRoute(noRouteHandler())

	return nil
}

// healthHandler reports process health. When the journal is enabled its
// database is pinged; a failed ping degrades the status.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"components": gin.H{
					"journal": "disabled",
				},
			})
			return
		}

		if err := pingJournal(c.Request.Context(), db); err != nil {
			c.JSON(domain.HTTPStatusCode(err), gin.H{
				"status": "degraded",
				"components": gin.H{
					"journal": "error",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"components": gin.H{
				"journal": "ok",
			},
		})
	}
}

// pingJournal checks the journal database within one second. Failures are
// reported as domain.ErrUnavailable.
func pingJournal(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return domain.NewAppError(domain.CodeUnavailable, "journal unreachable", err)
	}
	return nil
}

// noRouteHandler returns a handler that renders a 404 HTML page for browser
// requests or a JSON response for API clients.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, pkg.Response{Code: http.StatusNotFound, Message: "not found"})
			return
		}

		renderError(c, http.StatusNotFound, "not found")
	}
}

func registerStaticRoutesWithError(r *gin.Engine, mode string) error {
	if mode == gin.DebugMode {
		debugStaticFS, err := resolveDebugStaticFS()
		if err != nil {
			return fmt.Errorf("resolve debug static filesystem: %w", err)
		}
		fileServer := http.StripPrefix("/static", http.FileServer(http.FS(debugStaticFS)))
		r.GET("/static/*filepath", func(c *gin.Context) {
			fileServer.ServeHTTP(c.Writer, c.Request)
		})
		return nil
	}

	staticFS, err := fs.Sub(web.EmbeddedFS, "static")
	if err != nil {
		return fmt.Errorf("create sub filesystem for static assets: %w", err)
	}
	r.GET("/static/*filepath", cacheStaticHandler(http.FS(staticFS)))
	return nil
}

func resolveDebugStaticFS() (fs.FS, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("resolve current file path")
	}

	projectRoot := filepath.Clean(filepath.Join(filepath.Dir(currentFile), "..", ".."))
	staticDir := filepath.Join(projectRoot, "web", "static")
	if _, err := os.Stat(staticDir); err != nil {
		return nil, fmt.Errorf("stat static directory %q: %w", staticDir, err)
	}

	return os.DirFS(staticDir), nil
}

// cacheStaticHandler serves embedded assets with a one-day Cache-Control.
func cacheStaticHandler(fsys http.FileSystem) gin.HandlerFunc {
	fileServer := http.StripPrefix("/static", http.FileServer(fsys))
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
