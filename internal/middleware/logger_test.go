package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

func setupLoggerRouter(log *slog.Logger, requestID gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID)
	r.Use(Logger(log))

	r.GET("/ola", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/missing", func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("backend down"))
		c.String(http.StatusBadGateway, "error")
	})
	r.POST("/cadastro", func(c *gin.Context) {
		c.String(http.StatusCreated, "created")
	})
	return r
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		path  string
		level string
	}{
		{"/ola", "level=INFO"},
		{"/missing", "level=WARN"},
		{"/broken", "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var logBuf bytes.Buffer
			r := setupLoggerRouter(newTestLogger(&logBuf), RequestID())
			doGet(r, tt.path, "")
			if !strings.Contains(logBuf.String(), tt.level) {
				t.Errorf("expected %s, got:\n%s", tt.level, logBuf.String())
			}
		})
	}
}

func TestLogger_ContainsExpectedFields(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cadastro", nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	for _, field := range []string{"msg=request", "method=POST", "path=/cadastro", "route=/cadastro", "status=201", "latency=", "client_ip="} {
		if !strings.Contains(logBuf.String(), field) {
			t.Errorf("expected log to contain %q, got:\n%s", field, logBuf.String())
		}
	}
}

func TestLogger_CountsAttachedErrors(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), RequestID())
	doGet(r, "/broken", "")

	if !strings.Contains(logBuf.String(), "errors=1") {
		t.Errorf("expected errors=1, got:\n%s", logBuf.String())
	}
}

func TestLogger_IncludesRequestIDFromContext(t *testing.T) {
	var logBuf bytes.Buffer
	log, err := logger.New(
		logger.WithConsoleWriter(&logBuf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	defer log.Close()

	r := setupLoggerRouter(log.Logger, RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))
	doGet(r, "/ola", "test-req-id-789")

	if !strings.Contains(logBuf.String(), "test-req-id-789") {
		t.Errorf("expected log to contain request_id, got:\n%s", logBuf.String())
	}
}
