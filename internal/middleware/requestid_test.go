package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRequestIDRouter(cfg RequestIDConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDWithConfig(cfg))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	r.GET("/ctx", func(c *gin.Context) {
		c.String(http.StatusOK, findAttrValue(logger.FromContext(c.Request.Context()), "request_id"))
	})
	return r
}

func findAttrValue(attrs []slog.Attr, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value.String()
		}
	}
	return ""
}

func doGet(r http.Handler, path, upstream string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if upstream != "" {
		req.Header.Set(requestIDHeader, upstream)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	w := doGet(setupRequestIDRouter(RequestIDConfig{}), "/test", "")

	body := w.Body.String()
	if _, err := uuid.Parse(body); err != nil {
		t.Errorf("expected a UUID, got %q: %v", body, err)
	}
	if got := w.Header().Get(requestIDHeader); got != body {
		t.Errorf("response header = %q; want %q", got, body)
	}
}

func TestRequestID_IgnoresUpstreamByDefault(t *testing.T) {
	w := doGet(setupRequestIDRouter(RequestIDConfig{}), "/test", "upstream-id-123")
	if w.Body.String() == "upstream-id-123" {
		t.Error("upstream id should not be trusted by default")
	}
}

func TestRequestID_Upstream(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		reused   bool
	}{
		{"valid", "upstream-id-123", true},
		{"boundary 64", strings.Repeat("a", 64), true},
		{"too long", strings.Repeat("a", 65), false},
		{"bad charset", "bad_id", false},
	}
	r := setupRequestIDRouter(RequestIDConfig{TrustUpstream: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := doGet(r, "/test", tt.upstream).Body.String()
			if (got == tt.upstream) != tt.reused {
				t.Errorf("reused = %v, want %v (got %q)", got == tt.upstream, tt.reused, got)
			}
		})
	}
}

func TestRequestID_StoredInGoContext(t *testing.T) {
	w := doGet(setupRequestIDRouter(RequestIDConfig{TrustUpstream: true}), "/ctx", "ctx-test-456")
	if w.Body.String() != "ctx-test-456" {
		t.Errorf("expected request ID in context %q, got %q", "ctx-test-456", w.Body.String())
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	r := setupRequestIDRouter(RequestIDConfig{})
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := doGet(r, "/test", "").Body.String()
		if ids[id] {
			t.Fatalf("duplicate request ID generated: %q", id)
		}
		ids[id] = true
	}
}

func TestRequestID_AnnotatesActiveSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))
	r.GET("/ctx", func(c *gin.Context) {
		c.String(http.StatusOK, findAttrValue(logger.FromContext(c.Request.Context()), "trace_id"))
	})

	w := doGet(r, "/ctx", "span-id-1")

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if w.Body.String() != spans[0].SpanContext().TraceID().String() {
		t.Errorf("trace_id log attr = %q, want %q", w.Body.String(), spans[0].SpanContext().TraceID())
	}
	found := false
	for _, a := range spans[0].Attributes() {
		if string(a.Key) == "request.id" && a.Value.AsString() == "span-id-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("request.id attribute missing: %v", spans[0].Attributes())
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	r := gin.New()
	r.GET("/no-id", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	if body := doGet(r, "/no-id", "").Body.String(); body != "" {
		t.Errorf("expected empty request ID, got %q", body)
	}
}
