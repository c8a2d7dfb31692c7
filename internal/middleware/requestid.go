package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestIDConfig controls request-id reuse behavior.
type RequestIDConfig struct {
	TrustUpstream bool
}

// RequestID assigns a UUID to each request. Upstream X-Request-ID values are
// ignored; use RequestIDWithConfig to reuse them.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig assigns request IDs based on cfg.
//
// The ID is stored in gin.Context under "request_id", echoed in the
// X-Request-ID response header, attached to the Go context for structured
// logging and, when a span is recording, set as the request.id span
// attribute. The span's trace ID is attached to the log context as well.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cfg.TrustUpstream {
			if upstream := c.GetHeader(requestIDHeader); requestIDPattern.MatchString(upstream) {
				id = upstream
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)

		ctx := c.Request.Context()
		attrs := []slog.Attr{slog.String("request_id", id)}
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			span.SetAttributes(attribute.String("request.id", id))
			attrs = append(attrs, slog.String("trace_id", span.SpanContext().TraceID().String()))
		}
		c.Request = c.Request.WithContext(logger.WithContextAttrs(ctx, attrs...))

		c.Next()
	}
}

// GetRequestID returns the request ID stored in c, or "".
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(requestIDContextKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
