package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// PanicHandler writes the response for a recovered panic.
type PanicHandler func(c *gin.Context, recovered any)

// Recovery returns a gin middleware that recovers from panics, logs the value
// with a stack trace and hands it to onPanic. With a nil onPanic it answers
// with a plain 500.
func Recovery(logger *slog.Logger, onPanic PanicHandler) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", r),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				c.Abort()
				if onPanic == nil {
					c.Data(500, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
					return
				}
				onPanic(c, r)
			}
		}()
		c.Next()
	}
}
