// Package middleware provides gin middleware shared across routes:
// panic recovery and request logging enriched via common/logger's
// context fields, grounded on the teacher's pattern of attaching
// structured log fields to a request's context before handler dispatch.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"boardsense.dev/sentinel/common/logger"
)

// Recovery converts a panicking handler into a 500 response instead of
// crashing the process, logging the panic and stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(c.Request.Context(), "panic recovered in http handler",
					"panic", rec, "stack", string(debug.Stack()), "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

// Logger enriches the request context with a component tag and emits one
// structured log line per request on completion.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "sentinel.http"})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		slog.InfoContext(ctx, "http request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
