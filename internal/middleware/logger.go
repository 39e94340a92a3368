// Package middleware provides HTTP middleware functions.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a middleware that logs one line per request, keyed to
// the response status class: 5xx at error, 4xx at warn, otherwise info.
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		fields := requestFields(c, path, raw, time.Since(start))

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Errorw("HTTP request", fields...)
		case status >= 400:
			logger.Warnw("HTTP request", fields...)
		default:
			logger.Infow("HTTP request", fields...)
		}
	}
}

func requestFields(c *gin.Context, path, rawQuery string, latency time.Duration) []interface{} {
	fields := []interface{}{
		"status", c.Writer.Status(),
		"method", c.Request.Method,
		"path", path,
		"latency", latency,
		"latency_ms", latency.Milliseconds(),
		"client_ip", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
	}
	if rawQuery != "" {
		fields = append(fields, "query", rawQuery)
	}
	if c.Writer.Size() > 0 {
		fields = append(fields, "size", c.Writer.Size())
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "errors", c.Errors.String())
	}
	return fields
}
