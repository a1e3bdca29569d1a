package middleware

import (
	"time"

	"inventory/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request once it has been handled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		duration := time.Since(start)

		event := logger.Info(ctx)
		switch {
		case status >= 500:
			event = logger.Error(ctx)
		case status >= 400:
			event = logger.Warn(ctx)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Dur("duration", duration).
			Msg("HTTP request completed")
	}
}
