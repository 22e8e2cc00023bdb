package middleware

import (
	"net/http"
	"time"

	"github.com/folio-site/folio-backend/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request. Paths in skip are not logged.
func RequestLogger(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := skipped[path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(RequestIDKey),
		}

		log := logger.GetLogger().Named("http")
		switch {
		case status >= http.StatusInternalServerError:
			log.Errorw("Request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warnw("Request rejected", fields...)
		default:
			log.Infow("Request handled", fields...)
		}
	}
}
