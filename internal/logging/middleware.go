package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the per-request id back to the client.
const RequestIDHeader = "X-Request-ID"

const slowRequest = 5 * time.Second

// GinMiddleware logs each request with its id, status and duration.
func GinMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := logrus.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": duration.Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		entry := log.WithFields(fields)

		switch {
		case c.Writer.Status() >= 500:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case duration > slowRequest:
			entry.Warn("slow request")
		default:
			entry.Info("request completed")
		}
	}
}
