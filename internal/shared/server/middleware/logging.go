package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/shared/metrics"
	"mindspace-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can carry domain identifiers.
const (
	SubmissionIDKey = "submissionId"
	BookingIDKey    = "bookingId"
	CategoryKey     = "category"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		durationMs := float64(latency.Microseconds()) / 1000.0
		metrics.ObserveRequestDurationMs(durationMs)

		staffSub := ""
		if claims, ok := StaffFromContext(c); ok {
			staffSub = claims.Sub
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":    RequestIDFromContext(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"route":         c.FullPath(),
			"status":        c.Writer.Status(),
			"duration_ms":   durationMs,
			"visitor_id":    VisitorIDFromContext(c),
			"staff_sub":     staffSub,
			"submission_id": c.GetString(SubmissionIDKey),
			"booking_id":    c.GetString(BookingIDKey),
			"category":      c.GetString(CategoryKey),
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
