package respond

import (
	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/shared/telemetry"
)

// Error codes returned in the envelope.
const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeInvalidState = "invalid_state"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with the standard envelope. Client errors are logged
// at warn level, server errors at error level.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"route":      c.FullPath(),
		"request_id": c.GetString("requestId"),
	}
	if visitorID := c.GetString("visitorId"); visitorID != "" {
		fields["visitor_id"] = visitorID
	}
	log := telemetry.Warn
	if status >= 500 {
		log = telemetry.Error
	}
	log("http.error", fields)

	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}
