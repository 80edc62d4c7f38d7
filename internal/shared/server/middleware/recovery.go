package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/shared/server/respond"
	"mindspace-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope. Nothing is written when the
// handler already started the response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("request.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"visitor_id": VisitorIDFromContext(c),
				"method":     c.Request.Method,
				"route":      c.FullPath(),
				"panic":      rec,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Unexpected server error", nil)
		}()
		c.Next()
	}
}
