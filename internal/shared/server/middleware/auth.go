package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/shared/auth"
	"mindspace-backend/internal/shared/server/respond"
)

const (
	visitorIDKey = "visitorId"
	staffKey     = "staff"

	// VisitorHeader carries the browser-session identifier of an anonymous visitor.
	VisitorHeader = "X-Visitor-Id"
)

var visitorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Identity records who is calling: an optional anonymous visitor ID taken from
// VisitorHeader, and staff claims when a bearer token is presented.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if visitorID := strings.TrimSpace(c.GetHeader(VisitorHeader)); visitorID != "" {
			if !visitorIDPattern.MatchString(visitorID) {
				respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid visitor id", nil)
				return
			}
			c.Set(visitorIDKey, visitorID)
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid token", nil)
			return
		}
		c.Set(staffKey, claims)
		c.Next()
	}
}

// RequireStaff rejects requests without staff claims.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := StaffFromContext(c)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "staff login required", nil)
			return
		}
		if !claims.IsStaff() {
			respond.Error(c, http.StatusForbidden, respond.CodeForbidden, "staff role required", nil)
			return
		}
		c.Next()
	}
}

// VisitorIDFromContext fetches the visitor ID set by Identity.
func VisitorIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(visitorIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// StaffFromContext fetches the staff claims set by Identity.
func StaffFromContext(c *gin.Context) (auth.Claims, bool) {
	if c == nil {
		return auth.Claims{}, false
	}
	val, ok := c.Get(staffKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := val.(auth.Claims)
	return claims, ok
}
