package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/bookings"
	"mindspace-backend/internal/health"
	"mindspace-backend/internal/quiz"
	"mindspace-backend/internal/shared/config"
	"mindspace-backend/internal/shared/metrics"
	"mindspace-backend/internal/shared/server/middleware"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	Health         *health.Service
	QuizHandler    *quiz.Handler
	BookingHandler *bookings.Handler
	// Limiter is shared across requests; nil builds a fresh one.
	Limiter *middleware.RateLimiter
}

// Rate limit groups.
const (
	groupDefault = "DEFAULT"
	groupWrite   = "WRITE"
	groupPreview = "PREVIEW"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(rateLimitConfig(deps)),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.RegisterRoutes(api)
	}
	if deps.BookingHandler != nil {
		deps.BookingHandler.RegisterRoutes(api)
		admin := api.Group("/admin", middleware.RequireStaff())
		deps.BookingHandler.RegisterAdminRoutes(admin)
	}

	return r
}

// Quiz previews are sent on every wizard step; submissions and bookings are the
// writes worth throttling hardest.
func rateLimitConfig(deps RouterDeps) middleware.RateLimitConfig {
	rl := deps.Config.RateLimit
	return middleware.RateLimitConfig{
		DefaultGroup: groupDefault,
		Limiter:      deps.Limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return groupDefault
			}
			if c.FullPath() == "/api/v1/quiz/preview" {
				return groupPreview
			}
			return groupWrite
		},
		Rules: map[string]middleware.RateLimitRule{
			groupWrite:   {Rate: rl.PerSecond, Burst: rl.Burst},
			groupPreview: {Rate: rl.PerSecond * 5, Burst: rl.Burst * 3},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
