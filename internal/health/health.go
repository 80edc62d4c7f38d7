package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/shared/server/respond"
	"mindspace-backend/internal/shared/telemetry"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports readiness of the API dependencies.
type Service struct {
	DB           Pinger
	Catalog      *catalog.Catalog
	QueueEnabled bool
	Env          string
}

// Report is the readiness snapshot returned by /health.
type Report struct {
	OK             bool   `json:"ok"`
	Env            string `json:"env"`
	Storage        string `json:"storage"`
	CatalogVersion string `json:"catalogVersion"`
	Followups      string `json:"followups"`
}

// Check pings the database, if any, and describes the wiring.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{OK: true, Env: s.Env, Storage: "memory", Followups: "disabled"}
	if s.Catalog != nil {
		r.CatalogVersion = s.Catalog.Version()
	}
	if s.QueueEnabled {
		r.Followups = "sqs"
	}
	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			telemetry.Error("health.db.ping_failed", map[string]any{"error": err})
			r.OK = false
			r.Storage = "unavailable"
		} else {
			r.Storage = "postgres"
		}
	}
	return r
}

// RegisterRoutes attaches the health route to the router group.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		report := s.Check(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
}
