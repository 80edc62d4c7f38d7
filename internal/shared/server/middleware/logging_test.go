package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mindspace-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	restore := telemetry.SetLogger(zap.New(core))
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Identity(), Logging())
	router.POST("/api/v1/quiz/submissions", func(c *gin.Context) {
		c.Set(SubmissionIDKey, "sub-1")
		c.Set(CategoryKey, "terapia")
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz/submissions", nil)
	req.Header.Set(VisitorHeader, "visitor-0001")
	req.Header.Set("X-Request-Id", "req-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request.complete entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()

	required := []string{"request_id", "visitor_id", "submission_id", "booking_id", "duration_ms", "status", "route"}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if fields["request_id"] != "req-42" {
		t.Fatalf("unexpected request_id: %v", fields["request_id"])
	}
	if fields["visitor_id"] != "visitor-0001" {
		t.Fatalf("unexpected visitor_id: %v", fields["visitor_id"])
	}
	if fields["submission_id"] != "sub-1" {
		t.Fatalf("unexpected submission_id: %v", fields["submission_id"])
	}
	if fields["category"] != "terapia" {
		t.Fatalf("unexpected category: %v", fields["category"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Fatalf("unexpected status: %v (%T)", fields["status"], fields["status"])
	}
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	restore := telemetry.SetLogger(zap.New(core))
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if logs.FilterMessage("request.panic").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header on panic response")
	}
}
