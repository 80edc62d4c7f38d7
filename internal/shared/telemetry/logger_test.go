package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsAreForwarded(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("quiz.submitted", map[string]any{"category": "terapia", "confidence": "moderate"})
	Error("booking.failed", map[string]any{"error": errors.New("boom")})

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["category"] != "terapia" || ctx["confidence"] != "moderate" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error field boom, got %v", got)
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[1].Level)
	}
}
