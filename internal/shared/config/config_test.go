package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("BOOKING_TIMEZONE", "")

	cfg := Load()
	if cfg.Env != "dev" || !cfg.IsDevLike() {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.RateLimit.Burst != 10 {
		t.Fatalf("expected default burst 10, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Worker.Concurrency != 4 || cfg.Timezone == "" {
		t.Fatalf("unexpected worker/timezone defaults: %+v %q", cfg.Worker, cfg.Timezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RATE_LIMIT_PER_SECOND", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("QUIZ_CATALOG_PATH", "/etc/quiz.yaml")

	cfg := Load()
	if cfg.Env != "production" || cfg.IsDevLike() {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin); diff != "" {
		t.Fatalf("origins (-want +got):\n%s", diff)
	}
	if cfg.RateLimit.PerSecond != 0.5 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.CatalogPath != "/etc/quiz.yaml" {
		t.Fatalf("unexpected catalog path %q", cfg.CatalogPath)
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MS_TEST_FROM_FILE=file\nMS_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MS_TEST_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("MS_TEST_FROM_FILE") })

	loadEnvFiles(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("MS_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("MS_TEST_PRESET"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
