package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status|version|redo]

import (
	"context"
	"os"

	"mindspace-backend/internal/shared/config"
	"mindspace-backend/internal/shared/storage/db"
	"mindspace-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultOptions(db.ProfileMigrate))
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect.failed", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command, args...); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "error": err})
		sqlDB.Close()
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": command})
}
