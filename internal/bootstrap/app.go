package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mindspace-backend/internal/bookings"
	"mindspace-backend/internal/health"
	"mindspace-backend/internal/queue"
	"mindspace-backend/internal/quiz"
	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/shared/config"
	"mindspace-backend/internal/shared/server"
	"mindspace-backend/internal/shared/storage/db"
	"mindspace-backend/internal/shared/storage/object"
	s3store "mindspace-backend/internal/shared/storage/object/s3"
	"mindspace-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the HTTP router built from them.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Catalog         *catalog.Catalog
	Queue           queue.Client
	QuizRepo        quiz.Repo
	BookingsRepo    bookings.Repo
	QuizService     *quiz.Service
	BookingsService *bookings.Service
	Health          *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	cat, err := buildCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Catalog: cat,
		Queue:   queueClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		Health:         app.Health,
		QuizHandler:    quiz.NewHandler(app.QuizService),
		BookingHandler: bookings.NewHandler(app.BookingsService),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":             cfg.Env,
		"catalog_version": cat.Version(),
		"storage":         storageName(sqlDB),
		"followups":       queueClient != nil,
	})
	return app, nil
}

func buildCatalog(ctx context.Context, cfg config.Config) (*catalog.Catalog, error) {
	path := strings.TrimSpace(cfg.CatalogPath)
	if path == "" {
		return catalog.Default()
	}
	if bucket, key, ok := s3store.ParseURL(path); ok {
		store, err := s3store.New(ctx, cfg.AWSRegion, bucket, "")
		if err != nil {
			return nil, err
		}
		return loadCatalogObject(ctx, store, key)
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load quiz catalog %s: %w", path, err)
	}
	return cat, nil
}

func loadCatalogObject(ctx context.Context, store object.Reader, key string) (*catalog.Catalog, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open quiz catalog: %w", err)
	}
	defer rc.Close()
	cat, err := catalog.Load(rc)
	if err != nil {
		return nil, fmt.Errorf("load quiz catalog %s: %w", key, err)
	}
	return cat, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	profile := db.RuntimeProfile()
	opts := db.OptionsFromEnv(db.DefaultOptions(profile))
	connect := db.Connect
	if profile == db.ProfileLambda {
		// Warm invocations reuse the pool of the execution environment.
		connect = db.Shared
	}
	sqlDB, err := connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}

	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.QuizRepo = &quiz.PGRepo{DB: app.DB}
		app.BookingsRepo = &bookings.PGRepo{DB: app.DB}
	} else {
		app.QuizRepo = quiz.NewMemoryRepo()
		app.BookingsRepo = bookings.NewMemoryRepo()
	}

	app.QuizService = &quiz.Service{
		Repo:    app.QuizRepo,
		Catalog: app.Catalog,
	}
	app.BookingsService = &bookings.Service{
		Repo:     app.BookingsRepo,
		Catalog:  app.Catalog,
		Quiz:     app.QuizService,
		Queue:    app.Queue,
		Location: bookingLocation(app.Config.Timezone),
	}

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = &health.Service{
		DB:           pinger,
		Catalog:      app.Catalog,
		QueueEnabled: app.Queue != nil,
		Env:          app.Config.Env,
	}
}

func bookingLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		telemetry.Warn("bootstrap.timezone.invalid", map[string]any{"timezone": name, "error": err})
		return time.UTC
	}
	return loc
}

func storageName(sqlDB *sql.DB) string {
	if sqlDB == nil {
		return "memory"
	}
	return "postgres"
}
