package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/learntrack/backend/internal/config"
	"github.com/learntrack/backend/internal/database"
	"github.com/learntrack/backend/internal/handlers"
	"github.com/learntrack/backend/internal/middleware"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/services"
	"github.com/learntrack/backend/internal/storage"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours, cfg.JWT.RememberHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	objects, err := newObjectStore(cfg.MinIO)
	if err != nil {
		log.Fatalf("object storage initialization failed: %v", err)
	}

	var defaultSection models.Section
	if cfg.Tracker.DefaultSection != "" {
		section, ok := models.ParseSection(cfg.Tracker.DefaultSection)
		if !ok {
			log.Fatalf("DEFAULT_SECTION %q is not a known section", cfg.Tracker.DefaultSection)
		}
		defaultSection = section
	}

	clock := store.NewClock(time.Now)
	catalogStore := store.NewCatalogStore(db, clock)
	rosterStore := store.NewRosterStore(db, clock)
	progressStore := store.NewProgressStore(db, clock)

	engine := services.NewProgressEngine(catalogStore, rosterStore, progressStore)
	catalogService := services.NewCatalogService(catalogStore, engine, objects)
	aggregation := services.NewAggregationService(catalogStore, rosterStore, progressStore, defaultSection)
	identity := services.NewIdentityService(rosterStore, cfg.SSO.AdminEmails)
	oauth := services.NewOAuthService(cfg.SSO)

	router := &handlers.Router{
		Auth:     handlers.NewAuthHandler(identity, oauth, cfg.Server.FrontendURL),
		Notes:    handlers.NewNotesHandler(catalogService, defaultSection),
		Progress: handlers.NewProgressHandler(engine, aggregation),
		Users:    handlers.NewUsersHandler(rosterStore),
		Stats:    handlers.NewStatsHandler(aggregation),
		Guard:    middleware.NewAuthMiddleware(rosterStore),
	}

	bodyLimit := cfg.Server.UploadLimitMB * 1024 * 1024
	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	router.Register(app)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	engine.StartSweeper(sweepCtx, cfg.Tracker.SweepInterval)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":            cfg.Server.Port,
		"address":         listenAddr,
		"body_limit_mb":   cfg.Server.UploadLimitMB,
		"db_driver":       cfg.DB.Driver,
		"storage_driver":  cfg.MinIO.Driver,
		"oauth_enabled":   oauth.Enabled(),
		"default_section": string(defaultSection),
		"sweep_interval":  cfg.Tracker.SweepInterval.String(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		stopSweeper()
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

func newObjectStore(cfg config.MinIOConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("storage_memory_driver", map[string]interface{}{
			"detail": "uploaded documents are lost on restart",
		})
		return storage.NewMemoryStore("memory://" + cfg.Bucket), nil
	case "minio", "":
		client, err := storage.NewMinIOClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(context.Background()); err != nil {
			return nil, fmt.Errorf("failed ensuring minio bucket: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
