package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/pulsehq/venue-pulse/internal/api/http"
	"github.com/pulsehq/venue-pulse/internal/config"
	"github.com/pulsehq/venue-pulse/internal/ingest"
	"github.com/pulsehq/venue-pulse/internal/learning"
	"github.com/pulsehq/venue-pulse/internal/scheduler"
	"github.com/pulsehq/venue-pulse/internal/store"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

func main() {
	// Load configuration. Bad boundary hours or missing venue ids are
	// programming/deployment errors and abort startup.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Reading store: in-memory by default, InfluxDB for durable history.
	readingStore, closeStore, err := buildReadingStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize reading store: %v", err)
	}
	defer closeStore()

	// Learning store keeps per-venue best-night profiles.
	learningStore, closeLearning, err := buildLearningStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize learning store: %v", err)
	}
	defer closeLearning()

	// Core pipeline service.
	service := venue.NewService(readingStore, learningStore, cfg.BarDayBoundaryHour)

	// MQTT ingestion from venue sensor publishers.
	var mqttIngestor *ingest.MQTTIngestor
	if cfg.MQTTEnabled {
		mqttIngestor = ingest.NewMQTTIngestor(cfg.MQTT, readingStore)
		if err := mqttIngestor.Start(context.Background()); err != nil {
			log.Fatalf("failed to start mqtt ingestion: %v", err)
		}
		defer mqttIngestor.Stop()
	}

	// HTTP polling fallback for venues without an MQTT bridge.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	var pollers []*ingest.HTTPPoller
	for i, endpoint := range cfg.PollEndpoints {
		pollers = append(pollers, ingest.NewHTTPPoller(
			fmt.Sprintf("poller-%d", i), endpoint, httpClient, readingStore,
		))
	}

	// Scheduler drives recompute and session learning.
	sched := scheduler.New(cfg.VenueIDs, cfg.RecomputeInterval, service, pollers)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "venue-pulse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "venue-pulse",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, readingStore)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func buildReadingStore(cfg *config.AppConfig) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendInflux:
		influx, err := store.NewInfluxStore(cfg.Influx)
		if err != nil {
			return nil, nil, err
		}
		return influx, influx.Close, nil
	case config.StoreBackendMemory:
		mem := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
		return mem, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func buildLearningStore(cfg *config.AppConfig) (learning.Store, func(), error) {
	switch cfg.LearningBackend {
	case config.LearningBackendSQLite:
		sqlite, err := learning.NewSQLiteStore(cfg.LearningDBPath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite, func() {
			if err := sqlite.Close(); err != nil {
				log.Printf("error closing learning store: %v", err)
			}
		}, nil
	case config.LearningBackendMemory:
		return learning.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown LEARNING_BACKEND %q", cfg.LearningBackend)
	}
}
