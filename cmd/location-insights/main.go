package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kelvins/geocoder"

	"github.com/b31417592/location-insights/internal/analysis"
	httpapi "github.com/b31417592/location-insights/internal/api/http"
	"github.com/b31417592/location-insights/internal/config"
	"github.com/b31417592/location-insights/internal/demographics"
	"github.com/b31417592/location-insights/internal/places"
	"github.com/b31417592/location-insights/internal/scheduler"
	"github.com/b31417592/location-insights/internal/store"
	"github.com/b31417592/location-insights/internal/traffic"
	"github.com/b31417592/location-insights/internal/traffic/besttime"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// The geocoder library keys itself off a package-level variable.
	geocoder.ApiKey = cfg.GeocoderAPIKey

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Foot-traffic provider and the orchestrated search pipeline on top.
	trafficClient := besttime.New(httpClient, cfg.BestTimeBaseURL, cfg.BestTimeAPIKey)
	trafficService := traffic.NewService(trafficClient, traffic.PollConfig{
		Deadline:        cfg.ProgressTimeout,
		InitialInterval: cfg.ProgressInterval,
		MaxInterval:     cfg.ProgressMaxInterval,
		GrowthFactor:    cfg.ProgressGrowth,
	})

	targetStore := store.NewTargetStore(db)
	snapshots := store.NewSnapshotCache(cfg.SnapshotMaxHistory, cfg.SnapshotMaxAge)

	// Scheduler that periodically refreshes foot traffic for saved targets.
	sched := scheduler.New(trafficService, targetStore, snapshots, cfg.RefreshInterval, cfg.RefreshTargetLimit)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	api := &httpapi.API{
		TrafficClient: trafficClient,
		Traffic:       trafficService,
		Places:        places.NewClient(httpClient, cfg.PlacesAPIKey),
		Demographics:  demographics.NewStore(db, cfg.DemographicsSchema, cfg.DemographicsTable),
		Targets:       targetStore,
		Snapshots:     snapshots,
		Analyzer: analysis.New(analysis.Config{
			APIKey:    cfg.OpenAIAPIKey,
			SpeechKey: cfg.OpenAITTSKey,
			ChatModel: cfg.OpenAIChatModel,
			TTSModel:  cfg.OpenAITTSModel,
			TTSVoice:  cfg.OpenAITTSVoice,
		}),
		DefaultMunicipality: cfg.DefaultMunicipality,
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "location-insights",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "location-insights",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, api)

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
