package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tempocal/tempocal/internal/api"
	"github.com/tempocal/tempocal/internal/auth"
	"github.com/tempocal/tempocal/internal/btc"
	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/database"
	"github.com/tempocal/tempocal/internal/entity"
	"github.com/tempocal/tempocal/internal/importer"
	"github.com/tempocal/tempocal/internal/logging"
	"github.com/tempocal/tempocal/internal/metrics"
	"github.com/tempocal/tempocal/internal/models"
	"github.com/tempocal/tempocal/internal/scheduler"
	"github.com/tempocal/tempocal/internal/server"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting tempocal")

	logger.Info("connecting to database")
	db, err := database.Connect(context.Background(), database.Config{
		URL:                cfg.Database.URL,
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Repositories
	venueRepo := database.NewPostgresVenueRepository(db)
	organizerRepo := database.NewPostgresOrganizerRepository(db)
	categoryRepo := database.NewPostgresCategoryRepository(db)
	geoRepo := database.NewPostgresGeoRepository(db)
	eventRepo := database.NewPostgresEventRepository(db)
	resolutionLog := database.NewPostgresResolutionLogRepository(db)

	// Resolution components, shared by API-triggered and scheduled imports
	cache := entity.NewCache()
	appID := cfg.Import.AppID
	venueResolver := entity.NewVenueResolver(cache, venueRepo, geoRepo, appID, cfg.Match, logging.ForComponent(logger, "venues"))
	organizerResolver := entity.NewOrganizerResolver(cache, organizerRepo, resolutionLog, appID, cfg.Match, logging.ForComponent(logger, "organizers"))
	categoryResolver := entity.NewCategoryResolver(cache, categoryRepo, appID, logging.ForComponent(logger, "categories"))

	source := buildSource(cfg, logger)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	newImporter := func(dryRun bool) *importer.Importer {
		importCfg := cfg.Import
		importCfg.DryRun = dryRun
		return importer.New(importer.Options{
			Source:     source,
			Venues:     venueResolver,
			Organizers: organizerResolver,
			Categories: categoryResolver,
			Cache:      cache,
			Events:     eventRepo,
			Collector:  collector,
			Config:     importCfg,
			Logger:     logging.ForComponent(logger, "importer"),
		})
	}

	runImport := func(ctx context.Context, start, end time.Time, dryRun bool) (models.RunResult, error) {
		return newImporter(dryRun).ProcessDateRange(ctx, start, end)
	}

	suggester := entity.NewSuggester(cfg.OpenAI, venueRepo, organizerRepo, appID, logging.ForComponent(logger, "suggestions"))
	if suggester == nil {
		logger.Info("AI match suggestions disabled, no API key configured")
	}

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "")

	mux := http.NewServeMux()
	importHandler := api.NewImportHandler(runImport, cache, suggester, cfg.Assessment, logging.ForComponent(logger, "api"))
	authHandler := api.NewAuthHandler(authConfig, logging.ForComponent(logger, "api"))
	healthHandler := api.NewHealthHandler(db, source, logging.ForComponent(logger, "api"))
	api.SetupRoutes(mux, importHandler, authHandler, healthHandler, collector, authConfig)

	var importScheduler *scheduler.ImportScheduler
	if cfg.Import.Cron != "" {
		importScheduler = scheduler.New(newImporter(cfg.Import.DryRun), cfg.Import.Cron, cfg.Import.Location(), logging.ForComponent(logger, "scheduler"))
		if err := importScheduler.Start(); err != nil {
			logger.Error("failed to start import scheduler", "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("tempocal started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	if importScheduler != nil {
		importScheduler.Stop()
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func buildSource(cfg config.Config, logger *slog.Logger) btc.Source {
	switch cfg.Import.Mode {
	case config.SourceModeICS:
		return btc.NewICSClient(cfg.Import.ICSURL, cfg.Import.Location(), logging.ForComponent(logger, "btc"))
	default:
		return btc.NewAPIClient(cfg.Import.APIURL, logging.ForComponent(logger, "btc"))
	}
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
