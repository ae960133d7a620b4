package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tempocal/tempocal/internal/btc"
	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/database"
	"github.com/tempocal/tempocal/internal/entity"
	"github.com/tempocal/tempocal/internal/importer"
	"github.com/tempocal/tempocal/internal/logging"
	"github.com/tempocal/tempocal/internal/models"
	"log/slog"
)

// btc-import runs the calendar import from the command line. With -promote it
// first does a dry run, assesses the statistics against the configured
// thresholds, and commits only on a go verdict.
func main() {
	var (
		dateFlag    = flag.String("date", "", "day to import (YYYY-MM-DD, default yesterday)")
		endFlag     = flag.String("end", "", "last day of the range (YYYY-MM-DD, default same as -date)")
		dryRunFlag  = flag.Bool("dry-run", false, "compute statistics without writing")
		promoteFlag = flag.Bool("promote", false, "dry-run first, commit only if the assessment passes")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	start, end, err := resolveRange(*dateFlag, *endFlag, cfg.Import.Location())
	if err != nil {
		logger.Error("invalid date range", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, database.Config{
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

	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	venueRepo := database.NewPostgresVenueRepository(db)
	organizerRepo := database.NewPostgresOrganizerRepository(db)
	categoryRepo := database.NewPostgresCategoryRepository(db)
	geoRepo := database.NewPostgresGeoRepository(db)
	eventRepo := database.NewPostgresEventRepository(db)
	resolutionLog := database.NewPostgresResolutionLogRepository(db)

	cache := entity.NewCache()
	appID := cfg.Import.AppID
	venueResolver := entity.NewVenueResolver(cache, venueRepo, geoRepo, appID, cfg.Match, logging.ForComponent(logger, "venues"))
	organizerResolver := entity.NewOrganizerResolver(cache, organizerRepo, resolutionLog, appID, cfg.Match, logging.ForComponent(logger, "organizers"))
	categoryResolver := entity.NewCategoryResolver(cache, categoryRepo, appID, logging.ForComponent(logger, "categories"))

	source := buildSource(cfg, logger)

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
			Config:     importCfg,
			Logger:     logging.ForComponent(logger, "importer"),
		})
	}

	dryRun := *dryRunFlag || cfg.Import.DryRun

	if *promoteFlag {
		result, err := newImporter(true).ProcessDateRange(ctx, start, end)
		if err != nil {
			logger.Error("dry run failed", "error", err)
			os.Exit(1)
		}

		assessment := importer.PerformGoNoGoAssessment(result.Totals, cfg.Assessment)
		result.Assessment = &assessment
		printResult(result)

		if !assessment.Go {
			logger.Error("assessment is no-go, not committing")
			os.Exit(2)
		}

		logger.Info("assessment is go, committing")
		dryRun = false
	}

	result, err := newImporter(dryRun).ProcessDateRange(ctx, start, end)
	if err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}

	assessment := importer.PerformGoNoGoAssessment(result.Totals, cfg.Assessment)
	result.Assessment = &assessment
	printResult(result)

	if !assessment.Go {
		os.Exit(2)
	}
}

func resolveRange(dateArg, endArg string, loc *time.Location) (time.Time, time.Time, error) {
	start := time.Now().In(loc).AddDate(0, 0, -1)
	if dateArg != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateArg, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -date: %w", err)
		}
		start = parsed
	}

	end := start
	if endArg != "" {
		parsed, err := time.ParseInLocation("2006-01-02", endArg, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -end: %w", err)
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-end %s is before -date %s", models.DayKey(end), models.DayKey(start))
	}
	return start, end, nil
}

func buildSource(cfg config.Config, logger *slog.Logger) btc.Source {
	switch cfg.Import.Mode {
	case config.SourceModeICS:
		return btc.NewICSClient(cfg.Import.ICSURL, cfg.Import.Location(), logging.ForComponent(logger, "btc"))
	default:
		return btc.NewAPIClient(cfg.Import.APIURL, logging.ForComponent(logger, "btc"))
	}
}

func printResult(result models.RunResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
	}
}
