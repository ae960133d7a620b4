package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"log/slog"

	"github.com/tempocal/tempocal/internal/importer"
	"github.com/tempocal/tempocal/internal/models"
)

// ImportScheduler runs the import pipeline on a cron schedule. Each firing
// imports the previous calendar day in the configured timezone, which is when
// the external calendar has settled.
type ImportScheduler struct {
	imp      *importer.Importer
	cron     *cron.Cron
	spec     string
	location *time.Location
	logger   *slog.Logger
}

// New creates a scheduler. The spec is a standard five-field cron expression
// evaluated in the given location.
func New(imp *importer.Importer, spec string, location *time.Location, logger *slog.Logger) *ImportScheduler {
	return &ImportScheduler{
		imp:      imp,
		cron:     cron.New(cron.WithLocation(location)),
		spec:     spec,
		location: location,
		logger:   logger,
	}
}

// Start registers the job and begins the schedule.
func (s *ImportScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runOnce)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("import scheduler started", "cron", s.spec, "timezone", s.location.String())
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *ImportScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("import scheduler stopped")
}

func (s *ImportScheduler) runOnce() {
	day := time.Now().In(s.location).AddDate(0, 0, -1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := s.imp.ProcessSingleDayImport(ctx, day)
	if err != nil {
		s.logger.Error("scheduled import failed", "date", models.DayKey(day), "error", err)
		return
	}

	s.logger.Info("scheduled import finished",
		"date", result.Date,
		"created", result.Stats.TTEvents.Created,
		"failed_events", len(result.FailedEvents),
	)
}
