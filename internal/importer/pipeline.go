package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tempocal/tempocal/internal/btc"
	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/entity"
	"github.com/tempocal/tempocal/internal/metrics"
	"github.com/tempocal/tempocal/internal/models"
	"github.com/tempocal/tempocal/internal/store"
)

// Importer runs the daily import pipeline: fetch external events, resolve
// their entities against the internal catalogs, validate, and replace the
// day's stored events. One importer handles one external source.
type Importer struct {
	source     btc.Source
	venues     *entity.VenueResolver
	organizers *entity.OrganizerResolver
	categories *entity.CategoryResolver
	cache      *entity.Cache
	events     store.EventStore
	collector  *metrics.Collector
	appID      string
	dryRun     bool
	logger     *slog.Logger
}

// Options carries the importer's collaborators. Collector may be nil.
type Options struct {
	Source     btc.Source
	Venues     *entity.VenueResolver
	Organizers *entity.OrganizerResolver
	Categories *entity.CategoryResolver
	Cache      *entity.Cache
	Events     store.EventStore
	Collector  *metrics.Collector
	Config     config.ImportConfig
	Logger     *slog.Logger
}

// New creates an importer from its collaborators.
func New(opts Options) *Importer {
	return &Importer{
		source:     opts.Source,
		venues:     opts.Venues,
		organizers: opts.Organizers,
		categories: opts.Categories,
		cache:      opts.Cache,
		events:     opts.Events,
		collector:  opts.Collector,
		appID:      opts.Config.AppID,
		dryRun:     opts.Config.DryRun,
		logger:     opts.Logger,
	}
}

// DryRun reports whether the importer is in read-only mode.
func (imp *Importer) DryRun() bool { return imp.dryRun }

// ProcessSingleDayImport imports one calendar day. The returned DayResult is
// always populated; the error is non-nil only when the day could not be
// processed at all (fetch or catalog priming failed). Per-event failures are
// recorded in the result, not returned.
func (imp *Importer) ProcessSingleDayImport(ctx context.Context, day time.Time) (result models.DayResult, err error) {
	start := time.Now()
	result = models.DayResult{
		Date:      models.DayKey(day),
		StartedAt: start,
	}
	// Named return so the deferred stamp lands on what the caller gets.
	defer func() {
		result.CompletedAt = time.Now()
		imp.collector.DayImported(time.Since(start))
	}()

	logger := imp.logger.With("date", result.Date, "dry_run", imp.dryRun)
	logger.Info("starting day import")

	if _, err := imp.categories.LoadAllCategories(ctx); err != nil {
		result.Error = fmt.Sprintf("loading categories: %v", err)
		return result, fmt.Errorf("loading categories: %w", err)
	}

	raw, err := imp.source.EventsForDay(ctx, day)
	if err != nil {
		result.Error = fmt.Sprintf("fetching events: %v", err)
		return result, fmt.Errorf("fetching events from %s: %w", imp.source.Name(), err)
	}
	result.Stats.BTCEvents.Total = len(raw)
	imp.collector.EventsFetched(len(raw))

	valid := make([]models.ResolvedEvent, 0, len(raw))
	for i := range raw {
		ev := &raw[i]
		result.Stats.BTCEvents.Processed++

		resolved, failure := imp.resolveEvent(ctx, ev)
		if failure != nil {
			// An unresolved event can never validate, so it counts against
			// both rates.
			result.Stats.EntityResolution.Failure++
			result.Stats.Validation.Invalid++
			result.FailedEvents = append(result.FailedEvents, *failure)
			imp.collector.Resolution(false)
			imp.collector.Validation(false)
			continue
		}
		result.Stats.EntityResolution.Success++
		imp.collector.Resolution(true)

		if err := resolved.Validate(); err != nil {
			result.Stats.Validation.Invalid++
			result.FailedEvents = append(result.FailedEvents, models.FailedEvent{
				SourceID: ev.ID,
				Title:    ev.DisplayName(),
				Stage:    models.StageValidation,
				Reason:   err.Error(),
			})
			imp.collector.Validation(false)
			logger.Warn("event failed validation", "event", ev.DisplayName(), "error", err)
			continue
		}
		result.Stats.Validation.Valid++
		imp.collector.Validation(true)

		valid = append(valid, *resolved)
	}

	if err := imp.replaceDay(ctx, day, valid, &result); err != nil {
		result.Error = fmt.Sprintf("replacing day: %v", err)
		return result, err
	}

	logger.Info("day import finished",
		"fetched", result.Stats.BTCEvents.Total,
		"resolved", result.Stats.EntityResolution.Success,
		"valid", result.Stats.Validation.Valid,
		"created", result.Stats.TTEvents.Created,
		"deleted", result.Stats.TTEvents.Deleted,
		"failed", result.Stats.TTEvents.Failed,
	)
	return result, nil
}

// resolveEvent maps one external event onto the internal schema. An event
// resolves only when both its organizer and venue resolve; the category falls
// back to Uncategorized and never fails the event.
func (imp *Importer) resolveEvent(ctx context.Context, ev *models.BTCEvent) (*models.ResolvedEvent, *models.FailedEvent) {
	org, orgOK := imp.organizers.ResolveOrganizer(ctx, ev.OrganizerName)
	venueID, venueOK := imp.venues.ResolveVenue(ctx, ev.VenueName, ev.VenueAddress, ev.Latitude, ev.Longitude)
	cat := imp.categories.ResolveCategory(ctx, ev.CategoryName)

	if !orgOK || !venueOK {
		reason := resolutionFailureReason(orgOK, venueOK, ev)
		imp.logger.Warn("event entities unresolved", "event", ev.DisplayName(), "reason", reason)
		if !orgOK {
			imp.collector.Unmatched("organizer")
		}
		if !venueOK {
			imp.collector.Unmatched("venue")
		}
		return nil, &models.FailedEvent{
			SourceID: ev.ID,
			Title:    ev.DisplayName(),
			Stage:    models.StageResolution,
			Reason:   reason,
		}
	}

	now := time.Now().UTC()
	resolved := &models.ResolvedEvent{
		ID:          uuid.NewString(),
		AppID:       imp.appID,
		Source:      models.ImportSourceBTC,
		SourceID:    ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Start:       ev.Start,
		End:         ev.End,

		OwnerOrganizerID:   org.ID,
		OwnerOrganizerName: org.Name,
		VenueID:            venueID,
		VenueName:          ev.VenueName,
		CategoryID:         cat.ID,
		CategoryFirstLevel: cat.FirstLevel,

		CreatedAt: now,
		UpdatedAt: now,
	}

	geo, err := imp.venues.VenueGeography(ctx, venueID)
	if err != nil {
		imp.logger.Warn("venue geography lookup failed", "venue_id", venueID, "error", err)
	}
	if geo != nil {
		resolved.RegionName = geo.RegionName
		resolved.DivisionName = geo.DivisionName
		resolved.CityName = geo.CityName
	}

	return resolved, nil
}

func resolutionFailureReason(orgOK, venueOK bool, ev *models.BTCEvent) string {
	switch {
	case !orgOK && !venueOK:
		return fmt.Sprintf("organizer %q and venue %q unresolved", ev.OrganizerName, ev.VenueName)
	case !orgOK:
		return fmt.Sprintf("organizer %q unresolved", ev.OrganizerName)
	default:
		return fmt.Sprintf("venue %q unresolved", ev.VenueName)
	}
}

// replaceDay destructively replaces the day's imported events: delete
// everything this source owns for the day, then create the new set. There is
// no rollback; a partial failure leaves the day partially written and is
// reported through TTEvents.Failed. In dry-run mode nothing is written and
// the counters show what a live run would have done.
func (imp *Importer) replaceDay(ctx context.Context, day time.Time, events []models.ResolvedEvent, result *models.DayResult) error {
	if imp.dryRun {
		existing, err := imp.events.CountForDay(ctx, imp.appID, models.ImportSourceBTC, day)
		if err != nil {
			return fmt.Errorf("counting existing events: %w", err)
		}
		result.Stats.TTEvents.Deleted = existing
		result.Stats.TTEvents.Created = len(events)
		return nil
	}

	deleted, err := imp.events.DeleteForDay(ctx, imp.appID, models.ImportSourceBTC, day)
	if err != nil {
		return fmt.Errorf("deleting existing events: %w", err)
	}
	result.Stats.TTEvents.Deleted = deleted
	imp.collector.StoreOp("deleted", deleted)

	for i := range events {
		if err := imp.events.Create(ctx, events[i]); err != nil {
			result.Stats.TTEvents.Failed++
			result.FailedEvents = append(result.FailedEvents, models.FailedEvent{
				SourceID: events[i].SourceID,
				Title:    events[i].Title,
				Stage:    models.StagePersistence,
				Reason:   err.Error(),
			})
			imp.logger.Error("event create failed", "event", events[i].Title, "error", err)
			continue
		}
		result.Stats.TTEvents.Created++
	}
	imp.collector.StoreOp("created", result.Stats.TTEvents.Created)
	imp.collector.StoreOp("failed", result.Stats.TTEvents.Failed)
	return nil
}

// ProcessDateRange imports every day from start through end inclusive. The
// resolution cache is reset once up front so the whole run shares warm
// lookups. A day that fails is recorded in the run and does not stop later
// days; only context cancellation aborts the run.
func (imp *Importer) ProcessDateRange(ctx context.Context, start, end time.Time) (run models.RunResult, err error) {
	run = models.RunResult{
		DryRun:    imp.dryRun,
		StartedAt: time.Now(),
	}
	defer func() { run.CompletedAt = time.Now() }()

	imp.cache.Reset()

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		dayResult, err := imp.ProcessSingleDayImport(ctx, day)
		run.Days = append(run.Days, dayResult)
		run.Totals.Add(dayResult.Stats)
		if err != nil {
			imp.logger.Error("day import failed", "date", models.DayKey(day), "error", err)
		}
	}

	return run, nil
}
