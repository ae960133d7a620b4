package importer

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/tempocal/tempocal/internal/btc"
	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/entity"
	"github.com/tempocal/tempocal/internal/models"
	"github.com/tempocal/tempocal/internal/store"
)

type fakeSource struct {
	events map[string][]models.BTCEvent // day key -> events
	errs   map[string]error             // day key -> forced failure
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) EventsForDay(ctx context.Context, day time.Time) ([]models.BTCEvent, error) {
	key := models.DayKey(day)
	if err := s.errs[key]; err != nil {
		return nil, err
	}
	return s.events[key], nil
}

func (s *fakeSource) HealthCheck(ctx context.Context) error { return nil }

var _ btc.Source = (*fakeSource)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	importer *Importer
	source   *fakeSource
	venues   *entity.MemoryVenueCatalog
	store    *store.MemoryEventStore
	cache    *entity.Cache
}

func newFixture(dryRun bool) *fixture {
	cache := entity.NewCache()
	logger := testLogger()
	match := config.MatchConfig{MaxEditDistance: 2, FuzzyMinLength: 5}

	venues := entity.NewMemoryVenueCatalog()
	venues.Venues = []models.Venue{
		{ID: "venue-1", AppID: "app-1", Name: "The Dance Hall"},
	}
	organizers := &entity.MemoryOrganizerCatalog{Organizers: []models.Organizer{
		{ID: "org-1", AppID: "app-1", Name: "Tango Society"},
	}}
	categories := &entity.MemoryCategoryCatalog{Categories: []models.Category{
		{ID: "cat-1", AppID: "app-1", Name: "Milonga"},
	}}
	geo := entity.NewMemoryGeoCatalog()

	events := store.NewMemoryEventStore()
	source := &fakeSource{
		events: make(map[string][]models.BTCEvent),
		errs:   make(map[string]error),
	}

	imp := New(Options{
		Source:     source,
		Venues:     entity.NewVenueResolver(cache, venues, geo, "app-1", match, logger),
		Organizers: entity.NewOrganizerResolver(cache, organizers, nil, "app-1", match, logger),
		Categories: entity.NewCategoryResolver(cache, categories, "app-1", logger),
		Cache:      cache,
		Events:     events,
		Config:     config.ImportConfig{AppID: "app-1", DryRun: dryRun},
		Logger:     logger,
	})

	return &fixture{importer: imp, source: source, venues: venues, store: events, cache: cache}
}

var day = time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)

func btcEvent(id, title, venue, organizer string) models.BTCEvent {
	return models.BTCEvent{
		ID:            id,
		Title:         title,
		Start:         day.Add(19 * time.Hour),
		End:           day.Add(23 * time.Hour),
		VenueName:     venue,
		OrganizerName: organizer,
		CategoryName:  "Milonga",
	}
}

func seedStored(s *store.MemoryEventStore, n int) {
	for i := 0; i < n; i++ {
		s.Seed(models.ResolvedEvent{
			ID:     fmt.Sprintf("old-%d", i),
			AppID:  "app-1",
			Source: models.ImportSourceBTC,
			Start:  day.Add(18 * time.Hour),
		})
	}
}

func TestProcessSingleDayImportStatistics(t *testing.T) {
	f := newFixture(false)
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
		btcEvent("btc-2", "Ghost Event", "The Dance Hall", "Nobody Anyone Knows"),
	}

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := result.Stats
	if stats.BTCEvents.Total != 2 || stats.BTCEvents.Processed != 2 {
		t.Errorf("btcEvents = %+v, want total 2 processed 2", stats.BTCEvents)
	}
	if stats.EntityResolution.Success != 1 || stats.EntityResolution.Failure != 1 {
		t.Errorf("entityResolution = %+v, want 1/1", stats.EntityResolution)
	}
	if stats.Validation.Valid != 1 || stats.Validation.Invalid != 1 {
		t.Errorf("validation = %+v, want 1/1", stats.Validation)
	}
	if stats.TTEvents.Created != 1 || stats.TTEvents.Deleted != 0 || stats.TTEvents.Failed != 0 {
		t.Errorf("ttEvents = %+v, want created 1", stats.TTEvents)
	}

	if len(result.FailedEvents) != 1 {
		t.Fatalf("expected one failed event, got %d", len(result.FailedEvents))
	}
	failed := result.FailedEvents[0]
	if failed.SourceID != "btc-2" || failed.Stage != models.StageResolution {
		t.Errorf("failed event = %+v, want btc-2 at resolution", failed)
	}
}

func TestProcessSingleDayImportStampsTimestamps(t *testing.T) {
	f := newFixture(false)
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
	}

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.StartedAt.IsZero() {
		t.Error("StartedAt is zero")
	}
	if result.CompletedAt.IsZero() {
		t.Error("CompletedAt is zero")
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Errorf("CompletedAt %v precedes StartedAt %v", result.CompletedAt, result.StartedAt)
	}
}

func TestProcessDateRangeStampsTimestamps(t *testing.T) {
	f := newFixture(false)
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
	}

	run, err := f.importer.ProcessDateRange(context.Background(), day, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.StartedAt.IsZero() || run.CompletedAt.IsZero() {
		t.Errorf("run timestamps = %v / %v, want both set", run.StartedAt, run.CompletedAt)
	}
	if len(run.Days) != 1 || run.Days[0].CompletedAt.IsZero() {
		t.Error("day result is missing its completion timestamp")
	}
}

func TestProcessSingleDayImportReplacesDay(t *testing.T) {
	f := newFixture(false)
	seedStored(f.store, 3)
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
		btcEvent("btc-2", "Late Practica", "The Dance Hall", "Tango Society"),
	}

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stats.TTEvents.Deleted != 3 || result.Stats.TTEvents.Created != 2 {
		t.Errorf("ttEvents = %+v, want deleted 3 created 2", result.Stats.TTEvents)
	}

	remaining := f.store.EventsForDay("app-1", models.ImportSourceBTC, day)
	if len(remaining) != 2 {
		t.Errorf("store holds %d events for the day, want exactly the new 2", len(remaining))
	}
	for _, ev := range remaining {
		if ev.SourceID != "btc-1" && ev.SourceID != "btc-2" {
			t.Errorf("stale event survived the replace: %+v", ev)
		}
	}
}

func TestProcessSingleDayImportDryRun(t *testing.T) {
	f := newFixture(true)
	seedStored(f.store, 2)
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
	}

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Counters show what a live run would have done.
	if result.Stats.TTEvents.Deleted != 2 || result.Stats.TTEvents.Created != 1 {
		t.Errorf("ttEvents = %+v, want deleted 2 created 1", result.Stats.TTEvents)
	}

	// Nothing was written.
	if f.store.DeleteCalls != 0 || f.store.CreateCalls != 0 {
		t.Errorf("store writes = %d deletes, %d creates, want none", f.store.DeleteCalls, f.store.CreateCalls)
	}
	if f.store.Size() != 2 {
		t.Errorf("store size = %d, want untouched 2", f.store.Size())
	}
}

func TestProcessSingleDayImportValidationFailure(t *testing.T) {
	f := newFixture(false)
	bad := btcEvent("btc-1", "Backwards Event", "The Dance Hall", "Tango Society")
	bad.End = bad.Start.Add(-time.Hour)
	f.source.events[models.DayKey(day)] = []models.BTCEvent{bad}

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stats.EntityResolution.Success != 1 {
		t.Errorf("resolution = %+v, want success 1", result.Stats.EntityResolution)
	}
	if result.Stats.Validation.Invalid != 1 || result.Stats.Validation.Valid != 0 {
		t.Errorf("validation = %+v, want invalid 1", result.Stats.Validation)
	}
	if result.Stats.TTEvents.Created != 0 {
		t.Errorf("invalid event was created: %+v", result.Stats.TTEvents)
	}
	if len(result.FailedEvents) != 1 || result.FailedEvents[0].Stage != models.StageValidation {
		t.Errorf("failed events = %+v, want one at validation", result.FailedEvents)
	}
}

func TestProcessSingleDayImportPartialCreateFailure(t *testing.T) {
	f := newFixture(false)
	f.store.FailCreateIDs["btc-2"] = true
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
		btcEvent("btc-2", "Late Practica", "The Dance Hall", "Tango Society"),
	}

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stats.TTEvents.Created != 1 || result.Stats.TTEvents.Failed != 1 {
		t.Errorf("ttEvents = %+v, want created 1 failed 1", result.Stats.TTEvents)
	}
	if len(result.FailedEvents) != 1 || result.FailedEvents[0].Stage != models.StagePersistence {
		t.Errorf("failed events = %+v, want one at persistence", result.FailedEvents)
	}
	if rate := result.Stats.CreationRate(); rate != 0.5 {
		t.Errorf("CreationRate = %v, want 0.5", rate)
	}
}

func TestProcessSingleDayImportFetchError(t *testing.T) {
	f := newFixture(false)
	f.source.errs[models.DayKey(day)] = fmt.Errorf("calendar is down")

	result, err := f.importer.ProcessSingleDayImport(context.Background(), day)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !result.Failed() {
		t.Error("result should record the day as failed")
	}
	if result.Date != models.DayKey(day) {
		t.Errorf("Date = %q, want %q", result.Date, models.DayKey(day))
	}
}

func TestProcessSingleDayImportAttachesGeography(t *testing.T) {
	f := newFixture(false)
	f.venues.Geo["venue-1"] = models.VenueGeography{
		RegionName:   "Northeast",
		DivisionName: "New England",
		CityName:     "Somerville",
	}
	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
	}

	if _, err := f.importer.ProcessSingleDayImport(context.Background(), day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.store.EventsForDay("app-1", models.ImportSourceBTC, day)
	if len(stored) != 1 {
		t.Fatalf("expected one stored event, got %d", len(stored))
	}
	ev := stored[0]
	if ev.RegionName != "Northeast" || ev.DivisionName != "New England" || ev.CityName != "Somerville" {
		t.Errorf("geography on stored event = %q/%q/%q", ev.RegionName, ev.DivisionName, ev.CityName)
	}
	if ev.CategoryID != "cat-1" || ev.CategoryFirstLevel != "Milonga" {
		t.Errorf("category on stored event = %q/%q", ev.CategoryID, ev.CategoryFirstLevel)
	}
}

func TestProcessDateRangeAggregates(t *testing.T) {
	f := newFixture(false)
	day2 := day.AddDate(0, 0, 1)
	day3 := day.AddDate(0, 0, 2)

	f.source.events[models.DayKey(day)] = []models.BTCEvent{
		btcEvent("btc-1", "Friday Milonga", "The Dance Hall", "Tango Society"),
	}
	f.source.errs[models.DayKey(day2)] = fmt.Errorf("calendar hiccup")
	ev3 := btcEvent("btc-3", "Sunday Practica", "The Dance Hall", "Tango Society")
	ev3.Start = day3.Add(14 * time.Hour)
	ev3.End = day3.Add(17 * time.Hour)
	f.source.events[models.DayKey(day3)] = []models.BTCEvent{ev3}

	run, err := f.importer.ProcessDateRange(context.Background(), day, day3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(run.Days) != 3 {
		t.Fatalf("expected 3 day results, got %d", len(run.Days))
	}
	if !run.Days[1].Failed() {
		t.Error("middle day should be recorded as failed")
	}
	if run.Days[2].Stats.TTEvents.Created != 1 {
		t.Error("a failed day must not stop later days")
	}
	if run.Totals.BTCEvents.Total != 2 || run.Totals.TTEvents.Created != 2 {
		t.Errorf("totals = %+v, want 2 fetched, 2 created", run.Totals)
	}
}

func TestProcessDateRangeResetsCache(t *testing.T) {
	f := newFixture(false)
	f.cache.SetVenue("stale name", "venue-stale")

	if _, err := f.importer.ProcessDateRange(context.Background(), day, day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := f.cache.Venue("stale name"); ok {
		t.Error("cache should be reset at the start of a run")
	}
}

func TestProcessDateRangeCancellation(t *testing.T) {
	f := newFixture(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := f.importer.ProcessDateRange(ctx, day, day.AddDate(0, 0, 5))
	if err == nil {
		t.Fatal("expected a context error")
	}
	if len(run.Days) != 0 {
		t.Errorf("expected no days processed after cancellation, got %d", len(run.Days))
	}
}
