package store

import (
	"context"
	"testing"
	"time"

	"github.com/tempocal/tempocal/internal/models"
)

var day = time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)

func stored(id, appID, source string, start time.Time) models.ResolvedEvent {
	return models.ResolvedEvent{
		ID:       id,
		AppID:    appID,
		Source:   source,
		SourceID: "src-" + id,
		Title:    "Event " + id,
		Start:    start,
		End:      start.Add(2 * time.Hour),
	}
}

func TestDeleteForDayScopesByAppSourceAndDay(t *testing.T) {
	s := NewMemoryEventStore()
	s.Seed(stored("a", "app-1", models.ImportSourceBTC, day.Add(19*time.Hour)))
	s.Seed(stored("b", "app-1", models.ImportSourceBTC, day.Add(21*time.Hour)))
	s.Seed(stored("c", "app-1", models.ImportSourceBTC, day.AddDate(0, 0, 1)))
	s.Seed(stored("d", "app-2", models.ImportSourceBTC, day.Add(19*time.Hour)))
	s.Seed(stored("e", "app-1", "manual", day.Add(19*time.Hour)))

	deleted, err := s.DeleteForDay(context.Background(), "app-1", models.ImportSourceBTC, day)
	if err != nil {
		t.Fatalf("DeleteForDay returned error: %v", err)
	}

	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	if s.Size() != 3 {
		t.Errorf("expected 3 events remaining, got %d", s.Size())
	}
	if got := len(s.EventsForDay("app-2", models.ImportSourceBTC, day)); got != 1 {
		t.Errorf("expected other tenant untouched, found %d events", got)
	}
	if got := len(s.EventsForDay("app-1", "manual", day)); got != 1 {
		t.Errorf("expected other source untouched, found %d events", got)
	}
}

func TestCountForDayDoesNotMutate(t *testing.T) {
	s := NewMemoryEventStore()
	s.Seed(stored("a", "app-1", models.ImportSourceBTC, day.Add(19*time.Hour)))
	s.Seed(stored("b", "app-1", models.ImportSourceBTC, day.Add(21*time.Hour)))

	count, err := s.CountForDay(context.Background(), "app-1", models.ImportSourceBTC, day)
	if err != nil {
		t.Fatalf("CountForDay returned error: %v", err)
	}

	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	if s.Size() != 2 {
		t.Errorf("expected store unchanged, got %d events", s.Size())
	}
	if s.DeleteCalls != 0 {
		t.Errorf("expected no delete calls, got %d", s.DeleteCalls)
	}
}

func TestCreateStampsTimestamps(t *testing.T) {
	s := NewMemoryEventStore()

	before := time.Now()
	if err := s.Create(context.Background(), stored("a", "app-1", models.ImportSourceBTC, day.Add(19*time.Hour))); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	events := s.EventsForDay("app-1", models.ImportSourceBTC, day)
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	if events[0].CreatedAt.Before(before) {
		t.Errorf("expected CreatedAt stamped at write time, got %v", events[0].CreatedAt)
	}
	if !events[0].UpdatedAt.Equal(events[0].CreatedAt) {
		t.Error("expected UpdatedAt to match CreatedAt on create")
	}
	if s.CreateCalls != 1 {
		t.Errorf("expected 1 create call, got %d", s.CreateCalls)
	}
}

func TestCreateFailsForConfiguredIDs(t *testing.T) {
	s := NewMemoryEventStore()
	s.FailCreateIDs["src-b"] = true

	if err := s.Create(context.Background(), stored("a", "app-1", models.ImportSourceBTC, day.Add(19*time.Hour))); err != nil {
		t.Fatalf("unexpected error for unblocked event: %v", err)
	}
	if err := s.Create(context.Background(), stored("b", "app-1", models.ImportSourceBTC, day.Add(20*time.Hour))); err == nil {
		t.Fatal("expected error for blocked event")
	}

	if s.Size() != 1 {
		t.Errorf("expected only the unblocked event stored, got %d", s.Size())
	}
	if s.CreateCalls != 2 {
		t.Errorf("expected both attempts counted, got %d", s.CreateCalls)
	}
}

func TestSeedBypassesCounters(t *testing.T) {
	s := NewMemoryEventStore()
	s.Seed(stored("a", "app-1", models.ImportSourceBTC, day.Add(19*time.Hour)))

	if s.CreateCalls != 0 {
		t.Errorf("expected seed to skip counters, got %d create calls", s.CreateCalls)
	}
	if s.Size() != 1 {
		t.Errorf("expected 1 stored event, got %d", s.Size())
	}
}
