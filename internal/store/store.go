// Package store defines the persistence boundary for imported calendar
// events: the replace-a-day write operations the orchestrator needs, and an
// in-memory implementation for tests and development.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tempocal/tempocal/internal/models"
)

// EventStore is the persistence collaborator for the import pipeline. Both
// write operations accept a day key plus source so re-running a day is safe:
// DeleteForDay removes exactly what a prior import created.
type EventStore interface {
	// DeleteForDay removes every event for the given app/source/day and
	// returns how many were removed.
	DeleteForDay(ctx context.Context, appID, source string, day time.Time) (int, error)

	// CountForDay returns how many events exist for the given
	// app/source/day. Used by dry runs to report what a live run would
	// delete, without deleting.
	CountForDay(ctx context.Context, appID, source string, day time.Time) (int, error)

	// Create persists one resolved event.
	Create(ctx context.Context, event models.ResolvedEvent) error
}

// MemoryEventStore implements EventStore in memory for tests and
// development. The exported counters let tests assert that a dry run never
// reaches the store's write operations.
type MemoryEventStore struct {
	events map[string]models.ResolvedEvent

	DeleteCalls int
	CreateCalls int

	// FailCreateIDs forces Create to error for specific source ids, for
	// partial-failure tests.
	FailCreateIDs map[string]bool
}

// NewMemoryEventStore creates an empty in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events:        make(map[string]models.ResolvedEvent),
		FailCreateIDs: make(map[string]bool),
	}
}

// Seed inserts an event directly, bypassing the counters. For test setup.
func (s *MemoryEventStore) Seed(event models.ResolvedEvent) {
	s.events[event.ID] = event
}

// DeleteForDay removes matching events and returns the count.
func (s *MemoryEventStore) DeleteForDay(ctx context.Context, appID, source string, day time.Time) (int, error) {
	s.DeleteCalls++

	key := models.DayKey(day)
	deleted := 0
	for id, ev := range s.events {
		if ev.AppID == appID && ev.Source == source && models.DayKey(ev.Start) == key {
			delete(s.events, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountForDay counts matching events without mutating anything.
func (s *MemoryEventStore) CountForDay(ctx context.Context, appID, source string, day time.Time) (int, error) {
	key := models.DayKey(day)
	count := 0
	for _, ev := range s.events {
		if ev.AppID == appID && ev.Source == source && models.DayKey(ev.Start) == key {
			count++
		}
	}
	return count, nil
}

// Create persists one event, or fails when configured to.
func (s *MemoryEventStore) Create(ctx context.Context, event models.ResolvedEvent) error {
	s.CreateCalls++

	if s.FailCreateIDs[event.SourceID] {
		return fmt.Errorf("store rejected event %s", event.SourceID)
	}

	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	s.events[event.ID] = event
	return nil
}

// EventsForDay lists stored events for assertions in tests.
func (s *MemoryEventStore) EventsForDay(appID, source string, day time.Time) []models.ResolvedEvent {
	key := models.DayKey(day)
	out := make([]models.ResolvedEvent, 0)
	for _, ev := range s.events {
		if ev.AppID == appID && ev.Source == source && models.DayKey(ev.Start) == key {
			out = append(out, ev)
		}
	}
	return out
}

// Size returns the number of stored events.
func (s *MemoryEventStore) Size() int {
	return len(s.events)
}
