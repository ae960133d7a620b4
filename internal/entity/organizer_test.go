package entity

import (
	"context"
	"testing"

	"github.com/tempocal/tempocal/internal/models"
)

func newOrganizerFixture() (*OrganizerResolver, *MemoryOrganizerCatalog, *MemoryResolutionLog, *Cache) {
	cache := NewCache()
	catalog := &MemoryOrganizerCatalog{}
	resLog := &MemoryResolutionLog{}
	resolver := NewOrganizerResolver(cache, catalog, resLog, "app-1", testMatchConfig(), testLogger())
	return resolver, catalog, resLog, cache
}

func TestResolveOrganizerExact(t *testing.T) {
	resolver, catalog, resLog, _ := newOrganizerFixture()
	catalog.Organizers = []models.Organizer{
		{ID: "org-1", AppID: "app-1", Name: "Tango Society of Boston"},
	}

	ref, ok := resolver.ResolveOrganizer(context.Background(), "Tango Society of Boston")
	if !ok || ref.ID != "org-1" {
		t.Fatalf("got (%+v, %v), want org-1", ref, ok)
	}

	if len(resLog.Entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(resLog.Entries))
	}
	entry := resLog.Entries[0]
	if entry.Kind != "organizer" || !entry.Matched || entry.Method != MethodExact {
		t.Errorf("log entry = %+v, want matched organizer via exact", entry)
	}
}

func TestResolveOrganizerShortNameAndAlias(t *testing.T) {
	resolver, catalog, _, _ := newOrganizerFixture()
	catalog.Organizers = []models.Organizer{
		{ID: "org-1", AppID: "app-1", Name: "Tango Society of Boston", ShortName: "TSoB", Aliases: []string{"Boston Tango"}},
	}

	if ref, ok := resolver.ResolveOrganizer(context.Background(), "TSoB"); !ok || ref.ID != "org-1" {
		t.Errorf("short name: got (%+v, %v)", ref, ok)
	}
	if ref, ok := resolver.ResolveOrganizer(context.Background(), "Boston Tango"); !ok || ref.ID != "org-1" {
		t.Errorf("alias: got (%+v, %v)", ref, ok)
	}
}

func TestResolveOrganizerFuzzy(t *testing.T) {
	resolver, catalog, resLog, _ := newOrganizerFixture()
	catalog.Organizers = []models.Organizer{
		{ID: "org-1", AppID: "app-1", Name: "Milonga del Mar"},
	}

	ref, ok := resolver.ResolveOrganizer(context.Background(), "Milonga del Mer")
	if !ok || ref.ID != "org-1" {
		t.Fatalf("got (%+v, %v), want org-1", ref, ok)
	}
	if resLog.Entries[0].Method != MethodFuzzy {
		t.Errorf("method = %s, want fuzzy", resLog.Entries[0].Method)
	}
}

func TestResolveOrganizerUnmatchedMemoized(t *testing.T) {
	resolver, catalog, resLog, cache := newOrganizerFixture()

	if _, ok := resolver.ResolveOrganizer(context.Background(), "Ghost Promotions"); ok {
		t.Fatal("expected resolution to fail")
	}
	if !cache.OrganizerUnmatched("ghost promotions") {
		t.Error("failed name should be recorded unmatched")
	}
	if len(resLog.Entries) != 1 || resLog.Entries[0].Matched {
		t.Errorf("expected one unmatched log entry, got %+v", resLog.Entries)
	}

	calls := catalog.FindCalls
	if _, ok := resolver.ResolveOrganizer(context.Background(), "Ghost Promotions"); ok {
		t.Fatal("expected second resolution to fail")
	}
	if catalog.FindCalls != calls {
		t.Errorf("FindCalls grew from %d to %d on a memoized miss", calls, catalog.FindCalls)
	}

	report := cache.UnmatchedReport()
	if report.UnmatchedOrganizers != 1 || report.Organizers[0].Count != 2 {
		t.Errorf("report = %+v, want ghost promotions counted twice", report.Organizers)
	}
}

func TestResolveOrganizerEmptyName(t *testing.T) {
	resolver, _, _, cache := newOrganizerFixture()

	if _, ok := resolver.ResolveOrganizer(context.Background(), "   "); ok {
		t.Error("blank name should not resolve")
	}
	if report := cache.UnmatchedReport(); report.UnmatchedOrganizers != 0 {
		t.Error("blank name should not be recorded as unmatched")
	}
}

func TestResolveOrganizerLogFailureNotFatal(t *testing.T) {
	resolver, catalog, resLog, _ := newOrganizerFixture()
	catalog.Organizers = []models.Organizer{
		{ID: "org-1", AppID: "app-1", Name: "Tango Society of Boston"},
	}
	resLog.Fail = true

	ref, ok := resolver.ResolveOrganizer(context.Background(), "Tango Society of Boston")
	if !ok || ref.ID != "org-1" {
		t.Errorf("side-log failure must not break resolution: got (%+v, %v)", ref, ok)
	}
}
