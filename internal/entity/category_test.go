package entity

import (
	"context"
	"testing"

	"github.com/tempocal/tempocal/internal/models"
)

func newCategoryFixture() (*CategoryResolver, *MemoryCategoryCatalog, *Cache) {
	cache := NewCache()
	catalog := &MemoryCategoryCatalog{Categories: []models.Category{
		{ID: "cat-1", AppID: "app-1", Name: "Milonga"},
		{ID: "cat-2", AppID: "app-1", Name: "Practica"},
		{ID: "cat-3", AppID: "app-1", Name: "Class"},
	}}
	resolver := NewCategoryResolver(cache, catalog, "app-1", testLogger())
	return resolver, catalog, cache
}

func TestResolveCategoryMappedLabel(t *testing.T) {
	resolver, _, _ := newCategoryFixture()

	// "practilonga" is an external label mapped onto the internal Practica.
	ref := resolver.ResolveCategory(context.Background(), "Practilonga")
	if ref.ID != "cat-2" || ref.FirstLevel != "Practica" {
		t.Errorf("got %+v, want Practica (cat-2)", ref)
	}
}

func TestResolveCategoryDirectName(t *testing.T) {
	resolver, _, _ := newCategoryFixture()

	ref := resolver.ResolveCategory(context.Background(), "Milonga")
	if ref.ID != "cat-1" {
		t.Errorf("got %+v, want cat-1", ref)
	}
}

func TestResolveCategoryUnknownLabel(t *testing.T) {
	resolver, catalog, cache := newCategoryFixture()

	ref := resolver.ResolveCategory(context.Background(), "Interpretive Mime")
	if ref != Uncategorized {
		t.Errorf("got %+v, want Uncategorized", ref)
	}
	if !cache.CategoryUnmatched("interpretive mime") {
		t.Error("unknown label should be recorded unmatched")
	}

	// Repeat lookups never hit the catalog again.
	calls := catalog.FindCalls
	resolver.ResolveCategory(context.Background(), "Interpretive Mime")
	if catalog.FindCalls != calls {
		t.Errorf("FindCalls grew from %d to %d on a memoized miss", calls, catalog.FindCalls)
	}
}

func TestResolveCategoryEmptyLabel(t *testing.T) {
	resolver, _, cache := newCategoryFixture()

	if ref := resolver.ResolveCategory(context.Background(), ""); ref != Uncategorized {
		t.Errorf("got %+v, want Uncategorized", ref)
	}
	if report := cache.UnmatchedReport(); report.UnmatchedCategories != 0 {
		t.Error("empty label should not be recorded as unmatched")
	}
}

func TestLoadAllCategoriesPrimesCache(t *testing.T) {
	resolver, catalog, _ := newCategoryFixture()

	loaded, err := resolver.LoadAllCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded < len(catalog.Categories) {
		t.Errorf("loaded = %d, want at least %d", loaded, len(catalog.Categories))
	}

	// Everything resolvable now comes from the cache.
	calls := catalog.FindCalls
	for _, label := range []string{"Milonga", "Practica", "Practilonga", "Drop In Class"} {
		if ref := resolver.ResolveCategory(context.Background(), label); ref.ID == "" {
			t.Errorf("label %q did not resolve after priming", label)
		}
	}
	if catalog.FindCalls != calls {
		t.Errorf("FindCalls grew from %d to %d after priming", calls, catalog.FindCalls)
	}
}
