package entity

import (
	"context"
	"log/slog"

	"github.com/tempocal/tempocal/internal/models"
)

// Uncategorized is the sentinel returned when a category label cannot be
// mapped. Events keep flowing with it; a missing category never invalidates
// an event on its own.
var Uncategorized = models.CategoryRef{ID: "", FirstLevel: "Unknown"}

// DefaultCategoryMapping returns the static table from BTC category labels to
// internal category names. Labels are matched on their normalized form.
func DefaultCategoryMapping() map[string]string {
	return map[string]string{
		"milonga":       "Milonga",
		"practica":      "Practica",
		"practilonga":   "Practica",
		"class":         "Class",
		"drop in class": "Class",
		"progressive":   "Class",
		"workshop":      "Workshop",
		"festival":      "Festival",
		"live music":    "Concert",
		"concert":       "Concert",
		"canceled":      "Canceled",
		"virtual":       "Virtual",
	}
}

// CategoryResolver maps external category labels to internal categories via
// the static mapping table, the cache, and the category catalog.
type CategoryResolver struct {
	cache   *Cache
	catalog CategoryCatalog
	appID   string
	mapping map[string]string // normalized external label -> internal name
	logger  *slog.Logger
}

// NewCategoryResolver creates a resolver with the default mapping table.
func NewCategoryResolver(cache *Cache, catalog CategoryCatalog, appID string, logger *slog.Logger) *CategoryResolver {
	mapping := make(map[string]string)
	for label, internal := range DefaultCategoryMapping() {
		mapping[NormalizeName(label)] = internal
	}

	return &CategoryResolver{
		cache:   cache,
		catalog: catalog,
		appID:   appID,
		mapping: mapping,
		logger:  logger,
	}
}

// LoadAllCategories bulk-populates the cache from the internal catalog and
// the mapping table, so per-event resolution rarely touches the network.
// Resolution still works without this; it just pays a lookup per miss.
func (r *CategoryResolver) LoadAllCategories(ctx context.Context) (int, error) {
	categories, err := r.catalog.ListAll(ctx, r.appID)
	if err != nil {
		return 0, err
	}

	byName := make(map[string]models.CategoryRef, len(categories))
	for _, cat := range categories {
		ref := models.CategoryRef{ID: cat.ID, FirstLevel: cat.Name}
		norm := NormalizeName(cat.Name)
		byName[norm] = ref
		r.cache.SetCategory(norm, ref)
	}

	// Prime external labels that map onto an existing internal category.
	loaded := len(categories)
	for label, internal := range r.mapping {
		if ref, ok := byName[NormalizeName(internal)]; ok {
			r.cache.SetCategory(label, ref)
			loaded++
		}
	}

	r.logger.Debug("category cache primed", "categories", len(categories), "mapped_labels", loaded-len(categories))
	return loaded, nil
}

// ResolveCategory maps one external label to an internal category. Unmapped
// labels are recorded as unmatched and resolve to the Uncategorized sentinel.
func (r *CategoryResolver) ResolveCategory(ctx context.Context, label string) models.CategoryRef {
	norm := NormalizeName(label)
	if norm == "" {
		return Uncategorized
	}

	if ref, ok := r.cache.Category(norm); ok {
		return ref
	}
	if r.cache.CategoryUnmatched(norm) {
		r.cache.MarkUnmatchedCategory(norm)
		return Uncategorized
	}

	// The mapping table redirects the lookup name; labels without a mapping
	// are tried against the catalog verbatim.
	lookup := norm
	if internal, ok := r.mapping[norm]; ok {
		lookup = NormalizeName(internal)
	}

	cat, err := r.catalog.FindByName(ctx, r.appID, lookup)
	if err != nil {
		r.logger.Warn("category lookup failed", "label", label, "error", err)
		return Uncategorized
	}
	if cat == nil {
		r.cache.MarkUnmatchedCategory(norm)
		r.logger.Debug("category unmatched", "label", label)
		return Uncategorized
	}

	ref := models.CategoryRef{ID: cat.ID, FirstLevel: cat.Name}
	r.cache.SetCategory(norm, ref)
	return ref
}
