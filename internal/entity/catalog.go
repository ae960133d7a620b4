package entity

import (
	"context"
	"time"

	"github.com/tempocal/tempocal/internal/models"
)

// The catalog interfaces are the lookup side of the internal services the
// resolvers consume. Implementations return (nil, nil) for not-found; an
// error means the service itself failed.

// VenueCatalog looks up and provisions venues.
type VenueCatalog interface {
	// FindByName matches on the normalized venue name.
	FindByName(ctx context.Context, appID, name string) (*models.Venue, error)

	// FindByAlias matches any of a venue's recorded aliases.
	FindByAlias(ctx context.Context, appID, alias string) (*models.Venue, error)

	// ListAll returns the full venue catalog for fuzzy matching.
	ListAll(ctx context.Context, appID string) ([]models.Venue, error)

	// CreateProvisional persists a venue synthesized from a geographic
	// fallback, flagged for operator review.
	CreateProvisional(ctx context.Context, venue models.Venue) (*models.Venue, error)

	// Geography returns the region/division/city names for a venue, or nil
	// when the venue has no geographic data.
	Geography(ctx context.Context, venueID string) (*models.VenueGeography, error)
}

// OrganizerCatalog looks up organizers.
type OrganizerCatalog interface {
	// FindByNameOrAlias matches the normalized name against organizer names,
	// short names and aliases.
	FindByNameOrAlias(ctx context.Context, appID, name string) (*models.Organizer, error)

	// ListAll returns the full organizer catalog for fuzzy matching.
	ListAll(ctx context.Context, appID string) ([]models.Organizer, error)
}

// CategoryCatalog looks up categories.
type CategoryCatalog interface {
	FindByName(ctx context.Context, appID, name string) (*models.Category, error)
	ListAll(ctx context.Context, appID string) ([]models.Category, error)
}

// GeoCatalog answers geographic questions for the venue fallback.
type GeoCatalog interface {
	// NearestCity returns the internal city closest to the coordinates.
	NearestCity(ctx context.Context, appID string, lat, lng float64) (*models.GeoPlace, error)

	// ListCities returns all cities, used to scan address text.
	ListCities(ctx context.Context, appID string) ([]models.GeoPlace, error)

	// Ancestry walks a city up the hierarchy and returns its names.
	Ancestry(ctx context.Context, cityID string) (*models.VenueGeography, error)
}

// ResolutionMethod names how a resolution was decided, for the side log.
type ResolutionMethod string

const (
	MethodExact       ResolutionMethod = "exact"
	MethodAlias       ResolutionMethod = "alias"
	MethodFuzzy       ResolutionMethod = "fuzzy"
	MethodGeoFallback ResolutionMethod = "geo_fallback"
	MethodNone        ResolutionMethod = "none"
)

// ResolutionLogEntry is one structured record of a resolution decision,
// appended to a side log for later human review.
type ResolutionLogEntry struct {
	Kind         string           `json:"kind"` // "venue" | "organizer" | "category"
	ExternalName string           `json:"externalName"`
	Matched      bool             `json:"matched"`
	MatchedID    string           `json:"matchedId,omitempty"`
	Method       ResolutionMethod `json:"method"`
	At           time.Time        `json:"at"`
}

// ResolutionLogger appends resolution decisions to a side log. Failures here
// are never fatal to resolution; callers log a warning and move on.
type ResolutionLogger interface {
	Log(ctx context.Context, entry ResolutionLogEntry) error
}
