package entity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/models"
)

// VenueResolver maps external venues to internal venue ids. Matching order:
// cache, exact normalized name, alias, fuzzy name, geographic fallback
// (nearest city from coordinates or address text, synthesizing a provisional
// venue). Only when all of those fail is the name marked unmatched.
type VenueResolver struct {
	cache   *Cache
	catalog VenueCatalog
	geo     GeoCatalog
	appID   string
	match   config.MatchConfig
	logger  *slog.Logger
}

// NewVenueResolver creates a venue resolver.
func NewVenueResolver(cache *Cache, catalog VenueCatalog, geo GeoCatalog, appID string, match config.MatchConfig, logger *slog.Logger) *VenueResolver {
	return &VenueResolver{
		cache:   cache,
		catalog: catalog,
		geo:     geo,
		appID:   appID,
		match:   match,
		logger:  logger,
	}
}

// ResolveVenue resolves the venue fields of one external event. Returns the
// internal venue id, or ok=false when nothing matched and no geographic
// fallback succeeded.
func (r *VenueResolver) ResolveVenue(ctx context.Context, name, address string, lat, lng *float64) (string, bool) {
	norm := NormalizeName(name)
	if norm == "" {
		return "", false
	}

	if id, ok := r.cache.Venue(norm); ok {
		return id, true
	}
	if r.cache.VenueUnmatched(norm) {
		r.cache.MarkUnmatchedVenue(norm)
		return "", false
	}

	venue, method, err := r.lookup(ctx, norm)
	if err != nil {
		r.logger.Warn("venue lookup failed", "name", name, "error", err)
		r.cache.MarkUnmatchedVenue(norm)
		return "", false
	}

	if venue == nil {
		venue, err = r.geoFallback(ctx, name, address, lat, lng)
		if err != nil {
			r.logger.Warn("venue geographic fallback failed", "name", name, "error", err)
		}
		method = MethodGeoFallback
	}

	if venue == nil {
		r.cache.MarkUnmatchedVenue(norm)
		r.logger.Debug("venue unmatched", "name", name, "address", address)
		return "", false
	}

	r.cache.SetVenue(norm, venue.ID)
	r.logger.Debug("venue resolved", "name", name, "venue_id", venue.ID, "method", string(method))
	return venue.ID, true
}

// lookup runs the name-based match ladder: exact, alias, fuzzy.
func (r *VenueResolver) lookup(ctx context.Context, norm string) (*models.Venue, ResolutionMethod, error) {
	venue, err := r.catalog.FindByName(ctx, r.appID, norm)
	if err != nil {
		return nil, MethodNone, err
	}
	if venue != nil {
		return venue, MethodExact, nil
	}

	venue, err = r.catalog.FindByAlias(ctx, r.appID, norm)
	if err != nil {
		return nil, MethodNone, err
	}
	if venue != nil {
		return venue, MethodAlias, nil
	}

	venue, err = r.fuzzyMatch(ctx, norm)
	if err != nil {
		return nil, MethodNone, err
	}
	if venue != nil {
		return venue, MethodFuzzy, nil
	}

	return nil, MethodNone, nil
}

// fuzzyMatch scans the venue catalog for the closest name or alias within
// the configured edit-distance budget.
func (r *VenueResolver) fuzzyMatch(ctx context.Context, norm string) (*models.Venue, error) {
	all, err := r.catalog.ListAll(ctx, r.appID)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(all))
	byID := make(map[string]*models.Venue, len(all))
	for i := range all {
		v := &all[i]
		byID[v.ID] = v
		candidates = append(candidates, candidate{name: NormalizeName(v.Name), id: v.ID})
		for _, a := range v.Aliases {
			candidates = append(candidates, candidate{name: NormalizeName(a), id: v.ID})
		}
	}

	best, ok := bestFuzzyMatch(norm, candidates, r.match.MaxEditDistance, r.match.FuzzyMinLength)
	if !ok {
		return nil, nil
	}
	return byID[best.id], nil
}

// geoFallback finds the nearest internal city from coordinates, or from a
// city name mentioned in the address text, and synthesizes a provisional
// venue there. Returns nil when no city can be determined.
func (r *VenueResolver) geoFallback(ctx context.Context, name, address string, lat, lng *float64) (*models.Venue, error) {
	city, err := r.nearestCity(ctx, address, lat, lng)
	if err != nil || city == nil {
		return nil, err
	}

	venue, err := r.catalog.CreateProvisional(ctx, models.Venue{
		AppID:     r.appID,
		Name:      name,
		Address:   address,
		CityID:    city.ID,
		Latitude:  lat,
		Longitude: lng,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("provisional venue created from geographic fallback",
		"name", name,
		"city", city.Name,
		"venue_id", venue.ID,
	)
	return venue, nil
}

func (r *VenueResolver) nearestCity(ctx context.Context, address string, lat, lng *float64) (*models.GeoPlace, error) {
	if lat != nil && lng != nil {
		return r.geo.NearestCity(ctx, r.appID, *lat, *lng)
	}

	if address == "" {
		return nil, nil
	}

	// No coordinates: scan the address text for a known city name.
	normAddr := NormalizeName(address)
	cities, err := r.geo.ListCities(ctx, r.appID)
	if err != nil {
		return nil, err
	}
	for i := range cities {
		if containsWord(normAddr, NormalizeName(cities[i].Name)) {
			return &cities[i], nil
		}
	}
	return nil, nil
}

// VenueGeography returns the region/division/city names for a resolved venue
// id, or nil when the venue is missing geographic data. Callers attach the
// names to resolved events and tolerate a nil result.
func (r *VenueResolver) VenueGeography(ctx context.Context, venueID string) (*models.VenueGeography, error) {
	return r.catalog.Geography(ctx, venueID)
}

// containsWord reports whether text contains word bounded by spaces.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+word+" ")
}
