package entity

import (
	"context"
	"fmt"
	"math"

	"github.com/tempocal/tempocal/internal/models"
)

// In-memory catalog implementations for testing and development. The
// exported *Calls counters let tests assert how often the resolvers actually
// hit the collaborator.

// MemoryVenueCatalog implements VenueCatalog over a slice.
type MemoryVenueCatalog struct {
	Venues    []models.Venue
	Geo       map[string]models.VenueGeography // venue id -> names
	seq       int
	FindCalls int // FindByName + FindByAlias
	ListCalls int
}

// NewMemoryVenueCatalog creates an empty in-memory venue catalog.
func NewMemoryVenueCatalog() *MemoryVenueCatalog {
	return &MemoryVenueCatalog{Geo: make(map[string]models.VenueGeography)}
}

// FindByName matches on the normalized venue name.
func (m *MemoryVenueCatalog) FindByName(ctx context.Context, appID, name string) (*models.Venue, error) {
	m.FindCalls++
	for i := range m.Venues {
		v := &m.Venues[i]
		if v.AppID == appID && NormalizeName(v.Name) == name {
			return v, nil
		}
	}
	return nil, nil
}

// FindByAlias matches any recorded alias.
func (m *MemoryVenueCatalog) FindByAlias(ctx context.Context, appID, alias string) (*models.Venue, error) {
	m.FindCalls++
	for i := range m.Venues {
		v := &m.Venues[i]
		if v.AppID != appID {
			continue
		}
		for _, a := range v.Aliases {
			if NormalizeName(a) == alias {
				return v, nil
			}
		}
	}
	return nil, nil
}

// ListAll returns every venue for the app.
func (m *MemoryVenueCatalog) ListAll(ctx context.Context, appID string) ([]models.Venue, error) {
	m.ListCalls++
	out := make([]models.Venue, 0, len(m.Venues))
	for _, v := range m.Venues {
		if v.AppID == appID {
			out = append(out, v)
		}
	}
	return out, nil
}

// CreateProvisional stores a synthesized venue and assigns it an id.
func (m *MemoryVenueCatalog) CreateProvisional(ctx context.Context, venue models.Venue) (*models.Venue, error) {
	m.seq++
	venue.ID = fmt.Sprintf("venue-prov-%d", m.seq)
	venue.Provisional = true
	m.Venues = append(m.Venues, venue)
	return &venue, nil
}

// Geography returns recorded names for a venue, nil when absent.
func (m *MemoryVenueCatalog) Geography(ctx context.Context, venueID string) (*models.VenueGeography, error) {
	if g, ok := m.Geo[venueID]; ok {
		return &g, nil
	}
	return nil, nil
}

// MemoryOrganizerCatalog implements OrganizerCatalog over a slice.
type MemoryOrganizerCatalog struct {
	Organizers []models.Organizer
	FindCalls  int
	ListCalls  int
}

// FindByNameOrAlias matches names, short names and aliases.
func (m *MemoryOrganizerCatalog) FindByNameOrAlias(ctx context.Context, appID, name string) (*models.Organizer, error) {
	m.FindCalls++
	for i := range m.Organizers {
		o := &m.Organizers[i]
		if o.AppID != appID {
			continue
		}
		if NormalizeName(o.Name) == name || (o.ShortName != "" && NormalizeName(o.ShortName) == name) {
			return o, nil
		}
		for _, a := range o.Aliases {
			if NormalizeName(a) == name {
				return o, nil
			}
		}
	}
	return nil, nil
}

// ListAll returns every organizer for the app.
func (m *MemoryOrganizerCatalog) ListAll(ctx context.Context, appID string) ([]models.Organizer, error) {
	m.ListCalls++
	out := make([]models.Organizer, 0, len(m.Organizers))
	for _, o := range m.Organizers {
		if o.AppID == appID {
			out = append(out, o)
		}
	}
	return out, nil
}

// MemoryCategoryCatalog implements CategoryCatalog over a slice.
type MemoryCategoryCatalog struct {
	Categories []models.Category
	FindCalls  int
	ListCalls  int
}

// FindByName matches on the normalized category name.
func (m *MemoryCategoryCatalog) FindByName(ctx context.Context, appID, name string) (*models.Category, error) {
	m.FindCalls++
	for i := range m.Categories {
		c := &m.Categories[i]
		if c.AppID == appID && NormalizeName(c.Name) == name {
			return c, nil
		}
	}
	return nil, nil
}

// ListAll returns every category for the app.
func (m *MemoryCategoryCatalog) ListAll(ctx context.Context, appID string) ([]models.Category, error) {
	m.ListCalls++
	out := make([]models.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		if c.AppID == appID {
			out = append(out, c)
		}
	}
	return out, nil
}

// MemoryGeoCatalog implements GeoCatalog over city slices.
type MemoryGeoCatalog struct {
	Cities       []models.GeoPlace
	Ancestries   map[string]models.VenueGeography // city id -> names
	NearestCalls int
}

// NewMemoryGeoCatalog creates an empty in-memory geo catalog.
func NewMemoryGeoCatalog() *MemoryGeoCatalog {
	return &MemoryGeoCatalog{Ancestries: make(map[string]models.VenueGeography)}
}

// NearestCity returns the city with the smallest squared coordinate distance.
func (m *MemoryGeoCatalog) NearestCity(ctx context.Context, appID string, lat, lng float64) (*models.GeoPlace, error) {
	m.NearestCalls++
	var best *models.GeoPlace
	bestDist := math.MaxFloat64
	for i := range m.Cities {
		c := &m.Cities[i]
		if c.AppID != appID || c.Latitude == nil || c.Longitude == nil {
			continue
		}
		d := (*c.Latitude-lat)*(*c.Latitude-lat) + (*c.Longitude-lng)*(*c.Longitude-lng)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, nil
}

// ListCities returns every city for the app.
func (m *MemoryGeoCatalog) ListCities(ctx context.Context, appID string) ([]models.GeoPlace, error) {
	out := make([]models.GeoPlace, 0, len(m.Cities))
	for _, c := range m.Cities {
		if c.AppID == appID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Ancestry returns recorded hierarchy names for a city.
func (m *MemoryGeoCatalog) Ancestry(ctx context.Context, cityID string) (*models.VenueGeography, error) {
	if g, ok := m.Ancestries[cityID]; ok {
		return &g, nil
	}
	return nil, nil
}

// MemoryResolutionLog collects resolution log entries in memory.
type MemoryResolutionLog struct {
	Entries []ResolutionLogEntry
	Fail    bool // force Log to error, for non-fatality tests
}

// Log appends an entry, or fails when configured to.
func (m *MemoryResolutionLog) Log(ctx context.Context, entry ResolutionLogEntry) error {
	if m.Fail {
		return fmt.Errorf("resolution log unavailable")
	}
	m.Entries = append(m.Entries, entry)
	return nil
}
