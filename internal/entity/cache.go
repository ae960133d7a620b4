// Package entity implements the resolution core of the BTC import pipeline:
// mapping externally-sourced venue, organizer and category names onto the
// internal catalog, with run-scoped memoization and unmatched-name tracking.
package entity

import (
	"sync"

	"github.com/tempocal/tempocal/internal/models"
)

// Cache memoizes name→entity resolutions and records names that failed to
// resolve, so one import run never repeats a remote lookup. It is an explicit
// value injected into the resolvers, not a package singleton: each run (or
// test) owns its own instance.
//
// The internal mutex only protects map integrity so diagnostic reads (the
// unmatched report, suggestions) can happen mid-run. Two concurrent import
// runs sharing one Cache remain unsupported: their unmatched bookkeeping
// would interleave and the report would describe neither run.
type Cache struct {
	mu sync.Mutex

	venues     map[string]string
	organizers map[string]models.OrganizerRef
	categories map[string]models.CategoryRef

	// unmatched maps carry an occurrence count per normalized name.
	unmatchedVenues     map[string]int
	unmatchedOrganizers map[string]int
	unmatchedCategories map[string]int
}

// NewCache returns an empty cache ready for one import run.
func NewCache() *Cache {
	c := &Cache{}
	c.reset()
	return c
}

// Reset clears all six containers atomically. Called between independent
// runs; after a reset every previously cached hit is a fresh miss.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Cache) reset() {
	c.venues = make(map[string]string)
	c.organizers = make(map[string]models.OrganizerRef)
	c.categories = make(map[string]models.CategoryRef)
	c.unmatchedVenues = make(map[string]int)
	c.unmatchedOrganizers = make(map[string]int)
	c.unmatchedCategories = make(map[string]int)
}

// Venue returns the cached venue id for a normalized name.
func (c *Cache) Venue(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.venues[name]
	return id, ok
}

// SetVenue stores a venue resolution. A name that resolves is removed from
// the unmatched set: a hit takes precedence over any earlier miss.
func (c *Cache) SetVenue(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.venues[name] = id
	delete(c.unmatchedVenues, name)
}

// MarkUnmatchedVenue records a venue resolution miss. Ignored when the name
// has since been resolved.
func (c *Cache) MarkUnmatchedVenue(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.venues[name]; ok {
		return
	}
	c.unmatchedVenues[name]++
}

// VenueUnmatched reports whether a name already failed resolution this run.
func (c *Cache) VenueUnmatched(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.unmatchedVenues[name]
	return ok
}

// Organizer returns the cached organizer ref for a normalized name.
func (c *Cache) Organizer(name string) (models.OrganizerRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.organizers[name]
	return ref, ok
}

// SetOrganizer stores an organizer resolution.
func (c *Cache) SetOrganizer(name string, ref models.OrganizerRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.organizers[name] = ref
	delete(c.unmatchedOrganizers, name)
}

// MarkUnmatchedOrganizer records an organizer resolution miss.
func (c *Cache) MarkUnmatchedOrganizer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.organizers[name]; ok {
		return
	}
	c.unmatchedOrganizers[name]++
}

// OrganizerUnmatched reports whether a name already failed resolution.
func (c *Cache) OrganizerUnmatched(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.unmatchedOrganizers[name]
	return ok
}

// Category returns the cached category ref for a normalized name.
func (c *Cache) Category(name string) (models.CategoryRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.categories[name]
	return ref, ok
}

// SetCategory stores a category resolution.
func (c *Cache) SetCategory(name string, ref models.CategoryRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[name] = ref
	delete(c.unmatchedCategories, name)
}

// MarkUnmatchedCategory records a category resolution miss.
func (c *Cache) MarkUnmatchedCategory(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.categories[name]; ok {
		return
	}
	c.unmatchedCategories[name]++
}

// CategoryUnmatched reports whether a name already failed resolution.
func (c *Cache) CategoryUnmatched(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.unmatchedCategories[name]
	return ok
}

// Sizes returns the number of resolved entries per kind, mostly for logging.
func (c *Cache) Sizes() (venues, organizers, categories int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.venues), len(c.organizers), len(c.categories)
}
