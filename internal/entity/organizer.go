package entity

import (
	"context"
	"log/slog"
	"time"

	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/models"
)

// OrganizerResolver maps external organizer names to internal organizer ids.
// Every decision is appended to the resolution side log for human review;
// side-log failures are warnings, never resolution failures.
type OrganizerResolver struct {
	cache   *Cache
	catalog OrganizerCatalog
	resLog  ResolutionLogger
	appID   string
	match   config.MatchConfig
	logger  *slog.Logger
}

// NewOrganizerResolver creates an organizer resolver. resLog may be nil to
// disable side logging.
func NewOrganizerResolver(cache *Cache, catalog OrganizerCatalog, resLog ResolutionLogger, appID string, match config.MatchConfig, logger *slog.Logger) *OrganizerResolver {
	return &OrganizerResolver{
		cache:   cache,
		catalog: catalog,
		resLog:  resLog,
		appID:   appID,
		match:   match,
		logger:  logger,
	}
}

// ResolveOrganizer resolves one external organizer name. On failure the name
// is recorded as unmatched and ok is false; the caller flags the event
// invalid, the event is not discarded here.
func (r *OrganizerResolver) ResolveOrganizer(ctx context.Context, name string) (models.OrganizerRef, bool) {
	norm := NormalizeName(name)
	if norm == "" {
		return models.OrganizerRef{}, false
	}

	if ref, ok := r.cache.Organizer(norm); ok {
		return ref, true
	}
	if r.cache.OrganizerUnmatched(norm) {
		r.cache.MarkUnmatchedOrganizer(norm)
		return models.OrganizerRef{}, false
	}

	org, err := r.catalog.FindByNameOrAlias(ctx, r.appID, norm)
	if err != nil {
		r.logger.Warn("organizer lookup failed", "name", name, "error", err)
		r.cache.MarkUnmatchedOrganizer(norm)
		r.logResolution(ctx, name, nil, MethodNone)
		return models.OrganizerRef{}, false
	}

	method := MethodExact
	if org == nil {
		org, err = r.fuzzyMatch(ctx, norm)
		if err != nil {
			r.logger.Warn("organizer fuzzy match failed", "name", name, "error", err)
		}
		method = MethodFuzzy
	}

	if org == nil {
		r.cache.MarkUnmatchedOrganizer(norm)
		r.logResolution(ctx, name, nil, MethodNone)
		r.logger.Debug("organizer unmatched", "name", name)
		return models.OrganizerRef{}, false
	}

	ref := models.OrganizerRef{ID: org.ID, Name: org.Name}
	r.cache.SetOrganizer(norm, ref)
	r.logResolution(ctx, name, org, method)
	return ref, true
}

// fuzzyMatch scans the whole organizer catalog for the closest name or alias
// within the configured edit-distance budget.
func (r *OrganizerResolver) fuzzyMatch(ctx context.Context, norm string) (*models.Organizer, error) {
	all, err := r.catalog.ListAll(ctx, r.appID)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(all))
	byID := make(map[string]*models.Organizer, len(all))
	for i := range all {
		org := &all[i]
		byID[org.ID] = org
		candidates = append(candidates, candidate{name: NormalizeName(org.Name), id: org.ID})
		for _, a := range org.Aliases {
			candidates = append(candidates, candidate{name: NormalizeName(a), id: org.ID})
		}
	}

	best, ok := bestFuzzyMatch(norm, candidates, r.match.MaxEditDistance, r.match.FuzzyMinLength)
	if !ok {
		return nil, nil
	}
	return byID[best.id], nil
}

// logResolution appends one decision to the side log. Never fatal.
func (r *OrganizerResolver) logResolution(ctx context.Context, externalName string, org *models.Organizer, method ResolutionMethod) {
	if r.resLog == nil {
		return
	}

	entry := ResolutionLogEntry{
		Kind:         "organizer",
		ExternalName: externalName,
		Method:       method,
		At:           time.Now().UTC(),
	}
	if org != nil {
		entry.Matched = true
		entry.MatchedID = org.ID
	}

	if err := r.resLog.Log(ctx, entry); err != nil {
		r.logger.Warn("organizer resolution log write failed", "name", externalName, "error", err)
	}
}
