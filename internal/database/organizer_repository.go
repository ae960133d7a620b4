package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/tempocal/tempocal/internal/models"
)

// PostgresOrganizerRepository implements entity.OrganizerCatalog using
// PostgreSQL. Normalized name columns and aliases follow the same convention
// as the venue repository.
type PostgresOrganizerRepository struct {
	db *sql.DB
}

// NewPostgresOrganizerRepository creates a new PostgreSQL organizer repository.
func NewPostgresOrganizerRepository(db *sql.DB) *PostgresOrganizerRepository {
	return &PostgresOrganizerRepository{db: db}
}

// FindByNameOrAlias matches the normalized name against organizer names,
// short names and aliases.
func (r *PostgresOrganizerRepository) FindByNameOrAlias(ctx context.Context, appID, name string) (*models.Organizer, error) {
	query := `
		SELECT id, app_id, name, short_name, aliases
		FROM organizers
		WHERE app_id = $1
		  AND (normalized_name = $2 OR normalized_short_name = $2 OR $2 = ANY(aliases))
		LIMIT 1
	`

	org, err := scanOrganizer(r.db.QueryRowContext(ctx, query, appID, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query organizer: %w", err)
	}
	return org, nil
}

// ListAll returns the full organizer catalog for fuzzy matching.
func (r *PostgresOrganizerRepository) ListAll(ctx context.Context, appID string) ([]models.Organizer, error) {
	query := `SELECT id, app_id, name, short_name, aliases FROM organizers WHERE app_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizers: %w", err)
	}
	defer rows.Close()

	var organizers []models.Organizer
	for rows.Next() {
		org, err := scanOrganizer(rows)
		if err != nil {
			return nil, err
		}
		organizers = append(organizers, *org)
	}
	return organizers, rows.Err()
}

func scanOrganizer(s scanner) (*models.Organizer, error) {
	var org models.Organizer
	var shortName sql.NullString
	var aliases pq.StringArray
	if err := s.Scan(&org.ID, &org.AppID, &org.Name, &shortName, &aliases); err != nil {
		return nil, err
	}
	org.ShortName = shortName.String
	org.Aliases = aliases
	return &org, nil
}
