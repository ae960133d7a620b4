package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tempocal/tempocal/internal/entity"
	"github.com/tempocal/tempocal/internal/models"
)

// PostgresVenueRepository implements entity.VenueCatalog using PostgreSQL.
//
// The normalized_name column and the aliases array hold pre-normalized text,
// written through entity.NormalizeName at insert time, so lookups are plain
// equality instead of per-row normalization.
type PostgresVenueRepository struct {
	db *sql.DB
}

// NewPostgresVenueRepository creates a new PostgreSQL venue repository.
func NewPostgresVenueRepository(db *sql.DB) *PostgresVenueRepository {
	return &PostgresVenueRepository{db: db}
}

const venueColumns = `id, app_id, name, aliases, address, city_id, latitude, longitude, provisional`

// FindByName matches on the normalized venue name.
func (r *PostgresVenueRepository) FindByName(ctx context.Context, appID, name string) (*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE app_id = $1 AND normalized_name = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, appID, name))
}

// FindByAlias matches any of a venue's recorded aliases.
func (r *PostgresVenueRepository) FindByAlias(ctx context.Context, appID, alias string) (*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE app_id = $1 AND $2 = ANY(aliases)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, appID, alias))
}

// ListAll returns the full venue catalog for fuzzy matching.
func (r *PostgresVenueRepository) ListAll(ctx context.Context, appID string) ([]models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE app_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *venue)
	}
	return venues, rows.Err()
}

// CreateProvisional persists a venue synthesized from a geographic fallback.
func (r *PostgresVenueRepository) CreateProvisional(ctx context.Context, venue models.Venue) (*models.Venue, error) {
	venue.ID = uuid.NewString()
	venue.Provisional = true

	query := `
		INSERT INTO venues (
			id, app_id, name, normalized_name, aliases, address, city_id,
			latitude, longitude, provisional, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		venue.ID,
		venue.AppID,
		venue.Name,
		entity.NormalizeName(venue.Name),
		pq.Array(venue.Aliases),
		venue.Address,
		nullString(venue.CityID),
		venue.Latitude,
		venue.Longitude,
		venue.Provisional,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert provisional venue: %w", err)
	}
	return &venue, nil
}

// Geography returns the region/division/city names for a venue by walking the
// geographic hierarchy up from the venue's city. Returns nil when the venue
// has no city.
func (r *PostgresVenueRepository) Geography(ctx context.Context, venueID string) (*models.VenueGeography, error) {
	query := `
		SELECT city.name, division.name, region.name
		FROM venues v
		JOIN geo_places city ON city.id = v.city_id
		LEFT JOIN geo_places division ON division.id = city.parent_id
		LEFT JOIN geo_places region ON region.id = division.parent_id
		WHERE v.id = $1
	`

	var cityName string
	var divisionName, regionName sql.NullString
	err := r.db.QueryRowContext(ctx, query, venueID).Scan(&cityName, &divisionName, &regionName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load venue geography: %w", err)
	}

	return &models.VenueGeography{
		RegionName:   regionName.String,
		DivisionName: divisionName.String,
		CityName:     cityName,
	}, nil
}

func (r *PostgresVenueRepository) scanOne(row *sql.Row) (*models.Venue, error) {
	venue, err := scanVenue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query venue: %w", err)
	}
	return venue, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVenue(s scanner) (*models.Venue, error) {
	var venue models.Venue
	var aliases pq.StringArray
	var address, cityID sql.NullString
	err := s.Scan(
		&venue.ID,
		&venue.AppID,
		&venue.Name,
		&aliases,
		&address,
		&cityID,
		&venue.Latitude,
		&venue.Longitude,
		&venue.Provisional,
	)
	if err != nil {
		return nil, err
	}
	venue.Aliases = aliases
	venue.Address = address.String
	venue.CityID = cityID.String
	return &venue, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
