package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tempocal/tempocal/internal/models"
)

// PostgresGeoRepository implements entity.GeoCatalog using PostgreSQL. Levels
// are stored as their lowercase names and parsed back through
// models.ParseGeoLevel on the way out.
type PostgresGeoRepository struct {
	db *sql.DB
}

// NewPostgresGeoRepository creates a new PostgreSQL geography repository.
func NewPostgresGeoRepository(db *sql.DB) *PostgresGeoRepository {
	return &PostgresGeoRepository{db: db}
}

// NearestCity returns the city closest to the coordinates by planar distance.
// Good enough at metro scale, where the fallback operates.
func (r *PostgresGeoRepository) NearestCity(ctx context.Context, appID string, lat, lng float64) (*models.GeoPlace, error) {
	query := `
		SELECT id, app_id, level, name, parent_id, latitude, longitude
		FROM geo_places
		WHERE app_id = $1 AND level = 'city' AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY (latitude - $2) * (latitude - $2) + (longitude - $3) * (longitude - $3)
		LIMIT 1
	`

	place, err := scanGeoPlace(r.db.QueryRowContext(ctx, query, appID, lat, lng))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest city: %w", err)
	}
	return place, nil
}

// ListCities returns all cities for address-text scanning.
func (r *PostgresGeoRepository) ListCities(ctx context.Context, appID string) ([]models.GeoPlace, error) {
	query := `
		SELECT id, app_id, level, name, parent_id, latitude, longitude
		FROM geo_places
		WHERE app_id = $1 AND level = 'city'
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var cities []models.GeoPlace
	for rows.Next() {
		place, err := scanGeoPlace(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, *place)
	}
	return cities, rows.Err()
}

// Ancestry walks a city up the hierarchy and returns its names.
func (r *PostgresGeoRepository) Ancestry(ctx context.Context, cityID string) (*models.VenueGeography, error) {
	query := `
		SELECT city.name, division.name, region.name
		FROM geo_places city
		LEFT JOIN geo_places division ON division.id = city.parent_id
		LEFT JOIN geo_places region ON region.id = division.parent_id
		WHERE city.id = $1
	`

	var cityName string
	var divisionName, regionName sql.NullString
	err := r.db.QueryRowContext(ctx, query, cityID).Scan(&cityName, &divisionName, &regionName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load city ancestry: %w", err)
	}

	return &models.VenueGeography{
		RegionName:   regionName.String,
		DivisionName: divisionName.String,
		CityName:     cityName,
	}, nil
}

func scanGeoPlace(s scanner) (*models.GeoPlace, error) {
	var place models.GeoPlace
	var level string
	var parentID sql.NullString
	err := s.Scan(
		&place.ID,
		&place.AppID,
		&level,
		&place.Name,
		&parentID,
		&place.Latitude,
		&place.Longitude,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := models.ParseGeoLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geo level for %s: %w", place.ID, err)
	}
	place.Level = parsed
	place.ParentID = parentID.String
	return &place, nil
}
