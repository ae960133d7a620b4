package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tempocal/tempocal/internal/models"
	"github.com/tempocal/tempocal/internal/store"
)

var _ store.EventStore = (*PostgresEventRepository)(nil)

// PostgresEventRepository implements store.EventStore using PostgreSQL. Day
// boundaries are taken in the day argument's location, so the importer's
// configured timezone decides which events belong to a calendar date.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// DeleteForDay removes every event a source owns for one calendar day and
// returns the number removed.
func (r *PostgresEventRepository) DeleteForDay(ctx context.Context, appID, source string, day time.Time) (int, error) {
	start, end := dayBounds(day)

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM events
		WHERE app_id = $1 AND source = $2 AND start_at >= $3 AND start_at < $4
	`, appID, source, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}
	return int(affected), nil
}

// CountForDay counts the events a source owns for one calendar day without
// touching them.
func (r *PostgresEventRepository) CountForDay(ctx context.Context, appID, source string, day time.Time) (int, error) {
	start, end := dayBounds(day)

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE app_id = $1 AND source = $2 AND start_at >= $3 AND start_at < $4
	`, appID, source, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Create inserts one resolved event.
func (r *PostgresEventRepository) Create(ctx context.Context, event models.ResolvedEvent) error {
	query := `
		INSERT INTO events (
			id, app_id, source, source_id, title, description, start_at, end_at,
			owner_organizer_id, owner_organizer_name, venue_id, venue_name,
			category_id, category_first_level, region_name, division_name, city_name,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.AppID,
		event.Source,
		event.SourceID,
		event.Title,
		event.Description,
		event.Start,
		event.End,
		event.OwnerOrganizerID,
		event.OwnerOrganizerName,
		event.VenueID,
		event.VenueName,
		nullString(event.CategoryID),
		event.CategoryFirstLevel,
		nullString(event.RegionName),
		nullString(event.DivisionName),
		nullString(event.CityName),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}
