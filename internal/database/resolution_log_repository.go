package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tempocal/tempocal/internal/entity"
)

// PostgresResolutionLogRepository implements entity.ResolutionLogger using
// PostgreSQL. The table is append-only; operators query it to review how
// external names were matched.
type PostgresResolutionLogRepository struct {
	db *sql.DB
}

// NewPostgresResolutionLogRepository creates a new resolution log repository.
func NewPostgresResolutionLogRepository(db *sql.DB) *PostgresResolutionLogRepository {
	return &PostgresResolutionLogRepository{db: db}
}

// Log appends one resolution decision.
func (r *PostgresResolutionLogRepository) Log(ctx context.Context, entry entity.ResolutionLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resolution_log (kind, external_name, matched, matched_id, method, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.Kind,
		entry.ExternalName,
		entry.Matched,
		nullString(entry.MatchedID),
		string(entry.Method),
		entry.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution log entry: %w", err)
	}
	return nil
}
