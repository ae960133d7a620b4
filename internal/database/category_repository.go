package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tempocal/tempocal/internal/models"
)

// PostgresCategoryRepository implements entity.CategoryCatalog using
// PostgreSQL.
type PostgresCategoryRepository struct {
	db *sql.DB
}

// NewPostgresCategoryRepository creates a new PostgreSQL category repository.
func NewPostgresCategoryRepository(db *sql.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

// FindByName matches on the normalized category name.
func (r *PostgresCategoryRepository) FindByName(ctx context.Context, appID, name string) (*models.Category, error) {
	query := `SELECT id, app_id, name FROM categories WHERE app_id = $1 AND normalized_name = $2`

	var cat models.Category
	err := r.db.QueryRowContext(ctx, query, appID, name).Scan(&cat.ID, &cat.AppID, &cat.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// ListAll returns the full category catalog.
func (r *PostgresCategoryRepository) ListAll(ctx context.Context, appID string) ([]models.Category, error) {
	query := `SELECT id, app_id, name FROM categories WHERE app_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.AppID, &cat.Name); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}
