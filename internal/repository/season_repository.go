package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/models"
)

// PostgresSeasonRepository implements SeasonRepository for PostgreSQL
type PostgresSeasonRepository struct {
	db *database.DB
}

// NewPostgresSeasonRepository creates a new season repository
func NewPostgresSeasonRepository(db *database.DB) SeasonRepository {
	return &PostgresSeasonRepository{db: db}
}

// Create inserts a new season
func (r *PostgresSeasonRepository) Create(ctx context.Context, season *models.Season) error {
	query := `
		INSERT INTO seasons (year, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		season.Year, season.Name, season.IsActive,
	).Scan(&season.ID, &season.CreatedAt, &season.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("season year %d: %w", season.Year, models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create season: %w", err)
	}

	return nil
}

// GetByID retrieves a season by ID
func (r *PostgresSeasonRepository) GetByID(ctx context.Context, id int64) (*models.Season, error) {
	query := `
		SELECT id, year, name, is_active, created_at, updated_at
		FROM seasons WHERE id = $1
	`

	season := &models.Season{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&season.ID, &season.Year, &season.Name, &season.IsActive,
		&season.CreatedAt, &season.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}

	return season, nil
}

// GetActive retrieves the single active season
func (r *PostgresSeasonRepository) GetActive(ctx context.Context) (*models.Season, error) {
	query := `
		SELECT id, year, name, is_active, created_at, updated_at
		FROM seasons WHERE is_active = TRUE
	`

	season := &models.Season{}
	err := r.db.GetPool().QueryRow(ctx, query).Scan(
		&season.ID, &season.Year, &season.Name, &season.IsActive,
		&season.CreatedAt, &season.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active season: %w", err)
	}

	return season, nil
}

// SetActive marks the given season active and deactivates all others
func (r *PostgresSeasonRepository) SetActive(ctx context.Context, id int64) error {
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE seasons SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`); err != nil {
		return fmt.Errorf("failed to deactivate seasons: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE seasons SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to activate season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return tx.Commit(ctx)
}
