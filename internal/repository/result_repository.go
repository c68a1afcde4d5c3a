package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/models"
)

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

// Upsert inserts or overwrites the result row for (race, driver). Re-running
// reconciliation must be idempotent, so existing rows are fully replaced.
func (r *PostgresResultRepository) Upsert(ctx context.Context, result *models.Result) error {
	query := `
		INSERT INTO results (race_id, driver_id, position, sprint_position, points, sprint_points)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (race_id, driver_id) DO UPDATE SET
			position = EXCLUDED.position,
			sprint_position = EXCLUDED.sprint_position,
			points = EXCLUDED.points,
			sprint_points = EXCLUDED.sprint_points,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		result.RaceID, result.DriverID, result.Position, result.SprintPosition,
		result.Points, result.SprintPoints,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}

	return nil
}

// GetByRaceAndDriver retrieves the result row for a (race, driver) pair
func (r *PostgresResultRepository) GetByRaceAndDriver(ctx context.Context, raceID, driverID int64) (*models.Result, error) {
	query := `
		SELECT id, race_id, driver_id, position, sprint_position, points, sprint_points, created_at, updated_at
		FROM results WHERE race_id = $1 AND driver_id = $2
	`

	result := &models.Result{}
	err := r.db.GetPool().QueryRow(ctx, query, raceID, driverID).Scan(
		&result.ID, &result.RaceID, &result.DriverID, &result.Position,
		&result.SprintPosition, &result.Points, &result.SprintPoints,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return result, nil
}

// ListByRace retrieves all result rows for a race ordered by finishing position
func (r *PostgresResultRepository) ListByRace(ctx context.Context, raceID int64) ([]*models.Result, error) {
	query := `
		SELECT id, race_id, driver_id, position, sprint_position, points, sprint_points, created_at, updated_at
		FROM results WHERE race_id = $1
		ORDER BY position ASC NULLS LAST
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query race results: %w", err)
	}
	defer rows.Close()

	var results []*models.Result
	for rows.Next() {
		result := &models.Result{}
		err := rows.Scan(
			&result.ID, &result.RaceID, &result.DriverID, &result.Position,
			&result.SprintPosition, &result.Points, &result.SprintPoints,
			&result.CreatedAt, &result.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
