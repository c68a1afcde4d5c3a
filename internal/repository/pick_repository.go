package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/models"
)

// PostgresPickRepository implements PickRepository for PostgreSQL
type PostgresPickRepository struct {
	db *database.DB
}

// NewPostgresPickRepository creates a new pick repository
func NewPostgresPickRepository(db *database.DB) PickRepository {
	return &PostgresPickRepository{db: db}
}

// Create inserts a new pick. The unique (user_id, race_id) index backs the
// one-pick-per-race invariant under concurrent submissions.
func (r *PostgresPickRepository) Create(ctx context.Context, pick *models.Pick) error {
	query := `
		INSERT INTO picks (user_id, race_id, driver_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, race_id) DO UPDATE SET driver_id = EXCLUDED.driver_id, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		pick.UserID, pick.RaceID, pick.DriverID,
	).Scan(&pick.ID, &pick.CreatedAt, &pick.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pick: %w", err)
	}

	return nil
}

// GetByUserAndRace retrieves the single pick a user holds for a race
func (r *PostgresPickRepository) GetByUserAndRace(ctx context.Context, userID, raceID int64) (*models.Pick, error) {
	query := `
		SELECT id, user_id, race_id, driver_id, created_at, updated_at
		FROM picks WHERE user_id = $1 AND race_id = $2
	`

	pick := &models.Pick{}
	err := r.db.GetPool().QueryRow(ctx, query, userID, raceID).Scan(
		&pick.ID, &pick.UserID, &pick.RaceID, &pick.DriverID,
		&pick.CreatedAt, &pick.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}

	return pick, nil
}

// ListByUserAndSeason retrieves a user's picks across a full season
func (r *PostgresPickRepository) ListByUserAndSeason(ctx context.Context, userID, seasonID int64) ([]*models.Pick, error) {
	query := `
		SELECT p.id, p.user_id, p.race_id, p.driver_id, p.created_at, p.updated_at
		FROM picks p
		JOIN races ra ON ra.id = p.race_id
		WHERE p.user_id = $1 AND ra.season_id = $2
		ORDER BY ra.round ASC
	`

	return r.queryPicks(ctx, query, userID, seasonID)
}

// ListByRace retrieves every pick made for a race
func (r *PostgresPickRepository) ListByRace(ctx context.Context, raceID int64) ([]*models.Pick, error) {
	query := `
		SELECT id, user_id, race_id, driver_id, created_at, updated_at
		FROM picks WHERE race_id = $1
	`

	return r.queryPicks(ctx, query, raceID)
}

// UpdateDriver changes the chosen driver on an existing pick
func (r *PostgresPickRepository) UpdateDriver(ctx context.Context, id, driverID int64) error {
	query := `UPDATE picks SET driver_id = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.GetPool().Exec(ctx, query, id, driverID)
	if err != nil {
		return fmt.Errorf("failed to update pick driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresPickRepository) queryPicks(ctx context.Context, query string, args ...interface{}) ([]*models.Pick, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	var picks []*models.Pick
	for rows.Next() {
		pick := &models.Pick{}
		err := rows.Scan(
			&pick.ID, &pick.UserID, &pick.RaceID, &pick.DriverID,
			&pick.CreatedAt, &pick.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}

	return picks, rows.Err()
}
