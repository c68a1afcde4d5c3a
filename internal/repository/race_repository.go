package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/models"
)

const errScanRace = "failed to scan race: %w"

const raceColumns = `id, season_id, round, name, country_code, quali_time, sprint_quali_time,
		       race_time, sprint_time, has_sprint, is_wild_card, status, created_at, updated_at`

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db *database.DB
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB) RaceRepository {
	return &PostgresRaceRepository{db: db}
}

// Create inserts a new race
func (r *PostgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	query := `
		INSERT INTO races (season_id, round, name, country_code, quali_time, sprint_quali_time,
		                   race_time, sprint_time, has_sprint, is_wild_card, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		race.SeasonID, race.Round, race.Name, race.CountryCode, race.QualiTime,
		race.SprintQualiTime, race.RaceTime, race.SprintTime, race.HasSprint,
		race.IsWildCard, race.Status,
	).Scan(&race.ID, &race.CreatedAt, &race.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create race: %w", err)
	}

	return nil
}

// GetByID retrieves a race by ID
func (r *PostgresRaceRepository) GetByID(ctx context.Context, id int64) (*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1`

	race := &models.Race{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&race.ID, &race.SeasonID, &race.Round, &race.Name, &race.CountryCode,
		&race.QualiTime, &race.SprintQualiTime, &race.RaceTime, &race.SprintTime,
		&race.HasSprint, &race.IsWildCard, &race.Status, &race.CreatedAt, &race.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	return race, nil
}

// ListBySeason retrieves all races of a season ordered by round
func (r *PostgresRaceRepository) ListBySeason(ctx context.Context, seasonID int64) ([]*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE season_id = $1 ORDER BY round ASC`

	rows, err := r.db.GetPool().Query(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season races: %w", err)
	}
	defer rows.Close()

	var races []*models.Race
	for rows.Next() {
		race := &models.Race{}
		err := rows.Scan(
			&race.ID, &race.SeasonID, &race.Round, &race.Name, &race.CountryCode,
			&race.QualiTime, &race.SprintQualiTime, &race.RaceTime, &race.SprintTime,
			&race.HasSprint, &race.IsWildCard, &race.Status, &race.CreatedAt, &race.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		races = append(races, race)
	}

	return races, rows.Err()
}

// AdvanceStatus moves a race between lifecycle states. The WHERE clause pins
// the expected current state so a stale caller cannot move a race backward.
func (r *PostgresRaceRepository) AdvanceStatus(ctx context.Context, id int64, from, to models.RaceStatus) error {
	if !from.CanAdvanceTo(to) {
		return &models.ConflictError{Message: fmt.Sprintf("race status cannot advance from %s to %s", from, to)}
	}

	query := `UPDATE races SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	tag, err := r.db.GetPool().Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to advance race status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the race is gone or another invocation got there first.
		race, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return &models.ConflictError{Message: fmt.Sprintf("race %d is %s, expected %s", id, race.Status, from)}
	}

	return nil
}
