package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/models"
)

// PostgresStatsRepository implements StatsRepository for PostgreSQL
type PostgresStatsRepository struct {
	db *database.DB
}

// NewPostgresStatsRepository creates a new stats repository
func NewPostgresStatsRepository(db *database.DB) StatsRepository {
	return &PostgresStatsRepository{db: db}
}

// Upsert writes the recomputed stats row for (user, season)
func (r *PostgresStatsRepository) Upsert(ctx context.Context, stats *models.UserSeasonStats) error {
	query := `
		INSERT INTO user_season_stats (user_id, season_id, total_points, races_completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, season_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			races_completed = EXCLUDED.races_completed,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		stats.UserID, stats.SeasonID, stats.TotalPoints, stats.RacesCompleted,
	).Scan(&stats.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user season stats: %w", err)
	}

	return nil
}

// GetByUserAndSeason retrieves the stats row for a (user, season) pair
func (r *PostgresStatsRepository) GetByUserAndSeason(ctx context.Context, userID, seasonID int64) (*models.UserSeasonStats, error) {
	query := `
		SELECT user_id, season_id, total_points, races_completed, updated_at
		FROM user_season_stats WHERE user_id = $1 AND season_id = $2
	`

	stats := &models.UserSeasonStats{}
	err := r.db.GetPool().QueryRow(ctx, query, userID, seasonID).Scan(
		&stats.UserID, &stats.SeasonID, &stats.TotalPoints, &stats.RacesCompleted, &stats.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user season stats: %w", err)
	}

	return stats, nil
}

// ListBySeason retrieves the season leaderboard ordered by total points
func (r *PostgresStatsRepository) ListBySeason(ctx context.Context, seasonID int64) ([]*models.UserSeasonStats, error) {
	query := `
		SELECT user_id, season_id, total_points, races_completed, updated_at
		FROM user_season_stats WHERE season_id = $1
		ORDER BY total_points DESC, races_completed DESC, user_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season stats: %w", err)
	}
	defer rows.Close()

	var entries []*models.UserSeasonStats
	for rows.Next() {
		stats := &models.UserSeasonStats{}
		err := rows.Scan(
			&stats.UserID, &stats.SeasonID, &stats.TotalPoints, &stats.RacesCompleted, &stats.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user season stats: %w", err)
		}
		entries = append(entries, stats)
	}

	return entries, rows.Err()
}
