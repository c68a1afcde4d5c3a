package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/grid-picks/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Season SeasonRepository
	Race   RaceRepository
	Driver DriverRepository
	Pick   PickRepository
	Result ResultRepository
	Stats  StatsRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Season: NewPostgresSeasonRepository(db),
		Race:   NewPostgresRaceRepository(db),
		Driver: NewPostgresDriverRepository(db),
		Pick:   NewPostgresPickRepository(db),
		Result: NewPostgresResultRepository(db),
		Stats:  NewPostgresStatsRepository(db),
	}, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
