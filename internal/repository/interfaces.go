package repository

import (
	"context"

	"github.com/yourusername/grid-picks/internal/models"
)

// SeasonRepository defines operations for season entities
type SeasonRepository interface {
	Create(ctx context.Context, season *models.Season) error
	GetByID(ctx context.Context, id int64) (*models.Season, error)
	GetActive(ctx context.Context) (*models.Season, error)
	SetActive(ctx context.Context, id int64) error
}

// RaceRepository defines operations for race entities
type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	GetByID(ctx context.Context, id int64) (*models.Race, error)
	ListBySeason(ctx context.Context, seasonID int64) ([]*models.Race, error)
	// AdvanceStatus moves a race from one lifecycle state to another. The
	// update is guarded on the current state so transitions stay monotonic
	// under concurrent invocations.
	AdvanceStatus(ctx context.Context, id int64, from, to models.RaceStatus) error
}

// DriverRepository defines operations for driver entities
type DriverRepository interface {
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	ListBySeason(ctx context.Context, seasonID int64) ([]*models.Driver, error)
}

// PickRepository defines operations for pick entities
type PickRepository interface {
	Create(ctx context.Context, pick *models.Pick) error
	GetByUserAndRace(ctx context.Context, userID, raceID int64) (*models.Pick, error)
	ListByUserAndSeason(ctx context.Context, userID, seasonID int64) ([]*models.Pick, error)
	ListByRace(ctx context.Context, raceID int64) ([]*models.Pick, error)
	UpdateDriver(ctx context.Context, id, driverID int64) error
}

// ResultRepository defines operations for result entities
type ResultRepository interface {
	Upsert(ctx context.Context, result *models.Result) error
	GetByRaceAndDriver(ctx context.Context, raceID, driverID int64) (*models.Result, error)
	ListByRace(ctx context.Context, raceID int64) ([]*models.Result, error)
}

// StatsRepository defines operations for derived user season stats
type StatsRepository interface {
	Upsert(ctx context.Context, stats *models.UserSeasonStats) error
	GetByUserAndSeason(ctx context.Context, userID, seasonID int64) (*models.UserSeasonStats, error)
	ListBySeason(ctx context.Context, seasonID int64) ([]*models.UserSeasonStats, error)
}
