package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/grid-picks/internal/metrics"
	"github.com/yourusername/grid-picks/internal/models"
	"github.com/yourusername/grid-picks/internal/repository"
)

// StatsService maintains derived per-user season totals. Stats are always
// fully recomputed from picks and results, never incremented, so a retried or
// partially applied reconciliation can never leave them drifted from the
// source rows.
type StatsService struct {
	raceRepo   repository.RaceRepository
	pickRepo   repository.PickRepository
	resultRepo repository.ResultRepository
	statsRepo  repository.StatsRepository
	logger     *logrus.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	raceRepo repository.RaceRepository,
	pickRepo repository.PickRepository,
	resultRepo repository.ResultRepository,
	statsRepo repository.StatsRepository,
	logger *logrus.Logger,
) *StatsService {
	return &StatsService{
		raceRepo:   raceRepo,
		pickRepo:   pickRepo,
		resultRepo: resultRepo,
		statsRepo:  statsRepo,
		logger:     logger,
	}
}

// RecomputeUserSeasonStats rebuilds and stores one user's season totals.
// Every completed race the user picked in counts toward races_completed even
// when no result row exists for their driver (a DNF still counts as
// participation).
func (s *StatsService) RecomputeUserSeasonStats(ctx context.Context, userID, seasonID int64) (*models.UserSeasonStats, error) {
	races, err := s.raceRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season races: %w", err)
	}

	racesByID := make(map[int64]*models.Race, len(races))
	for _, race := range races {
		racesByID[race.ID] = race
	}

	picks, err := s.pickRepo.ListByUserAndSeason(ctx, userID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user picks: %w", err)
	}

	stats := &models.UserSeasonStats{UserID: userID, SeasonID: seasonID}
	for _, pick := range picks {
		race, ok := racesByID[pick.RaceID]
		if !ok || !race.IsCompleted() {
			continue
		}
		stats.RacesCompleted++

		result, err := s.resultRepo.GetByRaceAndDriver(ctx, pick.RaceID, pick.DriverID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get result for race %d: %w", pick.RaceID, err)
		}
		stats.TotalPoints += result.TotalPoints()
	}

	if err := s.statsRepo.Upsert(ctx, stats); err != nil {
		return nil, err
	}
	metrics.StatsRecomputationsTotal.Inc()

	return stats, nil
}

// Leaderboard returns a season's stats rows ordered by total points
func (s *StatsService) Leaderboard(ctx context.Context, seasonID int64) ([]*models.UserSeasonStats, error) {
	return s.statsRepo.ListBySeason(ctx, seasonID)
}
