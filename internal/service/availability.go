package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/grid-picks/internal/models"
	"github.com/yourusername/grid-picks/internal/repository"
)

// AvailabilityService computes which drivers a user may still pick. A driver
// is used once the user has picked them in any non-wild-card race of the
// season; wild-card picks never consume a driver. The set is computed fresh
// on every request, never cached.
type AvailabilityService struct {
	seasonRepo repository.SeasonRepository
	raceRepo   repository.RaceRepository
	driverRepo repository.DriverRepository
	pickRepo   repository.PickRepository
	logger     *logrus.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	seasonRepo repository.SeasonRepository,
	raceRepo repository.RaceRepository,
	driverRepo repository.DriverRepository,
	pickRepo repository.PickRepository,
	logger *logrus.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		seasonRepo: seasonRepo,
		raceRepo:   raceRepo,
		driverRepo: driverRepo,
		pickRepo:   pickRepo,
		logger:     logger,
	}
}

// DriverAvailability pairs a season driver with its availability flag
type DriverAvailability struct {
	Driver      *models.Driver `json:"driver"`
	IsAvailable bool           `json:"is_available"`
}

// AvailableDrivers is the full roster with availability plus the used set
type AvailableDrivers struct {
	Drivers       []DriverAvailability `json:"drivers"`
	UsedDriverIDs []int64              `json:"used_driver_ids"`
}

// GetAvailableDrivers returns the active season's roster annotated with
// whether each driver is still available to the user.
func (s *AvailabilityService) GetAvailableDrivers(ctx context.Context, userID int64) (*AvailableDrivers, error) {
	if userID <= 0 {
		return nil, models.NewValidationError("user_id", "must be a positive integer")
	}

	season, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("season", 0)
		}
		return nil, fmt.Errorf("failed to resolve active season: %w", err)
	}

	used, err := s.usedDrivers(ctx, userID, season.ID, 0)
	if err != nil {
		return nil, err
	}

	drivers, err := s.driverRepo.ListBySeason(ctx, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season drivers: %w", err)
	}

	out := &AvailableDrivers{
		Drivers:       make([]DriverAvailability, 0, len(drivers)),
		UsedDriverIDs: make([]int64, 0, len(used)),
	}
	for _, driver := range drivers {
		out.Drivers = append(out.Drivers, DriverAvailability{
			Driver:      driver,
			IsAvailable: !used[driver.ID],
		})
	}
	for id := range used {
		out.UsedDriverIDs = append(out.UsedDriverIDs, id)
	}
	sort.Slice(out.UsedDriverIDs, func(i, j int) bool { return out.UsedDriverIDs[i] < out.UsedDriverIDs[j] })

	return out, nil
}

// usedDrivers computes the user's used-driver set for a season. Picks in
// wild-card races are exempt, and excludeRaceID (when non-zero) drops the
// user's own pick for that race so changing an existing pick is never blocked
// by itself.
func (s *AvailabilityService) usedDrivers(ctx context.Context, userID, seasonID, excludeRaceID int64) (map[int64]bool, error) {
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

	used := make(map[int64]bool)
	for _, pick := range picks {
		race, ok := racesByID[pick.RaceID]
		if !ok || race.IsWildCard {
			continue
		}
		if pick.RaceID == excludeRaceID {
			continue
		}
		used[pick.DriverID] = true
	}

	return used, nil
}
