package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/grid-picks/internal/metrics"
	"github.com/yourusername/grid-picks/internal/models"
	"github.com/yourusername/grid-picks/internal/pickwindow"
	"github.com/yourusername/grid-picks/internal/repository"
)

// PickService orchestrates pick submission: window check, availability check
// and an idempotent create-or-update of the user's single pick per race.
type PickService struct {
	seasonRepo   repository.SeasonRepository
	raceRepo     repository.RaceRepository
	driverRepo   repository.DriverRepository
	pickRepo     repository.PickRepository
	availability *AvailabilityService
	logger       *logrus.Logger
}

// NewPickService creates a new pick service
func NewPickService(
	seasonRepo repository.SeasonRepository,
	raceRepo repository.RaceRepository,
	driverRepo repository.DriverRepository,
	pickRepo repository.PickRepository,
	availability *AvailabilityService,
	logger *logrus.Logger,
) *PickService {
	return &PickService{
		seasonRepo:   seasonRepo,
		raceRepo:     raceRepo,
		driverRepo:   driverRepo,
		pickRepo:     pickRepo,
		availability: availability,
		logger:       logger,
	}
}

// SubmittedPick is the pick row plus the resolved driver and race for caller
// convenience.
type SubmittedPick struct {
	Pick   *models.Pick   `json:"pick"`
	Driver *models.Driver `json:"driver"`
	Race   *models.Race   `json:"race"`
}

// ComputePickWindow returns the pick window for a race at the given instant
func (s *PickService) ComputePickWindow(race *models.Race, now time.Time) pickwindow.Window {
	return pickwindow.Compute(race, now)
}

// SubmitPick validates and stores a user's driver pick for a race. Validation
// fully precedes the single write; resubmitting the same pick is a no-op.
func (s *PickService) SubmitPick(ctx context.Context, userID, raceID, driverID int64, now time.Time) (*SubmittedPick, error) {
	submitted, err := s.submitPick(ctx, userID, raceID, driverID, now)
	if err != nil {
		metrics.PickRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	metrics.PicksSubmittedTotal.Inc()
	return submitted, nil
}

func (s *PickService) submitPick(ctx context.Context, userID, raceID, driverID int64, now time.Time) (*SubmittedPick, error) {
	if userID <= 0 {
		return nil, models.NewValidationError("user_id", "must be a positive integer")
	}
	if raceID <= 0 {
		return nil, models.NewValidationError("race_id", "must be a positive integer")
	}
	if driverID <= 0 {
		return nil, models.NewValidationError("driver_id", "must be a positive integer")
	}

	season, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("season", 0)
		}
		return nil, fmt.Errorf("failed to resolve active season: %w", err)
	}

	race, err := s.raceRepo.GetByID(ctx, raceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("race", raceID)
		}
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	if race.SeasonID != season.ID {
		return nil, models.NewValidationError("race_id", "race does not belong to the active season")
	}

	window := pickwindow.Compute(race, now)
	switch window.Status {
	case pickwindow.StatusTooEarly:
		opensAt := window.OpensAt
		return nil, &models.PickWindowClosedError{Reason: models.WindowTooEarly, OpensAt: &opensAt}
	case pickwindow.StatusLocked:
		return nil, &models.PickWindowClosedError{Reason: models.WindowTooLate}
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("driver", driverID)
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver.SeasonID != season.ID {
		return nil, models.NewValidationError("driver_id", "driver does not belong to the active season")
	}

	existing, err := s.pickRepo.GetByUserAndRace(ctx, userID, raceID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing pick: %w", err)
	}

	if !race.IsWildCard {
		used, err := s.availability.usedDrivers(ctx, userID, season.ID, raceID)
		if err != nil {
			return nil, err
		}
		if used[driverID] {
			return nil, &models.DriverUnavailableError{DriverID: driverID}
		}
	}

	if existing != nil {
		if existing.DriverID != driverID {
			if err := s.pickRepo.UpdateDriver(ctx, existing.ID, driverID); err != nil {
				return nil, fmt.Errorf("failed to update pick: %w", err)
			}
			existing.DriverID = driverID
			existing.UpdatedAt = now
		}
		return &SubmittedPick{Pick: existing, Driver: driver, Race: race}, nil
	}

	pick := &models.Pick{UserID: userID, RaceID: raceID, DriverID: driverID}
	if err := s.pickRepo.Create(ctx, pick); err != nil {
		return nil, fmt.Errorf("failed to create pick: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"race_id":   raceID,
		"driver_id": driverID,
	}).Debug("Pick stored")

	return &SubmittedPick{Pick: pick, Driver: driver, Race: race}, nil
}

// rejectionReason maps a submission error onto a metrics label
func rejectionReason(err error) string {
	var notFound *models.NotFoundError
	var validation *models.ValidationError
	var windowClosed *models.PickWindowClosedError
	var unavailable *models.DriverUnavailableError

	switch {
	case errors.As(err, &windowClosed):
		return "window_" + string(windowClosed.Reason)
	case errors.As(err, &unavailable):
		return "driver_unavailable"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &validation):
		return "validation"
	default:
		return "internal"
	}
}
