package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/grid-picks/internal/datasource"
	"github.com/yourusername/grid-picks/internal/logger"
	"github.com/yourusername/grid-picks/internal/metrics"
	"github.com/yourusername/grid-picks/internal/models"
	"github.com/yourusername/grid-picks/internal/repository"
	"github.com/yourusername/grid-picks/internal/scoring"
)

// resultsSettleDelay is how long after the main race reconciliation waits
// before fetching results; classification data is unstable earlier.
const resultsSettleDelay = 5 * time.Hour

// ReconciliationService advances race lifecycle over time and reconciles
// external results into stored points and stats. Failures are isolated per
// race: a failed race is recorded and retried on the next invocation.
type ReconciliationService struct {
	seasonRepo   repository.SeasonRepository
	raceRepo     repository.RaceRepository
	driverRepo   repository.DriverRepository
	pickRepo     repository.PickRepository
	resultRepo   repository.ResultRepository
	stats        *StatsService
	source       datasource.ResultsSource
	logger       *logger.ReconciliationLogger
	fetchTimeout time.Duration
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	seasonRepo repository.SeasonRepository,
	raceRepo repository.RaceRepository,
	driverRepo repository.DriverRepository,
	pickRepo repository.PickRepository,
	resultRepo repository.ResultRepository,
	stats *StatsService,
	source datasource.ResultsSource,
	baseLogger *logrus.Logger,
	fetchTimeout time.Duration,
) *ReconciliationService {
	if fetchTimeout <= 0 {
		fetchTimeout = 60 * time.Second
	}
	return &ReconciliationService{
		seasonRepo:   seasonRepo,
		raceRepo:     raceRepo,
		driverRepo:   driverRepo,
		pickRepo:     pickRepo,
		resultRepo:   resultRepo,
		stats:        stats,
		source:       source,
		logger:       logger.NewReconciliationLogger(baseLogger),
		fetchTimeout: fetchTimeout,
	}
}

// Report summarizes one reconciliation invocation for operator visibility
type Report struct {
	RunID     uuid.UUID     `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Advanced  int           `json:"advanced"`
	Synced    []int64       `json:"synced"`
	Failed    []int64       `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Run executes one reconciliation invocation against the active season at the
// given reference instant. Pass A advances upcoming races whose first session
// has started; pass B fetches, scores and stores results for races past their
// sync-eligibility instant.
func (s *ReconciliationService) Run(ctx context.Context, now time.Time) (*Report, error) {
	started := time.Now()
	report := &Report{RunID: uuid.New(), StartedAt: now}
	runID := report.RunID.String()

	season, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("season", 0)
		}
		return nil, fmt.Errorf("failed to resolve active season: %w", err)
	}

	races, err := s.raceRepo.ListBySeason(ctx, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season races: %w", err)
	}
	s.logger.LogRunStarted(runID, season.ID, len(races))

	// Pass A: lifecycle advancement
	for _, race := range races {
		if race.Status != models.RaceStatusUpcoming {
			continue
		}
		if now.Before(race.EarliestSessionTime()) {
			continue
		}
		if err := s.raceRepo.AdvanceStatus(ctx, race.ID, models.RaceStatusUpcoming, models.RaceStatusInProgress); err != nil {
			s.logger.LogRaceFailed(runID, race.ID, race.Round, err)
			continue
		}
		race.Status = models.RaceStatusInProgress
		report.Advanced++
		metrics.RacesAdvancedTotal.Inc()
		s.logger.LogStatusAdvanced(runID, race.ID, race.Round,
			string(models.RaceStatusUpcoming), string(models.RaceStatusInProgress))
	}

	// Pass B: results reconciliation. The roster is loaded once, lazily, so
	// invocations with no eligible race cost nothing.
	var roster map[int]*models.Driver
	for _, race := range races {
		if race.Status == models.RaceStatusCompleted {
			continue
		}
		if now.Before(race.RaceTime.Add(resultsSettleDelay)) {
			continue
		}

		if roster == nil {
			roster, err = s.loadRoster(ctx, season.ID)
			if err != nil {
				return report, err
			}
		}

		if err := s.syncRace(ctx, runID, season, race, roster); err != nil {
			report.Failed = append(report.Failed, race.ID)
			metrics.RacesSyncFailedTotal.Inc()
			s.logger.LogRaceFailed(runID, race.ID, race.Round, err)
			continue
		}
		report.Synced = append(report.Synced, race.ID)
		metrics.RacesSyncedTotal.Inc()
	}

	report.Duration = time.Since(started)
	metrics.ReconciliationDuration.Observe(report.Duration.Seconds())
	s.logger.LogRunCompleted(runID, report.Advanced, len(report.Synced), len(report.Failed), report.Duration)

	return report, nil
}

// syncRace fetches, maps and stores one race's results, then completes the
// race and recomputes stats for everyone who picked in it.
func (s *ReconciliationService) syncRace(ctx context.Context, runID string, season *models.Season, race *models.Race, roster map[int]*models.Driver) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	entries, err := s.source.FetchResults(fetchCtx, season.Year, race.Name, race.CountryCode)
	if err != nil {
		return fmt.Errorf("results fetch failed: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("results source returned no entries")
	}

	rows, err := buildResults(race, roster, entries)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := s.resultRepo.Upsert(ctx, row); err != nil {
			return fmt.Errorf("failed to store result: %w", err)
		}
	}

	if err := s.raceRepo.AdvanceStatus(ctx, race.ID, race.Status, models.RaceStatusCompleted); err != nil {
		return err
	}
	race.Status = models.RaceStatusCompleted

	recomputed, err := s.recomputePickers(ctx, race.ID, season.ID)
	if err != nil {
		return err
	}

	s.logger.LogRaceSynced(runID, race.ID, race.Round, len(rows), recomputed)
	return nil
}

// SubmitManualResults is the admin override: it stores operator-provided
// results through the same mapping, scoring and stats path as reconciliation,
// skipping the external fetch. Submitting against an already-completed race
// corrects its results in place.
func (s *ReconciliationService) SubmitManualResults(ctx context.Context, raceID int64, entries []datasource.DriverResult) error {
	if raceID <= 0 {
		return models.NewValidationError("race_id", "must be a positive integer")
	}
	if len(entries) == 0 {
		return models.NewValidationError("results", "at least one result entry is required")
	}

	race, err := s.raceRepo.GetByID(ctx, raceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError("race", raceID)
		}
		return fmt.Errorf("failed to get race: %w", err)
	}

	roster, err := s.loadRoster(ctx, race.SeasonID)
	if err != nil {
		return err
	}

	rows, err := buildResults(race, roster, entries)
	if err != nil {
		return models.NewValidationError("results", err.Error())
	}

	for _, row := range rows {
		if err := s.resultRepo.Upsert(ctx, row); err != nil {
			return fmt.Errorf("failed to store result: %w", err)
		}
	}

	if race.Status != models.RaceStatusCompleted {
		if err := s.raceRepo.AdvanceStatus(ctx, race.ID, race.Status, models.RaceStatusCompleted); err != nil {
			return err
		}
		race.Status = models.RaceStatusCompleted
	}

	if _, err := s.recomputePickers(ctx, race.ID, race.SeasonID); err != nil {
		return err
	}

	return nil
}

// loadRoster builds the car-number index over a season's drivers
func (s *ReconciliationService) loadRoster(ctx context.Context, seasonID int64) (map[int]*models.Driver, error) {
	drivers, err := s.driverRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season drivers: %w", err)
	}

	roster := make(map[int]*models.Driver, len(drivers))
	for _, driver := range drivers {
		roster[driver.CarNumber] = driver
	}
	return roster, nil
}

// recomputePickers rebuilds season stats for every user who picked in a race
func (s *ReconciliationService) recomputePickers(ctx context.Context, raceID, seasonID int64) (int, error) {
	picks, err := s.pickRepo.ListByRace(ctx, raceID)
	if err != nil {
		return 0, fmt.Errorf("failed to list race picks: %w", err)
	}

	for _, pick := range picks {
		if _, err := s.stats.RecomputeUserSeasonStats(ctx, pick.UserID, seasonID); err != nil {
			return 0, fmt.Errorf("failed to recompute stats for user %d: %w", pick.UserID, err)
		}
	}

	return len(picks), nil
}

// buildResults maps source entries onto the season roster and scores them.
// It is all-or-nothing: one unmapped car number, or a sprint position on a
// non-sprint race, fails the whole race so stale third-party data cannot
// partially corrupt stored scores. No writes happen here.
func buildResults(race *models.Race, roster map[int]*models.Driver, entries []datasource.DriverResult) ([]*models.Result, error) {
	rows := make([]*models.Result, 0, len(entries))
	for _, entry := range entries {
		driver, ok := roster[entry.CarNumber]
		if !ok {
			return nil, fmt.Errorf("unmapped car number %d", entry.CarNumber)
		}
		if !race.HasSprint && entry.SprintPosition != nil {
			return nil, fmt.Errorf("sprint position reported for non-sprint race (car %d)", entry.CarNumber)
		}

		rows = append(rows, &models.Result{
			RaceID:         race.ID,
			DriverID:       driver.ID,
			Position:       entry.Position,
			SprintPosition: entry.SprintPosition,
			Points:         scoring.RacePoints(entry.Position),
			SprintPoints:   scoring.SprintPoints(entry.SprintPosition),
		})
	}
	return rows, nil
}
