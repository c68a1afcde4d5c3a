package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/grid-picks/internal/datasource"
	"github.com/yourusername/grid-picks/internal/models"
)

// Round one races Sunday 2026-03-22 15:00 UTC, so it becomes eligible for
// results sync at 20:00 UTC the same day.
var (
	round1Race      = round1Quali.Add(24 * time.Hour)
	afterSettle     = round1Race.Add(6 * time.Hour)
	betweenSessions = round1Quali.Add(2 * time.Hour)
)

func podium() []datasource.DriverResult {
	return []datasource.DriverResult{
		{CarNumber: 1, Position: intPtr(1)},
		{CarNumber: 4, Position: intPtr(2)},
		{CarNumber: 16, Position: intPtr(3)},
	}
}

func seedRoster(env *testEnv, seasonID int64) (*models.Driver, *models.Driver, *models.Driver) {
	verstappen := env.addDriver(seasonID, 1, "Max Verstappen")
	norris := env.addDriver(seasonID, 4, "Lando Norris")
	leclerc := env.addDriver(seasonID, 16, "Charles Leclerc")
	return verstappen, norris, leclerc
}

func TestRun_NoActiveSeason(t *testing.T) {
	env := newTestEnv()

	_, err := env.reconciliation.Run(context.Background(), afterSettle)

	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "season", notFound.Entity)
}

func TestRun_AdvancesRaceOnceFirstSessionStarts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)

	report, err := env.reconciliation.Run(ctx, betweenSessions)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Advanced)
	assert.Empty(t, report.Synced)

	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusInProgress, stored.Status)
}

func TestRun_LeavesFutureRacesUntouched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)

	report, err := env.reconciliation.Run(ctx, round1Quali.Add(-time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Advanced)
	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusUpcoming, stored.Status)
}

func TestRun_SyncsEligibleRace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	verstappen, _, _ := seedRoster(env, season.ID)
	env.source.results["Bahrain Grand Prix"] = podium()

	_ = env.picks.Create(ctx, &models.Pick{UserID: 7, RaceID: race.ID, DriverID: verstappen.ID})

	report, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)

	assert.Equal(t, []int64{race.ID}, report.Synced)
	assert.Empty(t, report.Failed)

	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusCompleted, stored.Status)

	result, err := env.results.GetByRaceAndDriver(ctx, race.ID, verstappen.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Points)

	stats, err := env.stats.GetByUserAndSeason(ctx, 7, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.TotalPoints)
	assert.Equal(t, 1, stats.RacesCompleted)
}

func TestRun_RespectsSettleDelay(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)
	env.source.results["Bahrain Grand Prix"] = podium()

	// one minute before race time plus the settle delay
	report, err := env.reconciliation.Run(ctx, round1Race.Add(5*time.Hour-time.Minute))
	require.NoError(t, err)

	assert.Empty(t, report.Synced)
	assert.Zero(t, env.source.calls["Bahrain Grand Prix"])
	assert.Zero(t, env.results.countByRace(race.ID))
}

func TestRun_IsolatesPerRaceFailures(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	broken := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali.AddDate(0, 0, -14), nil)
	healthy := env.addRace(season.ID, 2, "Saudi Arabian Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)

	env.source.errs["Bahrain Grand Prix"] = errors.New("upstream 503")
	env.source.results["Saudi Arabian Grand Prix"] = podium()

	report, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)

	assert.Equal(t, []int64{broken.ID}, report.Failed)
	assert.Equal(t, []int64{healthy.ID}, report.Synced)

	stored, err := env.races.GetByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.RaceStatusCompleted, stored.Status)
}

func TestRun_UnmappedCarNumberWritesNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)

	// car 99 is not on the season roster
	env.source.results["Bahrain Grand Prix"] = []datasource.DriverResult{
		{CarNumber: 1, Position: intPtr(1)},
		{CarNumber: 99, Position: intPtr(2)},
	}

	report, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)

	assert.Equal(t, []int64{race.ID}, report.Failed)
	assert.Zero(t, env.results.countByRace(race.ID), "no partial results may be stored")

	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.RaceStatusCompleted, stored.Status)
}

func TestRun_RejectsSprintDataOnStandardRace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)

	env.source.results["Bahrain Grand Prix"] = []datasource.DriverResult{
		{CarNumber: 1, Position: intPtr(1), SprintPosition: intPtr(1)},
	}

	report, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)

	assert.Equal(t, []int64{race.ID}, report.Failed)
	assert.Zero(t, env.results.countByRace(race.ID))
}

func TestRun_ScoresSprintWeekend(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	sprintTime := round1Quali.Add(-22 * time.Hour)
	race := env.addRace(season.ID, 1, "Chinese Grand Prix", round1Quali, func(r *models.Race) {
		r.HasSprint = true
		r.SprintTime = &sprintTime
	})
	verstappen, _, _ := seedRoster(env, season.ID)
	env.source.results["Chinese Grand Prix"] = []datasource.DriverResult{
		{CarNumber: 1, Position: intPtr(2), SprintPosition: intPtr(1)},
		{CarNumber: 4, Position: intPtr(1), SprintPosition: intPtr(3)},
	}

	_ = env.picks.Create(ctx, &models.Pick{UserID: 7, RaceID: race.ID, DriverID: verstappen.ID})

	_, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)

	result, err := env.results.GetByRaceAndDriver(ctx, race.ID, verstappen.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, result.Points)
	assert.Equal(t, 8, result.SprintPoints)

	stats, err := env.stats.GetByUserAndSeason(ctx, 7, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 26, stats.TotalPoints)
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	verstappen, _, _ := seedRoster(env, season.ID)
	env.source.results["Bahrain Grand Prix"] = podium()
	_ = env.picks.Create(ctx, &models.Pick{UserID: 7, RaceID: race.ID, DriverID: verstappen.ID})

	first, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)
	require.Equal(t, []int64{race.ID}, first.Synced)

	second, err := env.reconciliation.Run(ctx, afterSettle.Add(time.Hour))
	require.NoError(t, err)

	assert.Empty(t, second.Synced)
	assert.Empty(t, second.Failed)
	assert.Equal(t, 1, env.source.calls["Bahrain Grand Prix"], "completed races are not refetched")

	stats, err := env.stats.GetByUserAndSeason(ctx, 7, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.TotalPoints)
	assert.Equal(t, 1, stats.RacesCompleted)
}

func TestRun_FailedRaceRetriedNextInvocation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)

	env.source.errs["Bahrain Grand Prix"] = errors.New("upstream 503")
	first, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)
	require.Equal(t, []int64{race.ID}, first.Failed)

	delete(env.source.errs, "Bahrain Grand Prix")
	env.source.results["Bahrain Grand Prix"] = podium()

	second, err := env.reconciliation.Run(ctx, afterSettle.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []int64{race.ID}, second.Synced)
	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusCompleted, stored.Status)
}

func TestSubmitManualResults_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.reconciliation.SubmitManualResults(ctx, 0, podium())
	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "race_id", validation.Field)

	err = env.reconciliation.SubmitManualResults(ctx, 1, nil)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "results", validation.Field)

	err = env.reconciliation.SubmitManualResults(ctx, 42, podium())
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "race", notFound.Entity)
}

func TestSubmitManualResults_CompletesRace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	verstappen, _, _ := seedRoster(env, season.ID)
	_ = env.picks.Create(ctx, &models.Pick{UserID: 7, RaceID: race.ID, DriverID: verstappen.ID})

	err := env.reconciliation.SubmitManualResults(ctx, race.ID, podium())
	require.NoError(t, err)

	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusCompleted, stored.Status)

	stats, err := env.stats.GetByUserAndSeason(ctx, 7, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.TotalPoints)
}

func TestSubmitManualResults_CorrectsCompletedRace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, func(r *models.Race) {
		r.Status = models.RaceStatusCompleted
	})
	verstappen, norris, _ := seedRoster(env, season.ID)
	_ = env.picks.Create(ctx, &models.Pick{UserID: 7, RaceID: race.ID, DriverID: verstappen.ID})

	// original classification later overturned by the stewards
	_ = env.results.Upsert(ctx, &models.Result{RaceID: race.ID, DriverID: verstappen.ID, Position: intPtr(1), Points: 25})
	_ = env.results.Upsert(ctx, &models.Result{RaceID: race.ID, DriverID: norris.ID, Position: intPtr(2), Points: 18})

	err := env.reconciliation.SubmitManualResults(ctx, race.ID, []datasource.DriverResult{
		{CarNumber: 1, Position: intPtr(2)},
		{CarNumber: 4, Position: intPtr(1)},
	})
	require.NoError(t, err)

	result, err := env.results.GetByRaceAndDriver(ctx, race.ID, verstappen.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, result.Points)

	stats, err := env.stats.GetByUserAndSeason(ctx, 7, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, stats.TotalPoints)
}

func TestSubmitManualResults_UnmappedCarNumber(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)

	err := env.reconciliation.SubmitManualResults(ctx, race.ID, []datasource.DriverResult{
		{CarNumber: 99, Position: intPtr(1)},
	})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Zero(t, env.results.countByRace(race.ID))

	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusUpcoming, stored.Status)
}

func TestRun_AdvancesAndSyncsInOneInvocation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	season := env.addSeason(2026, true)
	race := env.addRace(season.ID, 1, "Bahrain Grand Prix", round1Quali, nil)
	seedRoster(env, season.ID)
	env.source.results["Bahrain Grand Prix"] = podium()

	report, err := env.reconciliation.Run(ctx, afterSettle)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Advanced)
	assert.Equal(t, []int64{race.ID}, report.Synced)

	stored, err := env.races.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusCompleted, stored.Status)
}
