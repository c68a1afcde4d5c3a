package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/grid-picks/internal/datasource"
	"github.com/yourusername/grid-picks/internal/models"
)

// In-memory repository fakes mirroring the Postgres semantics the services
// rely on: guarded status transitions, (user, race) pick upserts and
// (race, driver) result upserts.

type fakeSeasonRepo struct {
	mu      sync.Mutex
	nextID  int64
	seasons map[int64]*models.Season
}

func newFakeSeasonRepo() *fakeSeasonRepo {
	return &fakeSeasonRepo{nextID: 1, seasons: make(map[int64]*models.Season)}
}

func (r *fakeSeasonRepo) Create(_ context.Context, season *models.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	season.ID = r.nextID
	r.nextID++
	r.seasons[season.ID] = season
	return nil
}

func (r *fakeSeasonRepo) GetByID(_ context.Context, id int64) (*models.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	season, ok := r.seasons[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return season, nil
}

func (r *fakeSeasonRepo) GetActive(_ context.Context) (*models.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, season := range r.seasons {
		if season.IsActive {
			return season, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeSeasonRepo) SetActive(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seasons[id]; !ok {
		return models.ErrNotFound
	}
	for _, season := range r.seasons {
		season.IsActive = season.ID == id
	}
	return nil
}

type fakeRaceRepo struct {
	mu     sync.Mutex
	nextID int64
	races  map[int64]*models.Race
}

func newFakeRaceRepo() *fakeRaceRepo {
	return &fakeRaceRepo{nextID: 1, races: make(map[int64]*models.Race)}
}

func (r *fakeRaceRepo) Create(_ context.Context, race *models.Race) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	race.ID = r.nextID
	r.nextID++
	r.races[race.ID] = race
	return nil
}

func (r *fakeRaceRepo) GetByID(_ context.Context, id int64) (*models.Race, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	race, ok := r.races[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return race, nil
}

func (r *fakeRaceRepo) ListBySeason(_ context.Context, seasonID int64) ([]*models.Race, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var races []*models.Race
	for _, race := range r.races {
		if race.SeasonID == seasonID {
			races = append(races, race)
		}
	}
	sort.Slice(races, func(i, j int) bool { return races[i].Round < races[j].Round })
	return races, nil
}

func (r *fakeRaceRepo) AdvanceStatus(_ context.Context, id int64, from, to models.RaceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	race, ok := r.races[id]
	if !ok {
		return models.ErrNotFound
	}
	if !from.CanAdvanceTo(to) {
		return &models.ConflictError{Message: "invalid status transition"}
	}
	if race.Status != from {
		return &models.ConflictError{Message: "unexpected current status"}
	}
	race.Status = to
	return nil
}

type fakeDriverRepo struct {
	mu      sync.Mutex
	nextID  int64
	drivers map[int64]*models.Driver
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{nextID: 1, drivers: make(map[int64]*models.Driver)}
}

func (r *fakeDriverRepo) Create(_ context.Context, driver *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver.ID = r.nextID
	r.nextID++
	r.drivers[driver.ID] = driver
	return nil
}

func (r *fakeDriverRepo) GetByID(_ context.Context, id int64) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return driver, nil
}

func (r *fakeDriverRepo) ListBySeason(_ context.Context, seasonID int64) ([]*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var drivers []*models.Driver
	for _, driver := range r.drivers {
		if driver.SeasonID == seasonID {
			drivers = append(drivers, driver)
		}
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].CarNumber < drivers[j].CarNumber })
	return drivers, nil
}

type fakePickRepo struct {
	mu     sync.Mutex
	nextID int64
	picks  map[int64]*models.Pick
	races  *fakeRaceRepo
}

func newFakePickRepo(races *fakeRaceRepo) *fakePickRepo {
	return &fakePickRepo{nextID: 1, picks: make(map[int64]*models.Pick), races: races}
}

func (r *fakePickRepo) Create(_ context.Context, pick *models.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.picks {
		if existing.UserID == pick.UserID && existing.RaceID == pick.RaceID {
			existing.DriverID = pick.DriverID
			*pick = *existing
			return nil
		}
	}
	pick.ID = r.nextID
	r.nextID++
	stored := *pick
	r.picks[pick.ID] = &stored
	return nil
}

func (r *fakePickRepo) GetByUserAndRace(_ context.Context, userID, raceID int64) (*models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pick := range r.picks {
		if pick.UserID == userID && pick.RaceID == raceID {
			copied := *pick
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakePickRepo) ListByUserAndSeason(ctx context.Context, userID, seasonID int64) ([]*models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var picks []*models.Pick
	for _, pick := range r.picks {
		if pick.UserID != userID {
			continue
		}
		race, ok := r.races.races[pick.RaceID]
		if !ok || race.SeasonID != seasonID {
			continue
		}
		copied := *pick
		picks = append(picks, &copied)
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].RaceID < picks[j].RaceID })
	return picks, nil
}

func (r *fakePickRepo) ListByRace(_ context.Context, raceID int64) ([]*models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var picks []*models.Pick
	for _, pick := range r.picks {
		if pick.RaceID == raceID {
			copied := *pick
			picks = append(picks, &copied)
		}
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].UserID < picks[j].UserID })
	return picks, nil
}

func (r *fakePickRepo) UpdateDriver(_ context.Context, id, driverID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pick, ok := r.picks[id]
	if !ok {
		return models.ErrNotFound
	}
	pick.DriverID = driverID
	return nil
}

func (r *fakePickRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.picks)
}

type resultKey struct {
	raceID   int64
	driverID int64
}

type fakeResultRepo struct {
	mu      sync.Mutex
	nextID  int64
	results map[resultKey]*models.Result
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{nextID: 1, results: make(map[resultKey]*models.Result)}
}

func (r *fakeResultRepo) Upsert(_ context.Context, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := resultKey{raceID: result.RaceID, driverID: result.DriverID}
	if existing, ok := r.results[key]; ok {
		existing.Position = result.Position
		existing.SprintPosition = result.SprintPosition
		existing.Points = result.Points
		existing.SprintPoints = result.SprintPoints
		result.ID = existing.ID
		return nil
	}
	result.ID = r.nextID
	r.nextID++
	stored := *result
	r.results[key] = &stored
	return nil
}

func (r *fakeResultRepo) GetByRaceAndDriver(_ context.Context, raceID, driverID int64) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[resultKey{raceID: raceID, driverID: driverID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *result
	return &copied, nil
}

func (r *fakeResultRepo) ListByRace(_ context.Context, raceID int64) ([]*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var results []*models.Result
	for key, result := range r.results {
		if key.raceID == raceID {
			copied := *result
			results = append(results, &copied)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].DriverID < results[j].DriverID })
	return results, nil
}

func (r *fakeResultRepo) countByRace(raceID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.results {
		if key.raceID == raceID {
			n++
		}
	}
	return n
}

type statsKey struct {
	userID   int64
	seasonID int64
}

type fakeStatsRepo struct {
	mu    sync.Mutex
	stats map[statsKey]*models.UserSeasonStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[statsKey]*models.UserSeasonStats)}
}

func (r *fakeStatsRepo) Upsert(_ context.Context, stats *models.UserSeasonStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *stats
	r.stats[statsKey{userID: stats.UserID, seasonID: stats.SeasonID}] = &copied
	return nil
}

func (r *fakeStatsRepo) GetByUserAndSeason(_ context.Context, userID, seasonID int64) (*models.UserSeasonStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.stats[statsKey{userID: userID, seasonID: seasonID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *stats
	return &copied, nil
}

func (r *fakeStatsRepo) ListBySeason(_ context.Context, seasonID int64) ([]*models.UserSeasonStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*models.UserSeasonStats
	for key, stats := range r.stats {
		if key.seasonID == seasonID {
			copied := *stats
			entries = append(entries, &copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].RacesCompleted != entries[j].RacesCompleted {
			return entries[i].RacesCompleted > entries[j].RacesCompleted
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

// fakeResultsSource returns canned results keyed by race name
type fakeResultsSource struct {
	mu      sync.Mutex
	results map[string][]datasource.DriverResult
	errs    map[string]error
	calls   map[string]int
}

func newFakeResultsSource() *fakeResultsSource {
	return &fakeResultsSource{
		results: make(map[string][]datasource.DriverResult),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (s *fakeResultsSource) Name() string { return "fake" }

func (s *fakeResultsSource) FetchResults(_ context.Context, _ int, raceName, _ string) ([]datasource.DriverResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[raceName]++
	if err, ok := s.errs[raceName]; ok {
		return nil, err
	}
	return s.results[raceName], nil
}

// testEnv wires the services over the in-memory fakes
type testEnv struct {
	seasons *fakeSeasonRepo
	races   *fakeRaceRepo
	drivers *fakeDriverRepo
	picks   *fakePickRepo
	results *fakeResultRepo
	stats   *fakeStatsRepo
	source  *fakeResultsSource

	availability   *AvailabilityService
	pickService    *PickService
	statsService   *StatsService
	reconciliation *ReconciliationService
}

func newTestEnv() *testEnv {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	env := &testEnv{
		seasons: newFakeSeasonRepo(),
		drivers: newFakeDriverRepo(),
		results: newFakeResultRepo(),
		stats:   newFakeStatsRepo(),
		source:  newFakeResultsSource(),
	}
	env.races = newFakeRaceRepo()
	env.picks = newFakePickRepo(env.races)

	env.availability = NewAvailabilityService(env.seasons, env.races, env.drivers, env.picks, log)
	env.pickService = NewPickService(env.seasons, env.races, env.drivers, env.picks, env.availability, log)
	env.statsService = NewStatsService(env.races, env.picks, env.results, env.stats, log)
	env.reconciliation = NewReconciliationService(
		env.seasons, env.races, env.drivers, env.picks, env.results,
		env.statsService, env.source, log, time.Second,
	)

	return env
}

func (env *testEnv) addSeason(year int, active bool) *models.Season {
	season := &models.Season{Year: year, Name: fmt.Sprintf("Formula 1 %d", year), IsActive: active}
	_ = env.seasons.Create(context.Background(), season)
	return season
}

func (env *testEnv) addRace(seasonID int64, round int, name string, quali time.Time, opts func(*models.Race)) *models.Race {
	race := &models.Race{
		SeasonID:    seasonID,
		Round:       round,
		Name:        name,
		CountryCode: "XXX",
		QualiTime:   quali,
		RaceTime:    quali.Add(24 * time.Hour),
		Status:      models.RaceStatusUpcoming,
	}
	if opts != nil {
		opts(race)
	}
	_ = env.races.Create(context.Background(), race)
	return race
}

func (env *testEnv) addDriver(seasonID int64, carNumber int, name string) *models.Driver {
	driver := &models.Driver{SeasonID: seasonID, CarNumber: carNumber, Name: name, Team: "Team " + name}
	_ = env.drivers.Create(context.Background(), driver)
	return driver
}
