package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const openF1SourceName = "openf1"

// Meeting-resolution match weights. Display-name matches outweigh official-name
// matches, which outweigh a bare country-code match.
const (
	meetingNameWeight  = 5
	officialNameWeight = 4
	countryMatchWeight = 1
)

// OpenF1Client implements ResultsSource against the OpenF1 public API
type OpenF1Client struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	meetings   *cache.Cache
	logger     *logrus.Logger
}

// NewOpenF1Client creates a new OpenF1 results client. Meeting lists are
// cached per season year since the calendar rarely changes mid-season.
func NewOpenF1Client(httpClient *RateLimitedHTTPClient, baseURL string, meetingCacheTTL time.Duration, logger *logrus.Logger) *OpenF1Client {
	if baseURL == "" {
		baseURL = "https://api.openf1.org"
	}
	return &OpenF1Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		meetings:   cache.New(meetingCacheTTL, meetingCacheTTL*2),
		logger:     logger,
	}
}

// Name returns the name of the results source
func (c *OpenF1Client) Name() string {
	return openF1SourceName
}

// openF1Meeting represents a Grand Prix weekend from the OpenF1 API
type openF1Meeting struct {
	MeetingKey          int    `json:"meeting_key"`
	MeetingName         string `json:"meeting_name"`
	MeetingOfficialName string `json:"meeting_official_name"`
	CountryCode         string `json:"country_code"`
	Year                int    `json:"year"`
}

// openF1Session represents one session within a meeting
type openF1Session struct {
	SessionKey  int    `json:"session_key"`
	SessionName string `json:"session_name"`
	SessionType string `json:"session_type"`
}

// openF1Position represents one position sample within a session
type openF1Position struct {
	DriverNumber int    `json:"driver_number"`
	Position     int    `json:"position"`
	Date         string `json:"date"`
}

// FetchResults retrieves the final classification for a race by resolving the
// meeting from the race's display name and country code, then taking each
// driver's last known position in the race and sprint sessions.
func (c *OpenF1Client) FetchResults(ctx context.Context, seasonYear int, raceName, countryCode string) ([]DriverResult, error) {
	meetings, err := c.fetchMeetings(ctx, seasonYear)
	if err != nil {
		return nil, err
	}

	meeting := resolveMeeting(meetings, raceName, countryCode)
	if meeting == nil {
		return nil, NewSourceError(openF1SourceName, ErrCodeMeetingNotFound,
			fmt.Sprintf("no meeting matches race %q (%s) in %d", raceName, countryCode, seasonYear), ErrMeetingNotFound)
	}

	var sessions []openF1Session
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/sessions?meeting_key=%d", meeting.MeetingKey), &sessions); err != nil {
		return nil, err
	}

	raceSession, sprintSession := classifySessions(sessions)
	if raceSession == nil {
		return nil, NewSourceError(openF1SourceName, ErrCodeSessionNotFound,
			fmt.Sprintf("meeting %d has no race session", meeting.MeetingKey), nil)
	}

	racePositions, err := c.finalPositions(ctx, raceSession.SessionKey)
	if err != nil {
		return nil, err
	}

	var sprintPositions map[int]int
	if sprintSession != nil {
		sprintPositions, err = c.finalPositions(ctx, sprintSession.SessionKey)
		if err != nil {
			return nil, err
		}
	}

	results := mergePositions(racePositions, sprintPositions)
	if len(results) == 0 {
		return nil, NewSourceError(openF1SourceName, ErrCodeEmptyResults,
			fmt.Sprintf("race session %d returned no position data", raceSession.SessionKey), nil)
	}
	return results, nil
}

// fetchMeetings loads the season's meeting list, serving from cache when fresh
func (c *OpenF1Client) fetchMeetings(ctx context.Context, year int) ([]openF1Meeting, error) {
	cacheKey := fmt.Sprintf("meetings:%d", year)
	if cached, found := c.meetings.Get(cacheKey); found {
		return cached.([]openF1Meeting), nil
	}

	var meetings []openF1Meeting
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/meetings?year=%d", year), &meetings); err != nil {
		return nil, err
	}

	c.meetings.Set(cacheKey, meetings, cache.DefaultExpiration)
	return meetings, nil
}

// finalPositions returns each driver's last position sample in a session
func (c *OpenF1Client) finalPositions(ctx context.Context, sessionKey int) (map[int]int, error) {
	var samples []openF1Position
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/position?session_key=%d", sessionKey), &samples); err != nil {
		return nil, err
	}

	latest := make(map[int]time.Time)
	positions := make(map[int]int)
	for _, sample := range samples {
		ts, err := time.Parse(time.RFC3339, sample.Date)
		if err != nil {
			// Undated samples fall back to arrival order
			positions[sample.DriverNumber] = sample.Position
			continue
		}
		if prev, ok := latest[sample.DriverNumber]; !ok || !ts.Before(prev) {
			latest[sample.DriverNumber] = ts
			positions[sample.DriverNumber] = sample.Position
		}
	}

	return positions, nil
}

func (c *OpenF1Client) getJSON(ctx context.Context, path string, out interface{}) error {
	endpoint := c.baseURL + path
	if _, err := url.Parse(endpoint); err != nil {
		return NewSourceError(openF1SourceName, ErrCodeInvalidData, "invalid endpoint URL", err)
	}

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return NewSourceError(openF1SourceName, ErrCodeNetworkError, "failed to fetch "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return NewSourceError(openF1SourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewSourceError(openF1SourceName, ErrCodeInvalidData, "failed to decode response", err)
	}

	return nil
}

// resolveMeeting picks the best-scoring meeting for a race, or nil when no
// meeting scores above zero. The match is best-effort: a normalized substring
// match on the display name, a weaker one on the official name, and an exact
// country-code tiebreaker.
func resolveMeeting(meetings []openF1Meeting, raceName, countryCode string) *openF1Meeting {
	best := -1
	bestScore := 0
	for i, m := range meetings {
		score := scoreMeeting(m, raceName, countryCode)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return nil
	}
	return &meetings[best]
}

func scoreMeeting(m openF1Meeting, raceName, countryCode string) int {
	score := 0
	name := normalizeName(raceName)
	if name != "" {
		meetingName := normalizeName(m.MeetingName)
		official := normalizeName(m.MeetingOfficialName)
		switch {
		case meetingName != "" && (strings.Contains(meetingName, name) || strings.Contains(name, meetingName)):
			score += meetingNameWeight
		case official != "" && strings.Contains(official, name):
			score += officialNameWeight
		}
	}
	if countryCode != "" && strings.EqualFold(m.CountryCode, countryCode) {
		score += countryMatchWeight
	}
	return score
}

// normalizeName lowercases and collapses a display name for fuzzy comparison
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// classifySessions finds the main race session and, when present, the sprint
// session within a meeting. Sprints report session_type "Race" too, so the
// session name disambiguates.
func classifySessions(sessions []openF1Session) (raceSession, sprintSession *openF1Session) {
	for i := range sessions {
		s := &sessions[i]
		if !strings.EqualFold(s.SessionType, "Race") {
			continue
		}
		isSprint := strings.Contains(strings.ToLower(s.SessionType), "sprint") ||
			strings.Contains(strings.ToLower(s.SessionName), "sprint")
		if isSprint {
			if sprintSession == nil {
				sprintSession = s
			}
		} else if raceSession == nil {
			raceSession = s
		}
	}
	return raceSession, sprintSession
}

// mergePositions combines race and sprint classifications into one entry per
// car number, ordered by car number for deterministic output.
func mergePositions(racePositions, sprintPositions map[int]int) []DriverResult {
	byCar := make(map[int]*DriverResult)

	entry := func(carNumber int) *DriverResult {
		if e, ok := byCar[carNumber]; ok {
			return e
		}
		e := &DriverResult{CarNumber: carNumber}
		byCar[carNumber] = e
		return e
	}

	for car, pos := range racePositions {
		p := pos
		entry(car).Position = &p
	}
	for car, pos := range sprintPositions {
		p := pos
		entry(car).SprintPosition = &p
	}

	results := make([]DriverResult, 0, len(byCar))
	for _, e := range byCar {
		results = append(results, *e)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CarNumber < results[j].CarNumber })

	return results
}
