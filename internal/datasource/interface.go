package datasource

import (
	"context"
	"errors"
)

// ResultsSource defines the interface for fetching race classification data
// from external providers.
type ResultsSource interface {
	// FetchResults retrieves the final per-driver classification for a race.
	// The source resolves its own internal identifiers from the season year,
	// race display name and country code.
	FetchResults(ctx context.Context, seasonYear int, raceName, countryCode string) ([]DriverResult, error)

	// Name returns the name of the results source
	Name() string
}

// DriverResult is one driver's classification as reported by a source. A nil
// position means the driver did not finish or did not start; SprintPosition is
// nil on non-sprint weekends.
type DriverResult struct {
	CarNumber      int  `json:"car_number"`
	Position       *int `json:"position"`
	SprintPosition *int `json:"sprint_position"`
}

// SourceError represents errors from results source operations
type SourceError struct {
	Source  string // Source name
	Code    string // Error code (e.g., "meeting_not_found")
	Message string // Error message
	Err     error  // Underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error { return e.Err }

// Common error codes
const (
	ErrCodeMeetingNotFound = "meeting_not_found"
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeEmptyResults    = "empty_results"
	ErrCodeInvalidData     = "invalid_data"
	ErrCodeNetworkError    = "network_error"
	ErrCodeServerError     = "server_error"
)

// ErrMeetingNotFound is wrapped by meeting-resolution failures so callers can
// distinguish "race not in the source's calendar" from transport errors.
var ErrMeetingNotFound = errors.New("meeting not found")

// NewSourceError creates a new results source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
