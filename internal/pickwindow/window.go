// Package pickwindow computes the interval during which a pick may be created
// or changed for a race.
package pickwindow

import (
	"time"

	"github.com/yourusername/grid-picks/internal/models"
)

// Status describes where a reference instant falls relative to a pick window.
type Status string

const (
	StatusTooEarly Status = "too_early"
	StatusOpen     Status = "open"
	StatusLocked   Status = "locked"
)

// closeOffset is how long before the deadline session the window locks.
const closeOffset = 10 * time.Minute

// Window is a race's computed pick window relative to a reference instant.
type Window struct {
	OpensAt  time.Time
	ClosesAt time.Time
	Status   Status
}

// Compute returns the pick window for a race at the given instant. The window
// opens at Monday 00:00 UTC of the week containing qualifying and closes ten
// minutes before the deadline session (sprint qualifying on sprint weekends
// when known, qualifying otherwise). Exactly at ClosesAt the window is locked.
func Compute(race *models.Race, now time.Time) Window {
	opensAt := weekStart(race.QualiTime)
	closesAt := race.DeadlineSession().Add(-closeOffset)

	w := Window{OpensAt: opensAt, ClosesAt: closesAt}
	switch {
	case now.Before(opensAt):
		w.Status = StatusTooEarly
	case !now.Before(closesAt):
		w.Status = StatusLocked
	default:
		w.Status = StatusOpen
	}
	return w
}

// weekStart returns Monday 00:00 UTC of the Mon-Sun week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday numbers Sunday as 0; shift so Monday is 0.
	offset := (int(t.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
