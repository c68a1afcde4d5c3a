package models

import (
	"time"
)

// RaceStatus is the lifecycle state of a race. Transitions are monotonic:
// upcoming -> in_progress -> completed, never backward.
type RaceStatus string

const (
	RaceStatusUpcoming   RaceStatus = "upcoming"
	RaceStatusInProgress RaceStatus = "in_progress"
	RaceStatusCompleted  RaceStatus = "completed"
)

var raceStatusRank = map[RaceStatus]int{
	RaceStatusUpcoming:   0,
	RaceStatusInProgress: 1,
	RaceStatusCompleted:  2,
}

// Valid reports whether s is a known lifecycle state
func (s RaceStatus) Valid() bool {
	_, ok := raceStatusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
// A race may skip in_progress (manual results on an upcoming race) but may
// never move backward.
func (s RaceStatus) CanAdvanceTo(next RaceStatus) bool {
	from, ok := raceStatusRank[s]
	if !ok {
		return false
	}
	to, ok := raceStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Race represents one round of a season's calendar
type Race struct {
	ID              int64      `db:"id" json:"id"`
	SeasonID        int64      `db:"season_id" json:"season_id" validate:"required"`
	Round           int        `db:"round" json:"round" validate:"required,gt=0"`
	Name            string     `db:"name" json:"name" validate:"required"`
	CountryCode     string     `db:"country_code" json:"country_code"`
	QualiTime       time.Time  `db:"quali_time" json:"quali_time" validate:"required"`
	SprintQualiTime *time.Time `db:"sprint_quali_time" json:"sprint_quali_time"`
	RaceTime        time.Time  `db:"race_time" json:"race_time" validate:"required"`
	SprintTime      *time.Time `db:"sprint_time" json:"sprint_time"`
	HasSprint       bool       `db:"has_sprint" json:"has_sprint"`
	IsWildCard      bool       `db:"is_wild_card" json:"is_wild_card"`
	Status          RaceStatus `db:"status" json:"status" validate:"required,oneof=upcoming in_progress completed"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// DeadlineSession returns the session time that anchors the pick window close.
// On sprint weekends with a known sprint qualifying time that session is the
// deadline, otherwise qualifying is.
func (r *Race) DeadlineSession() time.Time {
	if r.HasSprint && r.SprintQualiTime != nil {
		return *r.SprintQualiTime
	}
	return r.QualiTime
}

// EarliestSessionTime returns the earliest of the race's scheduled sessions
// that are present.
func (r *Race) EarliestSessionTime() time.Time {
	earliest := r.QualiTime
	if r.RaceTime.Before(earliest) {
		earliest = r.RaceTime
	}
	if r.SprintQualiTime != nil && r.SprintQualiTime.Before(earliest) {
		earliest = *r.SprintQualiTime
	}
	if r.SprintTime != nil && r.SprintTime.Before(earliest) {
		earliest = *r.SprintTime
	}
	return earliest
}

// IsCompleted checks if the race has finished and its results are settled
func (r *Race) IsCompleted() bool {
	return r.Status == RaceStatusCompleted
}
