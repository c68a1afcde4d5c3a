package models

import "time"

// Result is a driver's finishing classification for one race. At most one row
// exists per (race, driver); reconciliation upserts rows, never duplicates
// them. Nil positions mean did-not-finish or did-not-start and score zero.
type Result struct {
	ID             int64     `db:"id" json:"id"`
	RaceID         int64     `db:"race_id" json:"race_id" validate:"required"`
	DriverID       int64     `db:"driver_id" json:"driver_id" validate:"required"`
	Position       *int      `db:"position" json:"position"`
	SprintPosition *int      `db:"sprint_position" json:"sprint_position"`
	Points         int       `db:"points" json:"points" validate:"gte=0"`
	SprintPoints   int       `db:"sprint_points" json:"sprint_points" validate:"gte=0"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TotalPoints returns the combined race and sprint points for the row
func (r *Result) TotalPoints() int {
	return r.Points + r.SprintPoints
}
