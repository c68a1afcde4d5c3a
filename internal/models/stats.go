package models

import "time"

// UserSeasonStats holds derived per-user season totals. It is never patched
// incrementally: the stats service fully recomputes it from picks and results
// whenever a race completes, so stored values always match derivable state.
type UserSeasonStats struct {
	UserID         int64     `db:"user_id" json:"user_id" validate:"required"`
	SeasonID       int64     `db:"season_id" json:"season_id" validate:"required"`
	TotalPoints    int       `db:"total_points" json:"total_points" validate:"gte=0"`
	RacesCompleted int       `db:"races_completed" json:"races_completed" validate:"gte=0"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
