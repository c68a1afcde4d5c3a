package models

import "time"

// Pick is a user's chosen driver for one race. At most one pick row exists per
// (user, race); changing driver updates the row in place.
type Pick struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id" validate:"required,gt=0"`
	RaceID    int64     `db:"race_id" json:"race_id" validate:"required,gt=0"`
	DriverID  int64     `db:"driver_id" json:"driver_id" validate:"required,gt=0"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
