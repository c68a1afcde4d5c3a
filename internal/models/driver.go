package models

import "time"

// Driver represents a driver entered in a season. CarNumber is the stable
// identifier used to match third-party results data.
type Driver struct {
	ID          int64     `db:"id" json:"id"`
	SeasonID    int64     `db:"season_id" json:"season_id" validate:"required"`
	CarNumber   int       `db:"car_number" json:"car_number" validate:"required,gt=0"`
	Name        string    `db:"name" json:"name" validate:"required"`
	Team        string    `db:"team" json:"team"`
	CountryCode *string   `db:"country_code" json:"country_code"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
