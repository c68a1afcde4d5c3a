package models

import "time"

// Season represents a single competition year. Exactly one season is active at
// a time; rows are immutable after creation except for the active flag.
type Season struct {
	ID        int64     `db:"id" json:"id"`
	Year      int       `db:"year" json:"year" validate:"required,gte=1950"`
	Name      string    `db:"name" json:"name" validate:"required"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
