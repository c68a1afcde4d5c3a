package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/models"
)

// PostgresDriverRepository implements DriverRepository for PostgreSQL
type PostgresDriverRepository struct {
	db *database.DB
}

// NewPostgresDriverRepository creates a new driver repository
func NewPostgresDriverRepository(db *database.DB) DriverRepository {
	return &PostgresDriverRepository{db: db}
}

// Create inserts a new driver
func (r *PostgresDriverRepository) Create(ctx context.Context, driver *models.Driver) error {
	query := `
		INSERT INTO drivers (season_id, car_number, name, team, country_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		driver.SeasonID, driver.CarNumber, driver.Name, driver.Team, driver.CountryCode,
	).Scan(&driver.ID, &driver.CreatedAt, &driver.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("car number %d in season %d: %w", driver.CarNumber, driver.SeasonID, models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create driver: %w", err)
	}

	return nil
}

// GetByID retrieves a driver by ID
func (r *PostgresDriverRepository) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	query := `
		SELECT id, season_id, car_number, name, team, country_code, created_at, updated_at
		FROM drivers WHERE id = $1
	`

	driver := &models.Driver{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&driver.ID, &driver.SeasonID, &driver.CarNumber, &driver.Name,
		&driver.Team, &driver.CountryCode, &driver.CreatedAt, &driver.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	return driver, nil
}

// ListBySeason retrieves a season's driver roster ordered by car number
func (r *PostgresDriverRepository) ListBySeason(ctx context.Context, seasonID int64) ([]*models.Driver, error) {
	query := `
		SELECT id, season_id, car_number, name, team, country_code, created_at, updated_at
		FROM drivers WHERE season_id = $1 ORDER BY car_number ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		driver := &models.Driver{}
		err := rows.Scan(
			&driver.ID, &driver.SeasonID, &driver.CarNumber, &driver.Name,
			&driver.Team, &driver.CountryCode, &driver.CreatedAt, &driver.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, driver)
	}

	return drivers, rows.Err()
}
