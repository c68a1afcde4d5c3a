package database

import (
	"context"
	"fmt"

	"github.com/yourusername/grid-picks/internal/config"
)

// Initialize creates a database connection pool and verifies the schema is in
// a usable state.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	// Verify migrations are applied by checking for the seasons table
	var exists bool
	err = db.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'seasons')",
	).Scan(&exists)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	if !exists {
		db.Close()
		return nil, fmt.Errorf("schema not initialized: seasons table missing, run database migrations")
	}

	return db, nil
}
