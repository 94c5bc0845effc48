package database

import (
	"context"
	"fmt"

	"github.com/yourusername/goalodds/internal/config"
)

// Initialize creates a database connection pool and verifies the expected schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	// Create connection pool
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	// Verify the registry tables exist. Schema management itself lives outside
	// this service, so a missing table means the documented DDL has not been
	// applied.
	var tableName string
	err = db.pool.QueryRow(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'model_artifacts'",
	).Scan(&tableName)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf(
			"model_artifacts table not found, apply the schema before starting: %w", err,
		)
	}

	return db, nil
}
