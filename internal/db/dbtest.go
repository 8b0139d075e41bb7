package db

import (
	"context"
	"errors"
	"os"

	"github.com/jmoiron/sqlx"
)

// InitTestDB connects to TEST_DATABASE_URL and applies migrations. Integration
// tests skip themselves when it returns ErrNoTestDatabase.
func InitTestDB(ctx context.Context, migrationsPath string) (*sqlx.DB, error) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return nil, ErrNoTestDatabase
	}

	conn, err := Init(dbURL)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, conn, migrationsPath); err != nil {
		return nil, err
	}
	return conn, nil
}

var ErrNoTestDatabase = errors.New("TEST_DATABASE_URL environment variable is not set")
