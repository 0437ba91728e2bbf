package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/unklstewy/asv-radar-sim/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// connString builds a lib/pq keyword/value connection string.
func connString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open("postgres", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		config: cfg,
	}, nil
}

// InitSchema creates the flight tables if they do not exist.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// DeleteFlightsOlderThan removes flights created before maxAge ago.
// Their records go with them through the foreign key cascade.
func (db *DB) DeleteFlightsOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	res, err := db.ExecContext(ctx, `DELETE FROM flights WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old flights: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted flights: %w", err)
	}
	return n, nil
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var flightCount int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights`).Scan(&flightCount)
	if err != nil {
		return nil, err
	}
	stats["flights"] = flightCount

	var recordCount int64
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flight_records`).Scan(&recordCount)
	if err != nil {
		return nil, err
	}
	stats["flight_records"] = recordCount

	return stats, nil
}
