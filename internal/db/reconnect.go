package db

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/unklstewy/asv-radar-sim/pkg/config"
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
// This lets the tools ride out a database that is still starting up.
//
// Parameters:
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = infinite)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ReconnectWithRetry(cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++

		log.Printf("Database connection attempt %d...", attempt)

		// Connect pings before returning
		db, err := Connect(cfg)
		if err == nil {
			log.Println("✓ Database connected")
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("Failed to connect after %d attempts", attempt)
			return nil, err
		}

		log.Printf("Connection failed: %v (retry in %v)", err, delay)
		time.Sleep(delay)

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
//
// Returns: Active database connection (either original or new) and error
func EnsureConnection(db *DB, cfg config.DatabaseConfig) (*DB, error) {
	if db == nil {
		log.Println("Database connection is nil, attempting to reconnect...")
		return ReconnectWithRetry(cfg, 3, 1*time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Printf("Database connection lost: %v", err)
		log.Println("Attempting to reconnect...")

		db.Close()
		return ReconnectWithRetry(cfg, 3, 1*time.Second)
	}

	return db, nil
}

// HealthCheck reports whether the database answers a trivial query.
func HealthCheck(db *DB) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Printf("Health check failed - ping error: %v", err)
		return false
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		log.Printf("Health check failed - query error: %v", err)
		return false
	}

	if result != 1 {
		log.Printf("Health check failed - unexpected result: %d", result)
		return false
	}

	return true
}

// connErrorPatterns are substrings of errors worth retrying.
var connErrorPatterns = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"eof",
	"timeout",
}

// isConnectionError reports whether err looks like a lost connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation with automatic retry on connection failures.
// Other errors are returned immediately.
func WithRetry(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * time.Second
			log.Printf("Database operation failed (attempt %d/%d): %v (retry in %v)",
				attempt+1, maxRetries+1, err, waitTime)
			time.Sleep(waitTime)
		}
	}

	return lastErr
}
