package sink

import (
	"fmt"
	"math"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
// Retries happen inside a single cadence tick, so the total backoff should
// stay well below the transmit period.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries)
	MaxRetries int

	// InitialDelay is the initial backoff delay
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (2.0 for exponential)
	Multiplier float64
}

// DefaultRetryConfig returns retry settings sized for a 1 second cadence.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// NoRetry fails on the first error.
func NoRetry() RetryConfig {
	return RetryConfig{}
}

// RetryWithBackoff runs fn until it succeeds or the retries are exhausted.
// The first attempt runs without delay; attempt n waits
// min(InitialDelay * Multiplier^(n-1), MaxDelay).
func RetryWithBackoff(cfg RetryConfig, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 && delay > 0 {
			time.Sleep(delay)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		multiplier := cfg.Multiplier
		if multiplier < 1 {
			multiplier = 1
		}
		nextDelay := time.Duration(float64(cfg.InitialDelay) * math.Pow(multiplier, float64(attempt)))
		if cfg.MaxDelay > 0 && nextDelay > cfg.MaxDelay {
			nextDelay = cfg.MaxDelay
		}
		delay = nextDelay
	}

	if cfg.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
