package embed

import (
	"context"
	"time"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

// RetryConfig configures exponential backoff for embed calls.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry executes fn with exponential backoff, retrying transient
// failures up to cfg.MaxRetries times. Context cancellation aborts
// immediately. The final failure is wrapped as EmbedderUnavailable so
// callers can uniformly degrade to text search (spec §4.5.6).
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return syntonerr.Wrap(syntonerr.Cancelled, "embed retry", ctx.Err())
		default:
		}

		if err := fn(); err != nil {
			lastErr = err
			if attempt >= cfg.MaxRetries {
				break
			}

			select {
			case <-ctx.Done():
				return syntonerr.Wrap(syntonerr.Cancelled, "embed retry", ctx.Err())
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			continue
		}

		return nil
	}

	return syntonerr.Wrap(syntonerr.EmbedderUnavailable, "embed failed after retries", lastErr)
}
