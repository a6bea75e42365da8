package worker

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig holds the configuration for install retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of install attempts (including the
	// initial one).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default install retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// installWithRetry runs Install with exponential backoff. A failed install
// is retried the way a failed registration would be: the next attempt
// starts the lifecycle over from scratch.
func (w *Worker) installWithRetry(ctx context.Context) error {
	config := w.retryConfig()

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := w.Install(ctx)
		if err == nil {
			if attempt > 1 {
				w.logger.Info().
					Int("attempt", attempt).
					Msg("Install succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt >= config.MaxAttempts {
			break
		}

		installRetriesTotal.Inc()

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		w.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Install failed, retrying after backoff")

		select {
		case <-ctx.Done():
			return fmt.Errorf("install cancelled: %w", ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	w.logger.Error().
		Int("max_attempts", config.MaxAttempts).
		Msg("Install retry attempts exhausted")
	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, config.MaxAttempts, lastErr)
}

func (w *Worker) retryConfig() RetryConfig {
	if w.config.Retry.MaxAttempts > 0 {
		return w.config.Retry
	}
	return DefaultRetryConfig()
}
