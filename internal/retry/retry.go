// internal/retry/retry.go

package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Config controls the backoff schedule
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultConfig returns the schedule used for vendor and AI calls:
// three attempts, exponential backoff from one second, light jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}
}

// Classifier reports whether an error is worth retrying
type Classifier func(error) bool

// Retrier runs operations with bounded exponential backoff
type Retrier struct {
	config      Config
	isRetryable Classifier
	logger      *slog.Logger
}

// New creates a retrier with the given schedule and error classifier
func New(config Config, classifier Classifier, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		config:      config,
		isRetryable: classifier,
		logger:      logger,
	}
}

// Do runs operation until it succeeds, exhausts the attempt budget, or
// hits a non-retryable error. The wait between attempts is cancellable
// through ctx.
func (r *Retrier) Do(ctx context.Context, op string, operation func() error) error {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		attempts = attempt
		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				r.logger.Info("operation succeeded after retry",
					"op", op, "attempt", attempt)
			}
			return nil
		}

		retryable := r.isRetryable != nil && r.isRetryable(lastErr)
		if attempt == r.config.MaxAttempts || !retryable {
			break
		}

		delay := r.delay(attempt)
		r.logger.Warn("operation failed, backing off",
			"op", op, "attempt", attempt, "delay", delay, "error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}

	// Jitter avoids synchronized retries against a throttling vendor
	d *= 1.0 + (rand.Float64()-0.5)*r.config.JitterFactor

	return time.Duration(d)
}
