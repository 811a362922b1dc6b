package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
)

type RetryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier wraps pool calls with bounded exponential backoff.
type Retrier struct {
	pool        *ClientPool
	maxAttempts int
	backoffBase time.Duration
	sleep       SleepFunc
	logger      zerolog.Logger
}

func NewRetrier(pool *ClientPool, cfg RetryConfig, logger zerolog.Logger) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}

	return &Retrier{
		pool:        pool,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		sleep:       sleepContext,
		logger:      logger,
	}
}

// WithSleep replaces the wait between attempts.
func (r *Retrier) WithSleep(sleep SleepFunc) *Retrier {
	r.sleep = sleep
	return r
}

func (r *Retrier) Do(ctx context.Context, op Operation) (*models.GenerationResult, error) {
	return r.WithRetries(ctx, op, r.maxAttempts)
}

// Backoff returns the wait after the given zero-based attempt: base, 2*base, 4*base...
func (r *Retrier) Backoff(attempt int) time.Duration {
	return r.backoffBase << attempt
}

func (r *Retrier) WithRetries(ctx context.Context, op Operation, maxAttempts int) (*models.GenerationResult, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := r.pool.Call(ctx, op)
		if err == nil {
			if attempt > 0 {
				r.logger.Info().Int("attempt", attempt+1).Msg("Model call succeeded after retry")
			}
			return result, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := r.Backoff(attempt)
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Msg("Model service busy, backing off")

		if err := r.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted: %w", ErrGenerationFailed, maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
