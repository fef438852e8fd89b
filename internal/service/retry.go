package service

import (
	"context"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
)

// RetryPolicy retries transient and quota failures with exponential backoff.
// Quota failures back off four times longer than transient ones. Permanent,
// validation, and not-found errors are returned immediately.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy matches the pipeline defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 2 * time.Second, MaxDelay: time.Minute}
}

// Do runs fn until it succeeds, exhausts the attempt budget, or fails with a
// non-retryable error. The last error is returned unwrapped so callers can
// still classify it.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !domain.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.delay(attempt, domain.Classify(err))
		logger.CtxWarn(ctx, "%s failed (attempt %d/%d), retrying in %s: %v", op, attempt, attempts, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (p RetryPolicy) delay(attempt int, class domain.ErrorClass) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	if class == domain.ErrClassQuota {
		delay *= 4
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
