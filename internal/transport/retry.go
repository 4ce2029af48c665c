package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"podcaster/internal/logging"
	"podcaster/internal/metrics"
	"podcaster/internal/services"
)

// linearBackOff waits n*unit before the nth retry.
type linearBackOff struct {
	unit time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.unit
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Retry runs fn under the policy's budget. Only errors classified as
// services.ErrTransient are retried; anything else returns immediately. When
// the budget runs out the last error is returned.
func Retry[T any](ctx context.Context, policy Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(policy.Logger, "transport"))

	attempt := 0
	operation := func() (T, error) {
		attempt++
		value, err := fn(ctx)
		switch {
		case err == nil:
			metrics.RecordAttempt(op, metrics.OutcomeSuccess)
			return value, nil
		case !services.Retryable(err) || ctx.Err() != nil:
			metrics.RecordAttempt(op, metrics.OutcomeFailure)
			return value, backoff.Permanent(err)
		default:
			metrics.RecordAttempt(op, metrics.OutcomeRetry)
			return value, err
		}
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug("retrying operation",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
		)
	}

	policyBackOff := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{unit: policy.Unit}, MaxAttempts-1),
		ctx,
	)
	return backoff.RetryNotifyWithData(operation, policyBackOff, notify)
}
