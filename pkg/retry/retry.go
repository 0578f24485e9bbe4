// Package retry runs bounded polling loops against slow upstreams, such as
// a payment provider that publishes PIX or boleto data a moment after the
// charge is created.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy controls a bounded retry loop
type Policy struct {
	// InitialDelay is waited once before the first attempt
	InitialDelay time.Duration
	// Interval is the constant wait between attempts
	Interval time.Duration
	// MaxAttempts bounds the number of attempts, including the first one
	MaxAttempts int
	// OnRetry is called after every failed attempt that will be retried
	OnRetry func(err error, next time.Duration)
}

// Once is a single attempt after InitialDelay
func Once(initialDelay time.Duration) Policy {
	return Policy{InitialDelay: initialDelay, MaxAttempts: 1}
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do waits InitialDelay, then calls op until it succeeds, returns a
// Permanent error, MaxAttempts is reached or ctx is done. The last error
// is returned on exhaustion.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := Sleep(ctx, p.InitialDelay); err != nil {
		return zero, err
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Interval)),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(p.OnRetry))
	}

	return backoff.Retry(ctx, func() (T, error) {
		return op(ctx)
	}, opts...)
}

// Sleep waits d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
