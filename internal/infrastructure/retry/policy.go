// Package retry provides bounded polling and retry policies for platform
// calls that only become consistent after a delay.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// errNotMet signals an unsatisfied condition to the backoff loop.
var errNotMet = errors.New("condition not met")

// Policy is a fixed-interval retry budget.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration

	// OnRetry, when set, is called before each wait with the failed
	// attempt's error and the delay that follows.
	OnRetry func(err error, next time.Duration)
}

// NewPolicy returns a policy with the given budget.
func NewPolicy(attempts int, interval time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Interval: interval}
}

func (p Policy) options() []backoff.RetryOption {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Interval)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(p.OnRetry))
	}
	return opts
}

// Wait polls cond until it reports true, the attempts run out or ctx is
// done. Exhausting the budget is not an error; Wait just returns false.
func (p Policy) Wait(ctx context.Context, cond func() bool) bool {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if cond() {
			return struct{}{}, nil
		}
		return struct{}{}, errNotMet
	}, p.options()...)
	return err == nil
}

// Do runs op until it succeeds or the attempts run out, returning the last
// error. Wrap an error with Permanent to stop early.
func (p Policy) Do(ctx context.Context, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, p.options()...)
	return err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
