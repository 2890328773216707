// Package retry runs an operation under a bounded linear backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxRetries = 2
	defaultBaseDelay  = time.Second
)

// Policy bounds a retry loop. Delay before retry n is BaseDelay*n.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// NewTimer supplies the wait timer for one loop; nil uses a real timer.
	NewTimer func() backoff.Timer
	// OnRetry is called before each wait with the failure that triggered it.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// DefaultPolicy returns two retries at one second steps.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: defaultMaxRetries, BaseDelay: defaultBaseDelay}
}

// Linear is a backoff.BackOff whose n-th delay is Base*n.
type Linear struct {
	Base time.Duration
	n    int
}

// NextBackOff implements backoff.BackOff.
func (l *Linear) NextBackOff() time.Duration {
	l.n++
	return l.Base * time.Duration(l.n)
}

// Reset implements backoff.BackOff.
func (l *Linear) Reset() { l.n = 0 }

// Do invokes op until it succeeds, returns an error retryable rejects, or the retry budget is spent.
// attempt passed to op starts at 1. The returned count is the number of invocations.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error, retryable func(error) bool) (int, error) {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	var b backoff.BackOff = &Linear{Base: p.BaseDelay}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx)

	var timer backoff.Timer
	if p.NewTimer != nil {
		timer = p.NewTimer()
	}

	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx, attempts)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, attempts, delay)
		}
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, timer)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return attempts, err
}
