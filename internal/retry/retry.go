// Package retry provides the linear-backoff retry policy shared by every
// component that talks to an external service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrMaxRetriesExceeded is returned when an operation keeps failing
// transiently until the attempt budget runs out.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// Policy is a fixed attempt budget with linear backoff: the wait before
// retry n is n * BaseDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 10 * time.Second
	}
	return p
}

// Permanent marks err as non-retryable; Do surfaces it immediately without
// consuming the remaining attempt budget.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// linearBackOff satisfies backoff.BackOff with the attempt*base schedule.
type linearBackOff struct {
	base time.Duration
	next time.Duration
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.next += b.base
	return b.next
}

func (b *linearBackOff) Reset() { b.next = 0 }

// Do runs op under the policy. Transient errors are retried until the budget
// is exhausted, then wrapped in ErrMaxRetriesExceeded. Permanent errors and
// context cancellation are returned as-is.
func Do(ctx context.Context, p Policy, op func() error) error {
	p = p.withDefaults()

	attempts := 0
	permanent := false
	counted := func() error {
		attempts++
		err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return err
	}

	lb := &linearBackOff{base: p.BaseDelay}
	b := backoff.WithContext(backoff.WithMaxRetries(lb, uint64(p.MaxAttempts-1)), ctx)

	err := backoff.Retry(counted, b)
	if err == nil {
		return nil
	}
	if permanent || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetriesExceeded, attempts, err)
}
