// Package wait polls the live page until a condition holds or a time budget
// runs out. Every element access in the page objects goes through here
// instead of a fixed sleep.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adyen/shopharness/internal/session"
)

// ErrInvalidSpec is returned for non-positive timeouts or intervals.
var ErrInvalidSpec = errors.New("invalid wait spec")

// Spec bounds a wait.
type Spec struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Validate checks both durations are positive.
func (s Spec) Validate() error {
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout %v must be positive", ErrInvalidSpec, s.Timeout)
	}
	if s.Interval <= 0 {
		return fmt.Errorf("%w: poll interval %v must be positive", ErrInvalidSpec, s.Interval)
	}
	return nil
}

// WithTimeout returns a copy of s with a different timeout.
func (s Spec) WithTimeout(d time.Duration) Spec {
	s.Timeout = d
	return s
}

// Condition evaluates the page once. ok reports whether the condition holds;
// the value is returned to the caller of Until when it does.
type Condition[T any] struct {
	Name  string
	Check func(ctx context.Context, s *session.Session) (value T, ok bool, err error)
}

// TimeoutError reports a condition that never held within its budget.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	// LastErr is the last transient error seen, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s (budget %v)",
		e.Elapsed.Round(time.Millisecond), e.Condition, e.Timeout)
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// IsTimeout reports whether err is a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Until evaluates cond immediately and then once per spec.Interval until it
// holds or spec.Timeout elapses. The final sleep is clipped to the deadline,
// so a failing wait returns within Timeout+Interval. Not-found and stale
// errors count as "not yet"; any other error ends the wait at once.
func Until[T any](ctx context.Context, s *session.Session, spec Spec, cond Condition[T]) (T, error) {
	var zero T
	if err := spec.Validate(); err != nil {
		return zero, err
	}

	start := time.Now()
	deadline := start.Add(spec.Timeout)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var lastErr error
	for {
		v, ok, err := cond.Check(ctx, s)
		switch {
		case err == nil && ok:
			return v, nil
		case err != nil && !session.IsTransient(err):
			return zero, fmt.Errorf("waiting for %s: %w", cond.Name, err)
		case err != nil:
			lastErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, &TimeoutError{
				Condition: cond.Name,
				Timeout:   spec.Timeout,
				Elapsed:   time.Since(start),
				LastErr:   lastErr,
			}
		}
		pause := spec.Interval
		if remaining < pause {
			pause = remaining
		}
		if timer == nil {
			timer = time.NewTimer(pause)
		} else {
			timer.Reset(pause)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
