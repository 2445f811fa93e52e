package db

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// DefaultBusyRetryDelays is the schedule used when none is configured.
var DefaultBusyRetryDelays = []time.Duration{
	10 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	2 * time.Second,
	3 * time.Second,
	4 * time.Second,
	5 * time.Second,
}

// RetryObserver is notified before each busy retry. attempt starts at 1.
type RetryObserver func(op string, attempt int, delay time.Duration, err error)

// LoggingObserver logs every busy retry with its delay and passes the
// operation name to count, which may be nil.
func LoggingObserver(logg *logger.Logger, count func(op string)) RetryObserver {
	return func(op string, attempt int, delay time.Duration, err error) {
		if count != nil {
			count(op)
		}
		if logg == nil {
			return
		}
		ctx := logg.WithFields(context.Background(), map[string]any{
			"op":       op,
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
		logg.Info(ctx, "storage busy, retrying")
	}
}

// RetryPolicy re-runs an operation while the store reports it is busy,
// waiting a fixed delay schedule between attempts.
type RetryPolicy struct {
	delays   []time.Duration
	observer RetryObserver
}

func NewRetryPolicy(delays []time.Duration) *RetryPolicy {
	if delays == nil {
		delays = DefaultBusyRetryDelays
	}
	cp := make([]time.Duration, len(delays))
	copy(cp, delays)
	return &RetryPolicy{delays: cp}
}

// Delays returns a copy of the configured schedule.
func (p *RetryPolicy) Delays() []time.Duration {
	out := make([]time.Duration, len(p.delays))
	copy(out, p.delays)
	return out
}

func (p *RetryPolicy) backoff() retry.Backoff {
	next := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		if next >= len(p.delays) {
			return 0, true
		}
		d := p.delays[next]
		next++
		return d, false
	})
}

// Do runs fn, retrying while it fails with a busy error. Non-busy errors are
// returned as is. Exhausting the schedule yields a STORAGE_FATAL error that
// wraps the last busy error.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	var lastBusy error
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsBusy(err) {
			lastBusy = err
			if p.observer != nil && attempt <= len(p.delays) {
				p.observer(op, attempt, p.delays[attempt-1], err)
			}
			return retry.RetryableError(err)
		}
		lastBusy = nil
		return err
	})
	if err == nil {
		return nil
	}
	if lastBusy != nil && errors.Is(err, lastBusy) {
		return pkgerrors.Wrap(pkgerrors.CodeStorageFatal, err, op)
	}
	return err
}
