package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider"
)

// retryPolicy decides whether a tier call is retried and how long to wait.
type retryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// fixedDelayPolicy retries transiently failing provider calls a fixed number
// of times with a constant wait. The upstream services apply their own
// pacing, so exponential growth buys nothing here.
type fixedDelayPolicy struct {
	maxAttempts int
	delay       time.Duration
}

func newFixedDelayPolicy(maxAttempts int, delay time.Duration) *fixedDelayPolicy {
	return &fixedDelayPolicy{maxAttempts: maxAttempts, delay: delay}
}

// ShouldRetry reports whether another attempt is allowed.
func (p *fixedDelayPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Backoff returns the wait before the next attempt.
func (p *fixedDelayPolicy) Backoff(_ int) time.Duration {
	return p.delay
}

// FatalError wraps an unrecoverable per-video failure. It carries the raw
// listing entry so the run abort can print the offending payload for
// diagnosis.
type FatalError struct {
	Entry provider.Entry
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Entry.ID, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// EntryJSON renders the offending listing entry for diagnostics output.
func (e *FatalError) EntryJSON() string {
	data, err := json.MarshalIndent(e.Entry, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", e.Entry)
	}
	return string(data)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
