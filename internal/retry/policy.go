package retry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
)

// Backoff selects how the delay grows between attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// ParseBackoff reads a backoff name, ignoring case and surrounding space.
// An empty name selects exponential backoff.
func ParseBackoff(raw string) (Backoff, error) {
	switch b := Backoff(strings.ToLower(strings.TrimSpace(raw))); b {
	case "":
		return BackoffExponential, nil
	case BackoffFixed, BackoffLinear, BackoffExponential:
		return b, nil
	}
	return "", errors.ConfigError("unknown retry mode").WithContext("value", raw).Build()
}

// Policy is an immutable retry schedule for transient remote failures.
type Policy struct {
	Mode       Backoff
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first failure
}

// DefaultPolicy is exponential from 1s, capped at 30s, with 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffExponential, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// FromConfig builds the policy configured under confluence.retry.
func FromConfig(rc config.RetryConfig) (Policy, error) {
	mode, err := ParseBackoff(rc.Mode)
	if err != nil {
		return Policy{}, err
	}
	return NewPolicy(mode, rc.Initial, rc.Max, rc.MaxRetries), nil
}

// NewPolicy overrides the defaults with every positive duration and
// non-negative retry count. Initial never exceeds Max.
func NewPolicy(mode Backoff, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case BackoffFixed:
		return p.Initial
	case BackoffLinear:
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	default: // exponential
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do runs fn until it succeeds, returns a non-transient error, or the retry budget
// is spent. Only classified errors whose strategy allows retrying are retried.
func (p Policy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !transient(err) {
			return err
		}
		delay := p.Delay(attempt + 1)
		slog.Debug("Retrying transient failure",
			logfields.Operation(operation),
			logfields.Attempt(attempt+1),
			logfields.DurationMS(float64(delay.Milliseconds())),
			logfields.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func transient(err error) bool {
	switch errors.GetRetryStrategy(err) {
	case errors.RetryImmediate, errors.RetryBackoff, errors.RetryRateLimit:
		return true
	default:
		return false
	}
}
