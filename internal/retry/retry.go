package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// MinDelay is the floor applied to every computed retry delay. Even when
// the sampled jitter term is negative the retrier never sleeps less than
// this.
const MinDelay = 250 * time.Millisecond

// Config holds the tunables for a single Do call. It is immutable for the
// duration of the call and never shared across calls.
type Config struct {
	// MaxRetries is the number of re-invocations allowed after the initial
	// attempt. Zero means fail on the first error.
	MaxRetries int

	// BaseDelay seeds the exponential term: attempt n waits roughly
	// BaseDelay * 2^(n-1), capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the exponential term. A server-advertised retry hint is
	// deliberately NOT capped: authoritative guidance from the remote end
	// can push the wait beyond this ceiling, never below it.
	MaxDelay time.Duration

	// JitterRatio scales the symmetric random perturbation applied to the
	// base delay: delay ± delay*JitterRatio*uniform(0,1).
	JitterRatio float64

	// OnRetry, when non-nil, is invoked before each retry sleep with the
	// 1-based attempt number, the computed delay, and the error that
	// triggered the retry. Logging is the observer's business; the retrier
	// itself never logs.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns the tunables used when callers have no reason to
// deviate: up to 5 retries, 1.2s base, 20s ceiling, 25% jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  5,
		BaseDelay:   1200 * time.Millisecond,
		MaxDelay:    20 * time.Second,
		JitterRatio: 0.25,
	}
}

// Do invokes op, retrying transient failures per cfg. On success the result
// is returned immediately. A non-retryable error, or a retryable one whose
// budget is exhausted, is returned to the caller unchanged, with no
// wrapping. Context cancellation during a retry sleep aborts the loop with
// ctx.Err().
//
// The loop is structurally unbounded but terminates after at most
// MaxRetries+1 failure observations.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), cfg Config) (T, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // jitter needs no crypto rand
	attempt := 0

	for {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}

		if !Retryable(err) {
			var zero T
			return zero, err
		}

		attempt++
		if attempt > cfg.MaxRetries {
			var zero T
			return zero, err
		}

		delay := nextDelay(rng, cfg, attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		}
	}
}

// nextDelay computes the sleep before retry `attempt` (1-based). The base
// is the larger of the capped exponential term and the server-advised
// delay mined from the error message; jitter then perturbs it
// symmetrically, and the result is floored at MinDelay and rounded to a
// whole millisecond.
func nextDelay(rng *rand.Rand, cfg Config, attempt int, err error) time.Duration {
	exponential := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if cfg.MaxDelay > 0 && exponential > cfg.MaxDelay {
		exponential = cfg.MaxDelay
	}

	base := exponential
	if hint := serverAdvisedDelay(err); hint > base {
		base = hint
	}

	jitter := time.Duration(float64(base) * cfg.JitterRatio * (2*rng.Float64() - 1))
	delay := base + jitter
	if delay < MinDelay {
		delay = MinDelay
	}
	return delay.Round(time.Millisecond)
}
