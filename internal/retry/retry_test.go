package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusError is a collaborator-style error carrying an explicit status.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string   { return e.msg }
func (e *statusError) StatusCode() int { return e.code }

// fastConfig keeps test sleeps at the 250ms floor.
func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   20 * time.Second,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	observed := 0

	cfg := DefaultConfig()
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		observed++
	}

	start := time.Now()
	v, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, observed, "observer must not fire on a clean first call")
	assert.Less(t, time.Since(start), 100*time.Millisecond, "success path must not sleep")
}

func TestDoRetriesResourceExhausted(t *testing.T) {
	original := errors.New("generate content failed: RESOURCE_EXHAUSTED")
	calls := 0

	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, original
	}, fastConfig(2))

	// maxRetries=2 means exactly 3 invocations, then the original error.
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, original)
	assert.Equal(t, original.Error(), err.Error())
}

func TestDoPropagatesTerminalErrorImmediately(t *testing.T) {
	original := errors.New("invalid argument")
	calls := 0
	observed := 0

	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		observed++
	}

	start := time.Now()
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, original
	}, cfg)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, observed)
	assert.ErrorIs(t, err, original)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "terminal errors must not delay")
}

func TestDoRetriesOnExplicitStatusCode(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &statusError{code: 429, msg: "slow down"}
		}
		return "recovered", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
}

func TestDoRetriesOnWrappedStatusCode(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("call failed: %w", &statusError{code: 429, msg: "slow down"})
	}, fastConfig(1))

	assert.Error(t, err)
	assert.Equal(t, 2, calls, "status probing must walk the wrapped chain")
}

func TestObserverReceivesAttemptsAndFlooredDelays(t *testing.T) {
	type observation struct {
		attempt int
		delay   time.Duration
	}
	var observations []observation

	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		observations = append(observations, observation{attempt, delay})
	}

	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("rate limit hit")
	}, cfg)

	assert.Error(t, err)
	require.Len(t, observations, 3)
	for i, obs := range observations {
		assert.Equal(t, i+1, obs.attempt)
		assert.GreaterOrEqual(t, obs.delay, MinDelay)
	}
}

func TestDoAbortsSleepOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := Config{
		MaxRetries: 5,
		BaseDelay:  10 * time.Second,
		MaxDelay:   20 * time.Second,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			cancel()
		},
	}

	start := time.Now()
	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		return 0, errors.New("timeout talking to upstream")
	}, cfg)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancellation must abort the backoff sleep")
}

func TestNextDelayExponentialGrowth(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := Config{BaseDelay: 1200 * time.Millisecond, MaxDelay: 20 * time.Second}
	err := errors.New("rate limit")

	// JitterRatio zero makes the computation deterministic.
	assert.Equal(t, 1200*time.Millisecond, nextDelay(rng, cfg, 1, err))
	assert.Equal(t, 2400*time.Millisecond, nextDelay(rng, cfg, 2, err))
	assert.Equal(t, 4800*time.Millisecond, nextDelay(rng, cfg, 3, err))
	// Attempt 6 would be 38.4s; capped at MaxDelay.
	assert.Equal(t, 20*time.Second, nextDelay(rng, cfg, 6, err))
}

func TestNextDelayServerHintOverridesLocalCap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := Config{BaseDelay: 1200 * time.Millisecond, MaxDelay: 20 * time.Second}

	// Hint above the exponential term and above MaxDelay: the server's
	// advice is honored even past the local ceiling.
	err := errors.New("RESOURCE_EXHAUSTED. RetryDelay: 30s")
	assert.Equal(t, 30*time.Second, nextDelay(rng, cfg, 1, err))

	// Hint below the exponential term: advice never pulls the wait down.
	err = errors.New("RESOURCE_EXHAUSTED. RetryDelay: 1s")
	assert.Equal(t, 4800*time.Millisecond, nextDelay(rng, cfg, 3, err))
}

func TestNextDelayServerHintAtLeastAdvised(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := Config{BaseDelay: 1200 * time.Millisecond, MaxDelay: 20 * time.Second}
	err := errors.New("quota exceeded, RetryDelay: 14s")

	// Base before jitter is max(14000ms, exponential), i.e. at least 14s
	// even though the exponential term for attempt 1 is only 1.2s.
	assert.Equal(t, 14*time.Second, nextDelay(rng, cfg, 1, err))
}

func TestNextDelayFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	// A huge jitter ratio guarantees deeply negative samples eventually;
	// the floor must hold for every one of them.
	cfg := Config{BaseDelay: 300 * time.Millisecond, MaxDelay: time.Second, JitterRatio: 5}
	err := errors.New("rate limit")

	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, nextDelay(rng, cfg, 1, err), MinDelay)
	}
}

func TestNextDelayJitterStaysWithinRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := Config{BaseDelay: 1000 * time.Millisecond, MaxDelay: 20 * time.Second, JitterRatio: 0.25}
	err := errors.New("rate limit")

	for i := 0; i < 1000; i++ {
		d := nextDelay(rng, cfg, 1, err)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}
