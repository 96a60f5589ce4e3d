package pacing

import "context"

// Handle is the caller-visible future for a submitted job. It settles
// exactly once, with either the job's return value or its propagated error,
// and is the only state the queue shares with callers.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// settle records the outcome and releases all waiters. It must be called
// exactly once; the queue guarantees this because an entry is owned by a
// single dispatcher (or by Close) at any moment.
func (h *Handle[T]) settle(value T, err error) {
	h.value = value
	h.err = err
	close(h.done)
}

// Wait blocks until the job settles or the caller's context is cancelled.
// Cancellation abandons the wait only; the job itself still runs to
// completion and other waiters are unaffected.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the handle has settled.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}
