package pacing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Common errors returned by the Queue
var (
	// ErrInvalidConcurrency is returned by New when the configured
	// concurrency would permanently stall the queue.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

	// ErrQueueClosed is returned through a job's handle when the queue is
	// closed before the job starts running.
	ErrQueueClosed = errors.New("pacing queue is closed")
)

// Job is an opaque unit of asynchronous work. The context is the queue's
// lifecycle context; a job should treat cancellation as a shutdown signal.
type Job[T any] func(ctx context.Context) (T, error)

// Config holds the tunables for a Queue.
type Config struct {
	// Concurrency is the maximum number of jobs allowed to run at once.
	// Must be at least 1.
	Concurrency int

	// MinInterval is the minimum elapsed time between the start times of
	// consecutive jobs. Zero disables pacing.
	MinInterval time.Duration
}

// entry pairs a submitted job with the handle that delivers its outcome.
// An entry lives in exactly one place at a time: the pending list before
// dispatch, or a single dispatcher goroutine after.
type entry[T any] struct {
	job    Job[T]
	handle *Handle[T]
}

// Queue admits jobs in FIFO order, runs at most Concurrency of them
// simultaneously, and floor-paces consecutive job starts by MinInterval.
// A job's own success or failure never affects other jobs' scheduling.
//
// The queue's counters and pending list are guarded by a mutex; each
// dispatched job runs on its own goroutine and triggers the next dispatch
// when it completes, so the FIFO-and-slot invariants hold under the
// preemptive runtime.
type Queue[T any] struct {
	concurrency int
	minInterval time.Duration
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	running   int
	lastStart time.Time
	pending   []entry[T]
	closed    bool
}

// New creates a Queue with the given configuration. A non-positive
// concurrency is a configuration error: it would silently hang every
// submitted job, so it is rejected eagerly rather than at dispatch time.
func New[T any](cfg Config, logger *slog.Logger) (*Queue[T], error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, cfg.Concurrency)
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue[T]{
		concurrency: cfg.Concurrency,
		minInterval: cfg.MinInterval,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Submit enqueues a job at the tail of the pending sequence and returns the
// handle that will eventually settle with the job's result or error. Submit
// never fails synchronously and accepts jobs regardless of current load; if
// the queue has been closed the returned handle settles immediately with
// ErrQueueClosed.
func (q *Queue[T]) Submit(job Job[T]) *Handle[T] {
	h := newHandle[T]()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		var zero T
		h.settle(zero, ErrQueueClosed)
		return h
	}
	q.pending = append(q.pending, entry[T]{job: job, handle: h})
	pendingLen := len(q.pending)
	q.mu.Unlock()

	q.logger.Debug("job submitted",
		"pending", pendingLen,
		"concurrency", q.concurrency)

	go q.dispatch()
	return h
}

// Close stops the queue. Jobs still waiting in the pending sequence, and
// jobs suspended in their pacing wait, settle with ErrQueueClosed; jobs
// already executing run to completion. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	drained := q.pending
	q.pending = nil
	q.mu.Unlock()

	q.cancel()

	var zero T
	for _, e := range drained {
		e.handle.settle(zero, ErrQueueClosed)
	}

	q.logger.Debug("queue closed", "rejected_pending", len(drained))
}

// dispatch moves at most one pending entry into a free slot. It is
// idempotent and safe to invoke from any goroutine: the slot check, the
// head pop, and the start-time reservation all happen under the lock, so a
// redundant call simply finds nothing to do.
func (q *Queue[T]) dispatch() {
	q.mu.Lock()
	if q.closed || q.running == q.concurrency || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}

	e := q.pending[0]
	q.pending = q.pending[1:]
	q.running++

	// Reserve this job's start time while still holding the lock. Chaining
	// reservations off lastStart keeps consecutive starts at least
	// minInterval apart even when several slots dispatch concurrently.
	now := time.Now()
	startAt := q.lastStart.Add(q.minInterval)
	if startAt.Before(now) {
		startAt = now
	}
	q.lastStart = startAt
	wait := startAt.Sub(now)
	q.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-q.ctx.Done():
			timer.Stop()
			var zero T
			e.handle.settle(zero, ErrQueueClosed)
			q.release()
			return
		}
	}

	q.logger.Debug("job started", "paced_wait", wait)

	value, err := e.job(q.ctx)
	e.handle.settle(value, err)

	q.release()
}

// release frees the slot held by a finished dispatch pass and pulls the
// next pending entry, if any, into it.
func (q *Queue[T]) release() {
	q.mu.Lock()
	q.running--
	q.mu.Unlock()
	q.dispatch()
}
