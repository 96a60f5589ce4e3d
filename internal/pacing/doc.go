// Package pacing provides a bounded-concurrency job queue that enforces a
// minimum interval between the start times of consecutive jobs. It is the
// admission layer placed in front of rate-limited remote APIs: callers
// submit opaque asynchronous jobs and receive a handle that eventually
// settles with the job's result or error.
package pacing
