// Package retry wraps fallible asynchronous operations with
// exponential-backoff retries. Transient failures (rate limits, quota
// exhaustion, flaky network) are retried with jittered, growing delays that
// respect server-advertised retry hints; everything else propagates to the
// caller immediately and unchanged.
package retry
