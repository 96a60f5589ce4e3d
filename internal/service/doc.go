// Package service contains the application's use-case layer. It composes
// the request governor (pacing queue and backoff retrier) around the
// vision detector, and records completed runs to the optional detection
// history store.
package service
