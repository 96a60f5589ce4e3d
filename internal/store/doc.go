// Package store defines the persistence interfaces and errors used by the
// application. Implementations live under internal/platform; the rest of
// the code depends only on these interfaces.
package store
