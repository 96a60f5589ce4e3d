// Package postgres provides PostgreSQL implementations of the store
// interfaces. Queries go through the store.DBTX abstraction so they work
// with a plain connection or inside a transaction.
package postgres
