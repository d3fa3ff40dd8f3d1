// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver, and owns the embedded goose migrations.
//
// Unique constraint violations are translated to the store package's
// duplicate errors so callers can resolve insert races by re-reading.
package postgres
