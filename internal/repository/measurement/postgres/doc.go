// Package postgres stores calibration records in a PostgreSQL table through
// database/sql and the pgx driver. Transient connection failures are retried
// with a fixed list of delays.
package postgres
