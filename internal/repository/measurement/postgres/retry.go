package postgres

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oshokin/calibration-helper/internal/logger"
)

// DefaultRetryDelays are the pauses between attempts of a retried statement.
//
//nolint:gochecknoglobals // Read-only default.
var DefaultRetryDelays = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

//nolint:gochecknoglobals // Read-only lookup table.
var retriableCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
}

// withRetry runs fn once and then again after every delay while the error is retriable.
func withRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	err := fn()

	for attempt, delay := range delays {
		if err == nil || !isRetriable(err) {
			return err
		}

		logger.WarnKV(ctx, "Retrying database statement", "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}

		err = fn()
	}

	return err
}

// isRetriable reports whether err is a transient connection problem.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retriableCodes[pgErr.Code]

		return ok
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return os.IsTimeout(err)
}

// isUniqueViolation reports whether err is a primary key conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
