package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError reports a malformed identifier or limit. It is raised
// before any connection is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PolicyViolationError reports a write attempted while the gateway runs in
// read-only mode. It is raised before any connection is touched.
type PolicyViolationError struct {
	Message string
}

func (e *PolicyViolationError) Error() string {
	return e.Message
}

// QueryTimeoutError reports a statement interrupted by the client-side
// deadline (sqlite) or the server-side timeout (postgres, mysql).
type QueryTimeoutError struct {
	Seconds int
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("query execution exceeded %d seconds", e.Seconds)
}

// DatabaseError wraps a backend driver error, keeping its message verbatim.
type DatabaseError struct {
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a table or column that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// Postgres cancels a statement hitting statement_timeout with SQLSTATE 57014
// (query_canceled).
const pgQueryCanceled = "57014"

// MySQL reports max_execution_time interruption as 3024 and an operator KILL
// QUERY as 1317.
const (
	mysqlExecTimeExceeded = 3024
	mysqlQueryInterrupted = 1317
)

// mapError classifies a driver error into the gateway taxonomy. Errors that
// already belong to the taxonomy pass through unchanged.
func mapError(err error, timeoutSeconds int) error {
	if err == nil {
		return nil
	}

	var (
		validation *ValidationError
		policy     *PolicyViolationError
		timeout    *QueryTimeoutError
		database   *DatabaseError
		notFound   *NotFoundError
	)
	if errors.As(err, &validation) || errors.As(err, &policy) ||
		errors.As(err, &timeout) || errors.As(err, &database) ||
		errors.As(err, &notFound) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &QueryTimeoutError{Seconds: timeoutSeconds}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgQueryCanceled {
		return &QueryTimeoutError{Seconds: timeoutSeconds}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlExecTimeExceeded || myErr.Number == mysqlQueryInterrupted {
			return &QueryTimeoutError{Seconds: timeoutSeconds}
		}
	}

	return &DatabaseError{Err: err}
}
