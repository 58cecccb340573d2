package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapErrorTimeouts(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"client deadline", context.DeadlineExceeded},
		{"wrapped deadline", fmt.Errorf("query failed: %w", context.DeadlineExceeded)},
		{"postgres statement_timeout", &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}},
		{"mysql max_execution_time", &mysql.MySQLError{Number: 3024, Message: "Query execution was interrupted"}},
		{"mysql kill query", &mysql.MySQLError{Number: 1317, Message: "Query execution was interrupted"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapError(tc.err, 30)
			var timeout *QueryTimeoutError
			if !errors.As(mapped, &timeout) {
				t.Fatalf("mapError(%v) = %T, want *QueryTimeoutError", tc.err, mapped)
			}
			if timeout.Seconds != 30 {
				t.Errorf("timeout seconds = %d, want 30", timeout.Seconds)
			}
		})
	}
}

func TestMapErrorDatabase(t *testing.T) {
	backendErr := &pgconn.PgError{Code: "42P01", Message: `relation "missing" does not exist`}
	mapped := mapError(backendErr, 30)

	var dbErr *DatabaseError
	if !errors.As(mapped, &dbErr) {
		t.Fatalf("mapError = %T, want *DatabaseError", mapped)
	}
	if !errors.Is(mapped, backendErr) {
		t.Error("DatabaseError should wrap the backend error")
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	for _, err := range []error{
		&ValidationError{Message: "invalid table name 'x y'"},
		&PolicyViolationError{Message: "blocked"},
		&QueryTimeoutError{Seconds: 5},
		&NotFoundError{Message: "Table 'ghost' not found."},
	} {
		if mapped := mapError(err, 30); mapped != err {
			t.Errorf("mapError(%T) = %T, want identical error", err, mapped)
		}
	}
}

func TestMapErrorNil(t *testing.T) {
	if mapError(nil, 30) != nil {
		t.Error("mapError(nil) should be nil")
	}
}
