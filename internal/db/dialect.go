package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Querier is the subset of database/sql used by introspection queries.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect captures per-backend behavior: DSN normalization, session-level
// timeout setup, the timeout execution strategy and catalog introspection.
// The variant is resolved once from the connection URL scheme at startup;
// adding a backend means adding a variant, not new branches.
type Dialect interface {
	// Name is the user-facing dialect name (sqlite, postgres, mysql).
	Name() string

	// DriverName returns the database/sql driver to open.
	DriverName() string

	// NormalizeDSN converts the user-supplied URL into the driver-native
	// connection string, folding in the server-side timeout and schema
	// override where the backend supports them.
	NormalizeDSN(rawURL string, policy Policy, schema string) (string, error)

	// SessionSetup runs per-connection configuration after a connection is
	// acquired from the pool. Only mysql needs it (session-scoped
	// max_execution_time); sqlite and postgres are no-ops.
	SessionSetup(ctx context.Context, conn *sql.Conn, policy Policy) error

	// ClientDeadline reports whether statement execution must be bounded by
	// a client-side context deadline. True only for sqlite, which has no
	// server-side timeout; postgres and mysql rely on the server so the
	// client never races the server's statement state.
	ClientDeadline() bool

	// QuoteIdentifier wraps an already-validated identifier in the
	// dialect's quoting. Schema-qualified names are quoted per part.
	QuoteIdentifier(name string) string

	// Placeholder returns the parameter placeholder for the n-th parameter
	// (1-based).
	Placeholder(n int) string

	// DefaultSchema is the schema assumed when the caller names none.
	DefaultSchema() string

	// Schemas lists schema names, system catalogs excluded.
	Schemas(ctx context.Context, q Querier) ([]string, error)

	// Tables lists table and view names of a schema.
	Tables(ctx context.Context, q Querier, schema string) (tables, views []string, err error)

	// Columns lists a table's columns in ordinal order. An empty result
	// means the table does not exist.
	Columns(ctx context.Context, q Querier, schema, table string) ([]Column, error)

	// PrimaryKey lists the primary key column names in key order.
	PrimaryKey(ctx context.Context, q Querier, schema, table string) ([]string, error)

	// ForeignKeys lists the table's outbound foreign key constraints.
	ForeignKeys(ctx context.Context, q Querier, schema, table string) ([]ForeignKey, error)

	// Indexes lists the table's non-primary indexes.
	Indexes(ctx context.Context, q Querier, schema, table string) ([]Index, error)
}

// ResolveDialect picks the dialect variant from the connection URL scheme.
func ResolveDialect(rawURL string) (Dialect, error) {
	switch {
	case strings.HasPrefix(rawURL, "sqlite://"):
		return sqliteDialect{}, nil
	case strings.HasPrefix(rawURL, "postgresql://"), strings.HasPrefix(rawURL, "postgres://"):
		return postgresDialect{}, nil
	case strings.HasPrefix(rawURL, "mysql://"):
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme in %q (expected sqlite://, postgresql:// or mysql://)", rawURL)
	}
}

// quoteParts quotes each dot-separated part of a validated identifier with
// the given quote character, doubling embedded quotes.
func quoteParts(name string, quote string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = quote + strings.ReplaceAll(part, quote, quote+quote) + quote
	}
	return strings.Join(parts, ".")
}

// collectStrings drains a single-column string result.
func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
