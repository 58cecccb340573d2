package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"github.com/woonstadrotterdam/sqlgate/internal/db/sqltext"
)

// Gateway owns the pooled connection source for one database and executes
// statements under the configured policy. Connections are acquired per call
// and always released; a connection whose statement was interrupted is
// discarded instead of going back into the pool dirty.
type Gateway struct {
	pool    *sql.DB
	dialect Dialect
	policy  Policy
	schema  string
}

// Open resolves the dialect from the URL scheme, normalizes the DSN and
// opens the pool. The pool is pinged so a bad URL fails at startup, not on
// the first request.
func Open(rawURL string, policy Policy, schemaOverride string) (*Gateway, error) {
	dialect, err := ResolveDialect(rawURL)
	if err != nil {
		return nil, err
	}

	dsn, err := dialect.NormalizeDSN(rawURL, policy, schemaOverride)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s pool: %w", dialect.Name(), err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), policy.Timeout())
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to %s database: %w", dialect.Name(), err)
	}

	slog.Info("Database pool opened",
		"dialect", dialect.Name(),
		"read_only", policy.ReadOnly,
		"max_query_timeout", policy.MaxQueryTimeoutSeconds,
		"max_result_rows", policy.MaxResultRows,
	)

	return &Gateway{pool: pool, dialect: dialect, policy: policy, schema: schemaOverride}, nil
}

// Close disposes the pool. In-flight requests finish on their own
// connections before the pool drains.
func (g *Gateway) Close() error {
	return g.pool.Close()
}

func (g *Gateway) Dialect() Dialect { return g.dialect }
func (g *Gateway) Policy() Policy   { return g.policy }

// Schema returns the configured schema override, empty when none is set.
func (g *Gateway) Schema() string { return g.schema }

// ExecuteReadOnly runs a statement the caller has already classified as
// read-only. It executes on the driver's default autocommit, single
// statement, no retry.
func (g *Gateway) ExecuteReadOnly(ctx context.Context, query string) (*ResultSet, error) {
	conn, err := g.acquire(ctx)
	if err != nil {
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	defer conn.Close()

	execCtx, cancel := g.execContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := conn.QueryContext(execCtx, query)
	if err != nil {
		g.discardOnInterrupt(conn, err)
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}

	result, err := g.materialize(execCtx, rows, g.policy.MaxResultRows)
	if err != nil {
		g.discardOnInterrupt(conn, err)
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	result.Duration = time.Since(start)

	return result, nil
}

// ExecuteWithPolicy runs a statement under the read-only policy. This is the
// only path that can mutate state: it opens an explicit transaction, commits
// on success and rolls back on any error.
func (g *Gateway) ExecuteWithPolicy(ctx context.Context, query string) (*ResultSet, error) {
	if !g.policy.Permits(query) {
		return nil, &PolicyViolationError{
			Message: "only read-only queries are allowed in read-only mode",
		}
	}

	conn, err := g.acquire(ctx)
	if err != nil {
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	defer conn.Close()

	execCtx, cancel := g.execContext(ctx)
	defer cancel()

	tx, err := conn.BeginTx(execCtx, nil)
	if err != nil {
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}

	start := time.Now()
	result, err := g.runInTx(execCtx, tx, query)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Error("Rollback failed", "error", rbErr)
		}
		g.discardOnInterrupt(conn, err)
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}

	if err := tx.Commit(); err != nil {
		g.discardOnInterrupt(conn, err)
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	result.Duration = time.Since(start)

	return result, nil
}

// RunIntrospection executes a metadata callback against a live connection.
// Introspection never issues DDL or DML; it is read-only by construction.
func (g *Gateway) RunIntrospection(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	conn, err := g.acquire(ctx)
	if err != nil {
		return mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	defer conn.Close()

	execCtx, cancel := g.execContext(ctx)
	defer cancel()

	if err := fn(execCtx, conn); err != nil {
		g.discardOnInterrupt(conn, err)
		return mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	return nil
}

// QueryRows runs a parameterized read-only statement built by the gateway
// itself (table sampling, unique-value counting) and materializes at most
// limit rows. Identifiers embedded in query must already be validated and
// quoted.
func (g *Gateway) QueryRows(ctx context.Context, query string, limit int, args ...any) (*ResultSet, error) {
	conn, err := g.acquire(ctx)
	if err != nil {
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	defer conn.Close()

	execCtx, cancel := g.execContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := conn.QueryContext(execCtx, query, args...)
	if err != nil {
		g.discardOnInterrupt(conn, err)
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}

	result, err := g.materialize(execCtx, rows, limit)
	if err != nil {
		g.discardOnInterrupt(conn, err)
		return nil, mapError(err, g.policy.MaxQueryTimeoutSeconds)
	}
	result.Duration = time.Since(start)

	return result, nil
}

// acquire checks a connection out of the pool and applies the dialect's
// session setup. The caller owns the connection until it closes it.
func (g *Gateway) acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := g.pool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.dialect.SessionSetup(ctx, conn, g.policy); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session setup failed: %w", err)
	}
	return conn, nil
}

// execContext bounds execution with a client-side deadline for dialects
// without a server-side timeout.
func (g *Gateway) execContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.dialect.ClientDeadline() {
		return context.WithTimeout(ctx, g.policy.Timeout())
	}
	return context.WithCancel(ctx)
}

// discardOnInterrupt marks the underlying driver connection bad when a
// statement was interrupted mid-flight, so Close drops it from the pool
// instead of returning it with unknown statement state.
func (g *Gateway) discardOnInterrupt(conn *sql.Conn, cause error) {
	mapped := mapError(cause, g.policy.MaxQueryTimeoutSeconds)
	if _, ok := mapped.(*QueryTimeoutError); !ok {
		return
	}
	_ = conn.Raw(func(any) error {
		return driver.ErrBadConn
	})
}

// materialize drains at most limit rows into the normalized result. Reading
// exactly limit rows flags the result as possibly truncated.
func (g *Gateway) materialize(ctx context.Context, rows *sql.Rows, limit int) (*ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error identifying columns: %w", err)
	}

	result := &ResultSet{
		Columns: cols,
		Rows:    make([][]Scalar, 0, min(limit, 64)),
		HasRows: true,
		Limit:   limit,
	}

	colPointers := make([]any, len(cols))
	colValues := make([]any, len(cols))

	for len(result.Rows) < limit && rows.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		for i := range colValues {
			colValues[i] = nil
			colPointers[i] = &colValues[i]
		}

		if err := rows.Scan(colPointers...); err != nil {
			return nil, fmt.Errorf("error scanning rows: %w", err)
		}

		row := make([]Scalar, len(cols))
		for i, v := range colValues {
			row[i] = NewScalar(v)
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Truncated = len(result.Rows) == limit
	return result, nil
}

// runInTx branches on the statement class: row-returning statements are
// queried and materialized, everything else is executed for its affected-row
// count.
func (g *Gateway) runInTx(ctx context.Context, tx *sql.Tx, query string) (*ResultSet, error) {
	if sqltext.IsReadOnly(query) {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return g.materialize(ctx, rows, g.policy.MaxResultRows)
	}

	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		affected = -1
	}
	return &ResultSet{RowsAffected: affected}, nil
}
