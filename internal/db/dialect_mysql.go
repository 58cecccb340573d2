package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"

	"github.com/go-sql-driver/mysql"
)

// mysqlDialect serves mysql:// URLs through go-sql-driver. MySQL has no
// connection-open timeout parameter, so SessionSetup issues a session-scoped
// SET max_execution_time on every acquired connection; no client-side
// deadline is applied on top of it.
type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) NormalizeDSN(rawURL string, _ Policy, _ string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"

	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := u.Port()
	if port == "" {
		port = "3306"
	}
	cfg.Addr = net.JoinHostPort(host, port)

	if u.User != nil {
		cfg.User = u.User.Username()
		if password, ok := u.User.Password(); ok {
			cfg.Passwd = password
		}
	}
	if len(u.Path) > 1 {
		cfg.DBName = u.Path[1:]
	}
	cfg.ParseTime = true

	for key, values := range u.Query() {
		if len(values) > 0 {
			if cfg.Params == nil {
				cfg.Params = make(map[string]string)
			}
			cfg.Params[key] = values[0]
		}
	}

	return cfg.FormatDSN(), nil
}

func (mysqlDialect) SessionSetup(ctx context.Context, conn *sql.Conn, policy Policy) error {
	timeoutMs := policy.MaxQueryTimeoutSeconds * 1000
	_, err := conn.ExecContext(ctx, fmt.Sprintf("SET SESSION max_execution_time = %d", timeoutMs))
	return err
}

func (mysqlDialect) ClientDeadline() bool { return false }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return quoteParts(name, "`")
}

func (mysqlDialect) Placeholder(int) string { return "?" }

// MySQL has no schema/database distinction; the connected database is the
// default schema.
func (mysqlDialect) DefaultSchema() string { return "" }

func (mysqlDialect) Schemas(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
		ORDER BY schema_name`)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (mysqlDialect) Tables(ctx context.Context, q Querier, schema string) ([]string, []string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, nil, err
	}
	tables, err := collectStrings(rows)
	if err != nil {
		return nil, nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_type = 'VIEW'
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, nil, err
	}
	views, err := collectStrings(rows)
	if err != nil {
		return nil, nil, err
	}

	return tables, views, nil
}

func (mysqlDialect) Columns(ctx context.Context, q Querier, schema, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col      Column
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.TypeName, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (mysqlDialect) PrimaryKey(ctx context.Context, q Querier, schema, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (mysqlDialect) ForeignKeys(ctx context.Context, q Querier, schema, table string) ([]ForeignKey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT constraint_name, column_name,
		       referenced_table_schema, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name = ? AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		keys     []ForeignKey
		lastName string
	)
	for rows.Next() {
		var name, from, refSchema, refTable, refColumn string
		if err := rows.Scan(&name, &from, &refSchema, &refTable, &refColumn); err != nil {
			return nil, err
		}
		if name != lastName {
			keys = append(keys, ForeignKey{ReferredSchema: refSchema, ReferredTable: refTable})
			lastName = name
		}
		fk := &keys[len(keys)-1]
		fk.ConstrainedColumns = append(fk.ConstrainedColumns, from)
		fk.ReferredColumns = append(fk.ReferredColumns, refColumn)
	}
	return keys, rows.Err()
}

func (mysqlDialect) Indexes(ctx context.Context, q Querier, schema, table string) ([]Index, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT index_name, non_unique, column_name
		FROM information_schema.statistics
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name = ? AND index_name <> 'PRIMARY'
		ORDER BY index_name, seq_in_index`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		indexes  []Index
		lastName string
	)
	for rows.Next() {
		var (
			name, column string
			nonUnique    int
		)
		if err := rows.Scan(&name, &nonUnique, &column); err != nil {
			return nil, err
		}
		if name != lastName {
			indexes = append(indexes, Index{Name: name, Unique: nonUnique == 0})
			lastName = name
		}
		idx := &indexes[len(indexes)-1]
		idx.Columns = append(idx.Columns, column)
	}
	return indexes, rows.Err()
}
