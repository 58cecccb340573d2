package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// postgresDialect serves postgresql:// URLs through the pgx stdlib driver.
// The statement timeout and the optional search_path override are pushed
// into the server as connection-open runtime parameters, so no client-side
// deadline is applied.
type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) NormalizeDSN(rawURL string, policy Policy, schema string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid postgres URL: %w", err)
	}
	if u.Scheme == "postgres" {
		u.Scheme = "postgresql"
	}

	// pgx forwards unrecognized query parameters to the server as runtime
	// settings at connection open.
	params := u.Query()
	params.Set("application_name", "sqlgate")
	params.Set("statement_timeout", strconv.Itoa(policy.MaxQueryTimeoutSeconds*1000))
	if schema != "" {
		params.Set("search_path", schema)
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}

func (postgresDialect) SessionSetup(context.Context, *sql.Conn, Policy) error {
	return nil
}

func (postgresDialect) ClientDeadline() bool { return false }

func (postgresDialect) QuoteIdentifier(name string) string {
	return quoteParts(name, `"`)
}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (postgresDialect) DefaultSchema() string { return "public" }

func (postgresDialect) Schemas(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT LIKE 'pg\_%' AND schema_name <> 'information_schema'
		ORDER BY schema_name`)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (d postgresDialect) Tables(ctx context.Context, q Querier, schema string) ([]string, []string, error) {
	schema = orDefault(schema, d.DefaultSchema())

	rows, err := q.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
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
		WHERE table_schema = $1 AND table_type = 'VIEW'
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

func (d postgresDialect) Columns(ctx context.Context, q Querier, schema, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, orDefault(schema, d.DefaultSchema()), table)
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

func (d postgresDialect) PrimaryKey(ctx context.Context, q Querier, schema, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, orDefault(schema, d.DefaultSchema()), table)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (d postgresDialect) ForeignKeys(ctx context.Context, q Querier, schema, table string) ([]ForeignKey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name,
		       ccu.table_schema, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`,
		orDefault(schema, d.DefaultSchema()), table)
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

func (d postgresDialect) Indexes(ctx context.Context, q Querier, schema, table string) ([]Index, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT i.relname, ix.indisunique, a.attname
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1 AND t.relname = $2 AND NOT ix.indisprimary
		ORDER BY i.relname, a.attnum`, orDefault(schema, d.DefaultSchema()), table)
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
			unique       bool
		)
		if err := rows.Scan(&name, &unique, &column); err != nil {
			return nil, err
		}
		if name != lastName {
			indexes = append(indexes, Index{Name: name, Unique: unique})
			lastName = name
		}
		idx := &indexes[len(indexes)-1]
		idx.Columns = append(idx.Columns, column)
	}
	return indexes, rows.Err()
}

// orDefault substitutes the dialect default when the caller named no schema.
func orDefault(schema, fallback string) string {
	if strings.TrimSpace(schema) == "" {
		return fallback
	}
	return schema
}
