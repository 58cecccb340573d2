package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteDialect serves sqlite:// URLs through the CGo-free modernc driver.
// SQLite has no server-side statement timeout, so the gateway bounds
// execution with a client-side context deadline instead.
type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) NormalizeDSN(rawURL string, _ Policy, _ string) (string, error) {
	path := strings.TrimPrefix(rawURL, "sqlite://")
	if path == "" || path == "/" {
		return ":memory:", nil
	}
	// sqlite:///relative.db and sqlite:////abs/path.db keep one leading
	// slash for absolute paths.
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		path = strings.TrimPrefix(path, "/")
	} else if strings.HasPrefix(path, "//") {
		path = path[1:]
	}
	return path, nil
}

func (sqliteDialect) SessionSetup(context.Context, *sql.Conn, Policy) error {
	return nil
}

func (sqliteDialect) ClientDeadline() bool { return true }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return quoteParts(name, `"`)
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) DefaultSchema() string { return "main" }

func (sqliteDialect) Schemas(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM pragma_database_list ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (sqliteDialect) Tables(ctx context.Context, q Querier, _ string) ([]string, []string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, nil, err
	}
	tables, err := collectStrings(rows)
	if err != nil {
		return nil, nil, err
	}

	rows, err = q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'view' ORDER BY name`)
	if err != nil {
		return nil, nil, err
	}
	views, err := collectStrings(rows)
	if err != nil {
		return nil, nil, err
	}

	return tables, views, nil
}

func (sqliteDialect) Columns(ctx context.Context, q Querier, _, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, type, "notnull" FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col     Column
			notNull int
		)
		if err := rows.Scan(&col.Name, &col.TypeName, &notNull); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (sqliteDialect) PrimaryKey(ctx context.Context, q Querier, _, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, table)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (sqliteDialect) ForeignKeys(ctx context.Context, q Querier, _, table string) ([]ForeignKey, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Rows of one constraint share an id; composite keys span several rows.
	var (
		keys   []ForeignKey
		lastID = -1
	)
	for rows.Next() {
		var (
			id       int
			referred string
			from     string
			to       sql.NullString
		)
		if err := rows.Scan(&id, &referred, &from, &to); err != nil {
			return nil, err
		}
		if id != lastID {
			keys = append(keys, ForeignKey{ReferredTable: referred})
			lastID = id
		}
		fk := &keys[len(keys)-1]
		fk.ConstrainedColumns = append(fk.ConstrainedColumns, from)
		fk.ReferredColumns = append(fk.ReferredColumns, to.String)
	}
	return keys, rows.Err()
}

func (d sqliteDialect) Indexes(ctx context.Context, q Querier, _, table string) ([]Index, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, "unique" FROM pragma_index_list(?) WHERE origin <> 'pk' ORDER BY name`, table)
	if err != nil {
		return nil, err
	}

	type indexHead struct {
		name   string
		unique bool
	}
	var heads []indexHead
	for rows.Next() {
		var (
			h         indexHead
			uniqueInt int
		)
		if err := rows.Scan(&h.name, &uniqueInt); err != nil {
			rows.Close()
			return nil, err
		}
		h.unique = uniqueInt != 0
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	indexes := make([]Index, 0, len(heads))
	for _, h := range heads {
		colRows, err := q.QueryContext(ctx,
			`SELECT name FROM pragma_index_info(?) WHERE name IS NOT NULL ORDER BY seqno`, h.name)
		if err != nil {
			return nil, err
		}
		cols, err := collectStrings(colRows)
		if err != nil {
			return nil, fmt.Errorf("reading columns of index %s: %w", h.name, err)
		}
		indexes = append(indexes, Index{Name: h.name, Unique: h.unique, Columns: cols})
	}
	return indexes, nil
}
