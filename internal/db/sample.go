package db

import (
	"context"
	"fmt"

	"github.com/woonstadrotterdam/sqlgate/internal/db/sqltext"
)

// TableSample reads up to limit rows from a table. The identifiers are
// validated before any SQL is built; the limit travels as a bind parameter.
func (g *Gateway) TableSample(ctx context.Context, table, schema string, limit int) (*ResultSet, error) {
	qualified, err := g.qualify(table, schema)
	if err != nil {
		return nil, err
	}
	limit = g.policy.Clamp(limit)

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %s", qualified, g.dialect.Placeholder(1))
	return g.QueryRows(ctx, query, limit, limit)
}

// UniqueValues counts the distinct non-NULL values of a column, most
// frequent first, ties broken by value. The caller is responsible for
// checking the column against the live column list first.
func (g *Gateway) UniqueValues(ctx context.Context, table, column, schema string, limit int) (*ResultSet, error) {
	qualified, err := g.qualify(table, schema)
	if err != nil {
		return nil, err
	}
	if !sqltext.ValidIdentifier(column) {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid column name '%s'", column)}
	}
	limit = g.policy.Clamp(limit)

	quotedColumn := g.dialect.QuoteIdentifier(column)
	query := fmt.Sprintf(
		"SELECT %[1]s, COUNT(%[1]s) AS frequency FROM %[2]s WHERE %[1]s IS NOT NULL "+
			"GROUP BY %[1]s ORDER BY frequency DESC, %[1]s LIMIT %[3]s",
		quotedColumn, qualified, g.dialect.Placeholder(1),
	)
	return g.QueryRows(ctx, query, limit, limit)
}

// qualify validates the table and optional schema names and returns the
// quoted, schema-qualified table reference.
func (g *Gateway) qualify(table, schema string) (string, error) {
	if !sqltext.ValidIdentifier(table) {
		return "", &ValidationError{Message: fmt.Sprintf("invalid table name '%s'", table)}
	}
	if schema != "" {
		if !sqltext.ValidIdentifier(schema) {
			return "", &ValidationError{Message: fmt.Sprintf("invalid schema name '%s'", schema)}
		}
		return g.dialect.QuoteIdentifier(schema) + "." + g.dialect.QuoteIdentifier(table), nil
	}
	return g.dialect.QuoteIdentifier(table), nil
}
