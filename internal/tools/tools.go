// Package tools exposes the gateway operations callable by a protocol or
// CLI front end. Every operation returns formatted text and never an error:
// all failures are converted to a user-facing message at this boundary.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/woonstadrotterdam/sqlgate/internal/db"
	"github.com/woonstadrotterdam/sqlgate/internal/db/sqltext"
	"github.com/woonstadrotterdam/sqlgate/internal/format"
)

// Tools bundles the gateway and introspector behind the operation surface.
type Tools struct {
	gw   *db.Gateway
	insp *db.Introspector
}

func New(gw *db.Gateway) *Tools {
	return &Tools{gw: gw, insp: db.NewIntrospector(gw)}
}

// ExecuteReadQuery runs a statement that must classify as read-only.
func (t *Tools) ExecuteReadQuery(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return "Error: Invalid SQL query provided."
	}
	if !sqltext.IsReadOnly(query) {
		return "Error: Only read-only queries (SELECT, SHOW, DESCRIBE, EXPLAIN, WITH) are allowed in this tool. Use execute_query for write operations."
	}

	result, err := t.gw.ExecuteReadOnly(ctx, query)
	if err != nil {
		return t.message(err)
	}
	return format.Result(result)
}

// ExecuteQuery runs a statement with write access, subject to the read-only
// policy.
func (t *Tools) ExecuteQuery(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return "Error: Invalid SQL query provided."
	}

	result, err := t.gw.ExecuteWithPolicy(ctx, query)
	if err != nil {
		return t.message(err)
	}
	return format.Result(result)
}

// ListSchemas lists all schemas in the database.
func (t *Tools) ListSchemas(ctx context.Context) string {
	schemas, err := t.insp.ListSchemas(ctx)
	if err != nil {
		return t.message(err)
	}
	return format.SchemaList(schemas)
}

// ListTables lists the tables of one schema, or of every schema when none is
// named.
func (t *Tools) ListTables(ctx context.Context, schema string) string {
	if schema != "" && !sqltext.ValidIdentifier(schema) {
		return fmt.Sprintf("Error: Invalid schema name '%s'", schema)
	}

	if schema != "" {
		listing, err := t.insp.ListTables(ctx, schema)
		if err != nil {
			return t.message(err)
		}
		return format.TableListing(listing)
	}

	schemas, err := t.insp.ListSchemas(ctx)
	if err != nil {
		return t.message(err)
	}

	var sections []string
	for _, name := range schemas {
		listing, err := t.insp.ListTables(ctx, name)
		if err != nil {
			return t.message(err)
		}
		if len(listing.Tables) == 0 && len(listing.Views) == 0 {
			continue
		}
		sections = append(sections, format.TableListing(listing))
	}
	if len(sections) == 0 {
		return "No tables found."
	}
	return strings.Join(sections, "\n\n")
}

// DescribeTable describes a table's structure.
func (t *Tools) DescribeTable(ctx context.Context, table, schema string) string {
	if !sqltext.ValidIdentifier(table) {
		return fmt.Sprintf("Error: Invalid table name '%s'", table)
	}
	if schema != "" && !sqltext.ValidIdentifier(schema) {
		return fmt.Sprintf("Error: Invalid schema name '%s'", schema)
	}

	desc, err := t.insp.DescribeTable(ctx, table, schema)
	if err != nil {
		return t.message(err)
	}
	return format.TableDescription(desc)
}

// GetTableData samples rows from a table under the clamped limit.
func (t *Tools) GetTableData(ctx context.Context, table, schema string, limit int) string {
	if !sqltext.ValidIdentifier(table) {
		return fmt.Sprintf("Error: Invalid table name '%s'", table)
	}
	if schema != "" && !sqltext.ValidIdentifier(schema) {
		return fmt.Sprintf("Error: Invalid schema name '%s'", schema)
	}

	result, err := t.gw.TableSample(ctx, table, schema, limit)
	if err != nil {
		return t.message(err)
	}
	return format.TableSample(tableRef(table, schema), result)
}

// GetUniqueValues reports the distinct values of a column with their
// frequencies, most frequent first. The column is checked against the live
// column list before it is embedded in SQL.
func (t *Tools) GetUniqueValues(ctx context.Context, table, column, schema string, limit int) string {
	if !sqltext.ValidIdentifier(table) {
		return fmt.Sprintf("Error: Invalid table name '%s'", table)
	}
	if !sqltext.ValidIdentifier(column) {
		return fmt.Sprintf("Error: Invalid column name '%s'", column)
	}
	if schema != "" && !sqltext.ValidIdentifier(schema) {
		return fmt.Sprintf("Error: Invalid schema name '%s'", schema)
	}

	columns, err := t.insp.ColumnNames(ctx, table, schema)
	if err != nil {
		return t.message(err)
	}
	ref := tableRef(table, schema)
	if !slices.Contains(columns, column) {
		return fmt.Sprintf("Column '%s' not found in table %s. Available columns: %s",
			column, ref, strings.Join(columns, ", "))
	}

	result, err := t.gw.UniqueValues(ctx, table, column, schema, limit)
	if err != nil {
		return t.message(err)
	}
	return format.UniqueValues(ref, column, result)
}

// GetTableRelationships reports the foreign key structure across the
// database.
func (t *Tools) GetTableRelationships(ctx context.Context) string {
	relations, err := t.insp.Relationships(ctx)
	if err != nil {
		return t.message(err)
	}
	return format.Relationships(relations)
}

// message converts a gateway error into its user-facing text. Unexpected
// errors are logged with detail and reported generically.
func (t *Tools) message(err error) string {
	var (
		validation *db.ValidationError
		policy     *db.PolicyViolationError
		timeout    *db.QueryTimeoutError
		database   *db.DatabaseError
		notFound   *db.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		return "Error: " + validation.Message
	case errors.As(err, &policy):
		return "Error: Only read-only queries are allowed in read-only mode."
	case errors.As(err, &timeout):
		return fmt.Sprintf("Query timeout: Query execution exceeded %d seconds", timeout.Seconds)
	case errors.As(err, &database):
		return "Database error: " + database.Err.Error()
	case errors.As(err, &notFound):
		return notFound.Message
	default:
		slog.Error("Unexpected error in tool call", "error", err)
		return "Unexpected error: an internal error occurred"
	}
}

func tableRef(table, schema string) string {
	if schema != "" {
		return schema + "." + table
	}
	return table
}
