// Package format renders normalized results and schema descriptors into the
// gateway's canonical text-table form.
package format

import (
	"fmt"
	"strings"

	"github.com/woonstadrotterdam/sqlgate/internal/db"
)

// Result renders a normalized result set. Row-returning results become a
// text table with a possible truncation notice; everything else becomes an
// affected-row message.
func Result(rs *db.ResultSet) string {
	if rs == nil {
		return "Query executed successfully."
	}

	if !rs.HasRows {
		switch {
		case rs.RowsAffected < 0:
			return "Query executed successfully."
		case rs.RowsAffected == 0:
			return "Query executed successfully. No rows affected."
		case rs.RowsAffected == 1:
			return "Query executed successfully. 1 row affected."
		default:
			return fmt.Sprintf("Query executed successfully. %d rows affected.", rs.RowsAffected)
		}
	}

	if len(rs.Rows) == 0 {
		return "Query executed successfully. No rows returned."
	}

	notice := ""
	if rs.Truncated {
		notice = fmt.Sprintf(
			"\n\nNote: Results limited to %d rows. There may be additional rows.", rs.Limit)
	}

	return fmt.Sprintf("Query executed successfully. %d rows returned.%s\n\n%s",
		len(rs.Rows), notice, Table(rs))
}

// Table renders just the tabular part: headers joined by ", ", a dash rule
// sized to the header width, one comma-joined line per row with NULL for
// null cells.
func Table(rs *db.ResultSet) string {
	lines := make([]string, 0, len(rs.Rows)+2)
	lines = append(lines, strings.Join(rs.Columns, ", "))

	width := 0
	for _, col := range rs.Columns {
		width += len(col) + 2
	}
	lines = append(lines, strings.Repeat("-", width))

	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell.String()
		}
		lines = append(lines, strings.Join(cells, ", "))
	}

	return strings.Join(lines, "\n")
}

// SchemaList renders the available schema names.
func SchemaList(schemas []string) string {
	if len(schemas) == 0 {
		return "No schemas found in database."
	}

	lines := []string{"Available schemas:"}
	for _, schema := range schemas {
		lines = append(lines, "- "+schema)
	}
	return strings.Join(lines, "\n")
}

// TableListing renders the tables and views of one schema.
func TableListing(listing *db.TableListing) string {
	if len(listing.Tables) == 0 && len(listing.Views) == 0 {
		return fmt.Sprintf("No tables found in schema '%s'.", listing.Schema)
	}

	var lines []string
	if len(listing.Tables) > 0 {
		lines = append(lines, fmt.Sprintf("Tables in schema '%s':", listing.Schema))
		for _, table := range listing.Tables {
			lines = append(lines, "- "+table)
		}
	}
	if len(listing.Views) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("Views in schema '%s':", listing.Schema))
		for _, view := range listing.Views {
			lines = append(lines, "- "+view)
		}
	}
	return strings.Join(lines, "\n")
}

// TableDescription renders a full table descriptor: columns with PK and NOT
// NULL markers, then foreign keys and indexes when present.
func TableDescription(t *db.Table) string {
	name := t.Name
	if t.Schema != "" {
		name = t.Schema + "." + t.Name
	}

	primary := make(map[string]bool, len(t.PrimaryKey))
	for _, col := range t.PrimaryKey {
		primary[col] = true
	}

	lines := []string{fmt.Sprintf("Table: %s", name), "", "Columns:"}
	for _, col := range t.Columns {
		pkMarker := ""
		if primary[col.Name] {
			pkMarker = " (PK)"
		}
		nullMarker := ""
		if !col.Nullable {
			nullMarker = " NOT NULL"
		}
		lines = append(lines, fmt.Sprintf("- %s%s: %s%s", col.Name, pkMarker, col.TypeName, nullMarker))
	}

	if len(t.ForeignKeys) > 0 {
		lines = append(lines, "", "Foreign Keys:")
		for _, fk := range t.ForeignKeys {
			referred := fk.ReferredTable
			if fk.ReferredSchema != "" {
				referred = fk.ReferredSchema + "." + fk.ReferredTable
			}
			lines = append(lines, fmt.Sprintf("- %s -> %s(%s)",
				strings.Join(fk.ConstrainedColumns, ", "),
				referred,
				strings.Join(fk.ReferredColumns, ", ")))
		}
	}

	if len(t.Indexes) > 0 {
		lines = append(lines, "", "Indexes:")
		for _, idx := range t.Indexes {
			unique := ""
			if idx.Unique {
				unique = "UNIQUE "
			}
			lines = append(lines, fmt.Sprintf("- %s%s: %s",
				unique, idx.Name, strings.Join(idx.Columns, ", ")))
		}
	}

	return strings.Join(lines, "\n")
}

// TableSample renders sampled table rows with the sampling header.
func TableSample(tableRef string, rs *db.ResultSet) string {
	if len(rs.Rows) == 0 {
		return fmt.Sprintf("No data found in table %s.", tableRef)
	}

	notice := ""
	if rs.Truncated {
		notice = fmt.Sprintf(
			"\n\nNote: Results limited to %d rows. There may be additional rows.", rs.Limit)
	}

	return fmt.Sprintf("Sample data from %s (limit %d):\n\n%s%s",
		tableRef, rs.Limit, Table(rs), notice)
}

// UniqueValues renders a value-frequency report. Rows are (value, count)
// pairs ordered by the query.
func UniqueValues(tableRef, column string, rs *db.ResultSet) string {
	if len(rs.Rows) == 0 {
		return fmt.Sprintf("No values found in column '%s' of table %s.", column, tableRef)
	}

	header := fmt.Sprintf("Unique values in %s.%s", tableRef, column)
	if rs.Truncated {
		header += fmt.Sprintf(" (limited to %d values)", rs.Limit)
	}

	lines := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if len(row) < 2 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (count: %s)", row[0].String(), row[1].String()))
	}

	return header + ":\n\n" + strings.Join(lines, "\n")
}

// Relationships renders the foreign key structure of the whole database.
func Relationships(schemas []db.SchemaRelations) string {
	if len(schemas) == 0 {
		return "No pre-defined foreign key relationships found."
	}

	lines := []string{"Table Relationships (Foreign Key Structure):"}
	for _, schema := range schemas {
		lines = append(lines, "", fmt.Sprintf("Schema: %s", schema.Schema))

		for _, table := range schema.Tables {
			lines = append(lines, "", fmt.Sprintf("  Table: %s", table.Table))

			if len(table.References) > 0 {
				lines = append(lines, "    References (outbound):")
				for _, ref := range table.References {
					target := ref.Table
					if ref.Schema != schema.Schema {
						target = ref.Schema + "." + ref.Table
					}
					lines = append(lines, fmt.Sprintf("      -> %s (%s -> %s)",
						target, ref.SourceColumns, ref.TargetColumns))
				}
			} else {
				lines = append(lines, "    References: None (independent table)")
			}

			if len(table.ReferencedBy) > 0 {
				lines = append(lines, "    Referenced By (inbound):")
				for _, ref := range table.ReferencedBy {
					lines = append(lines, fmt.Sprintf("      <- %s (%s <- %s)",
						ref.Table, ref.TargetColumns, ref.SourceColumns))
				}
			} else {
				lines = append(lines, "    Referenced By: None (no dependencies)")
			}
		}
	}

	return strings.Join(lines, "\n")
}
