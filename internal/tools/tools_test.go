package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woonstadrotterdam/sqlgate/internal/db"
)

func openTools(t *testing.T, policy db.Policy) (*Tools, string) {
	t.Helper()

	rawURL := "sqlite:///" + filepath.Join(t.TempDir(), "test.db")
	gw, err := db.Open(rawURL, policy, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { gw.Close() })
	return New(gw), rawURL
}

func writableTools(t *testing.T) *Tools {
	t.Helper()
	tl, _ := openTools(t, db.Policy{MaxQueryTimeoutSeconds: 30, MaxResultRows: 25})
	return tl
}

func seed(t *testing.T, tl *Tools) {
	t.Helper()
	ctx := context.Background()

	for _, stmt := range []string{
		"CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers(id))",
		"INSERT INTO customers (email) VALUES ('a@example.com'), ('b@example.com')",
	} {
		if out := tl.ExecuteQuery(ctx, stmt); strings.HasPrefix(out, "Error") || strings.HasPrefix(out, "Database error") {
			t.Fatalf("seed %q: %s", stmt, out)
		}
	}
}

func TestExecuteReadQuery(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)
	ctx := context.Background()

	out := tl.ExecuteReadQuery(ctx, "SELECT id, email FROM customers ORDER BY id")
	if !strings.HasPrefix(out, "Query executed successfully. 2 rows returned.") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "1, a@example.com") {
		t.Errorf("row data missing: %q", out)
	}
}

func TestExecuteReadQueryRejectsEmpty(t *testing.T) {
	tl := writableTools(t)

	for _, query := range []string{"", "   ", "\n\t"} {
		if out := tl.ExecuteReadQuery(context.Background(), query); out != "Error: Invalid SQL query provided." {
			t.Errorf("ExecuteReadQuery(%q) = %q", query, out)
		}
	}
}

func TestExecuteReadQueryRejectsWrites(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)

	out := tl.ExecuteReadQuery(context.Background(), "DELETE FROM customers")
	want := "Error: Only read-only queries (SELECT, SHOW, DESCRIBE, EXPLAIN, WITH) are allowed in this tool. Use execute_query for write operations."
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	// The rejected statement must not have run.
	count := tl.ExecuteReadQuery(context.Background(), "SELECT COUNT(*) FROM customers")
	if !strings.Contains(count, "2") {
		t.Errorf("data changed after rejected write: %q", count)
	}
}

func TestExecuteQueryReadOnlyPolicy(t *testing.T) {
	policy := db.Policy{MaxQueryTimeoutSeconds: 30, MaxResultRows: 25, ReadOnly: true}
	tl, _ := openTools(t, policy)
	ctx := context.Background()

	out := tl.ExecuteQuery(ctx, "CREATE TABLE t (id INTEGER)")
	if out != "Error: Only read-only queries are allowed in read-only mode." {
		t.Errorf("policy message = %q", out)
	}
}

func TestExecuteQueryAffectedRows(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)
	ctx := context.Background()

	out := tl.ExecuteQuery(ctx, "UPDATE customers SET email = 'x@example.com'")
	if out != "Query executed successfully. 2 rows affected." {
		t.Errorf("update message = %q", out)
	}
}

func TestExecuteQueryDatabaseError(t *testing.T) {
	tl := writableTools(t)

	out := tl.ExecuteQuery(context.Background(), "SELECT * FROM no_such_table")
	if !strings.HasPrefix(out, "Database error: ") {
		t.Errorf("error message = %q", out)
	}
}

func TestTruncationNotice(t *testing.T) {
	tl, _ := openTools(t, db.Policy{MaxQueryTimeoutSeconds: 30, MaxResultRows: 5})
	ctx := context.Background()

	tl.ExecuteQuery(ctx, "CREATE TABLE n (v INTEGER)")
	for i := 0; i < 10; i++ {
		tl.ExecuteQuery(ctx, "INSERT INTO n VALUES (1)")
	}

	out := tl.ExecuteReadQuery(ctx, "SELECT * FROM n")
	if !strings.Contains(out, "Note: Results limited to 5 rows. There may be additional rows.") {
		t.Errorf("missing truncation notice: %q", out)
	}
	if !strings.HasPrefix(out, "Query executed successfully. 5 rows returned.") {
		t.Errorf("unexpected header: %q", out)
	}
}

func TestListTablesAllSchemas(t *testing.T) {
	tl := writableTools(t)

	if out := tl.ListTables(context.Background(), ""); out != "No tables found." {
		t.Errorf("empty database = %q", out)
	}

	seed(t, tl)
	out := tl.ListTables(context.Background(), "")
	if !strings.Contains(out, "Tables in schema 'main':") ||
		!strings.Contains(out, "- customers") || !strings.Contains(out, "- orders") {
		t.Errorf("listing = %q", out)
	}
}

func TestListTablesBadSchema(t *testing.T) {
	tl := writableTools(t)

	out := tl.ListTables(context.Background(), "bad schema")
	if out != "Error: Invalid schema name 'bad schema'" {
		t.Errorf("got %q", out)
	}
}

func TestDescribeTable(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)

	out := tl.DescribeTable(context.Background(), "orders", "")
	for _, want := range []string{"Table: main.orders", "- id (PK):", "- customer_id -> main.customers(id)"} {
		if !strings.Contains(out, want) {
			t.Errorf("description missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeTableNotFound(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)

	out := tl.DescribeTable(context.Background(), "ghost", "")
	if out != "Table 'ghost' not found." {
		t.Errorf("got %q", out)
	}
}

func TestDescribeTableBadName(t *testing.T) {
	tl := writableTools(t)

	out := tl.DescribeTable(context.Background(), "orders; --", "")
	if out != "Error: Invalid table name 'orders; --'" {
		t.Errorf("got %q", out)
	}
}

func TestGetTableData(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)

	out := tl.GetTableData(context.Background(), "customers", "", 10)
	if !strings.HasPrefix(out, "Sample data from customers (limit 10):") {
		t.Errorf("sample header = %q", out)
	}
	if !strings.Contains(out, "a@example.com") {
		t.Errorf("sample data missing: %q", out)
	}

	out = tl.GetTableData(context.Background(), "orders", "", 10)
	if out != "No data found in table orders." {
		t.Errorf("empty table = %q", out)
	}
}

func TestGetTableDataClampsLimit(t *testing.T) {
	tl, _ := openTools(t, db.Policy{MaxQueryTimeoutSeconds: 30, MaxResultRows: 3})
	ctx := context.Background()

	tl.ExecuteQuery(ctx, "CREATE TABLE n (v INTEGER)")
	for i := 0; i < 10; i++ {
		tl.ExecuteQuery(ctx, "INSERT INTO n VALUES (1)")
	}

	out := tl.GetTableData(ctx, "n", "", 100)
	if !strings.HasPrefix(out, "Sample data from n (limit 3):") {
		t.Errorf("limit not clamped to policy cap: %q", out)
	}
}

func TestGetUniqueValues(t *testing.T) {
	tl := writableTools(t)
	ctx := context.Background()

	tl.ExecuteQuery(ctx, "CREATE TABLE visits (city TEXT)")
	for _, city := range []string{"rotterdam", "rotterdam", "delft"} {
		tl.ExecuteQuery(ctx, "INSERT INTO visits VALUES ('"+city+"')")
	}

	out := tl.GetUniqueValues(ctx, "visits", "city", "", 10)
	if !strings.HasPrefix(out, "Unique values in visits.city") {
		t.Errorf("header = %q", out)
	}
	if !strings.Contains(out, "rotterdam (count: 2)") || !strings.Contains(out, "delft (count: 1)") {
		t.Errorf("frequencies missing: %q", out)
	}
}

func TestGetUniqueValuesUnknownColumn(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)

	out := tl.GetUniqueValues(context.Background(), "customers", "phone", "", 10)
	want := "Column 'phone' not found in table customers. Available columns: id, email"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestGetTableRelationships(t *testing.T) {
	tl := writableTools(t)
	seed(t, tl)

	out := tl.GetTableRelationships(context.Background())
	for _, want := range []string{
		"Table Relationships (Foreign Key Structure):",
		"Schema: main",
		"  Table: orders",
		"      -> customers (customer_id -> id)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("relationships missing %q:\n%s", want, out)
		}
	}
}
