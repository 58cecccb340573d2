package db

import (
	"fmt"
	"strconv"
	"time"
)

// ScalarKind enumerates the value shapes a cell can take. Keeping the set
// closed makes rendering total instead of relying on reflection at print
// time.
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindOpaque
)

// Scalar is a single cell of a result row.
type Scalar struct {
	Kind  ScalarKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// NewScalar converts a driver-returned value into the closed scalar variant.
// Byte slices become strings and timestamps are rendered as RFC 3339; any
// other driver-specific type falls back to its printed form.
func NewScalar(value any) Scalar {
	switch v := value.(type) {
	case nil:
		return Scalar{Kind: KindNull}
	case bool:
		return Scalar{Kind: KindBool, Bool: v}
	case int64:
		return Scalar{Kind: KindInt, Int: v}
	case int32:
		return Scalar{Kind: KindInt, Int: int64(v)}
	case int:
		return Scalar{Kind: KindInt, Int: int64(v)}
	case float64:
		return Scalar{Kind: KindFloat, Float: v}
	case float32:
		return Scalar{Kind: KindFloat, Float: float64(v)}
	case string:
		return Scalar{Kind: KindString, Str: v}
	case []byte:
		return Scalar{Kind: KindString, Str: string(v)}
	case time.Time:
		return Scalar{Kind: KindString, Str: v.Format(time.RFC3339)}
	default:
		return Scalar{Kind: KindOpaque, Str: fmt.Sprintf("%v", v)}
	}
}

// IsNull reports whether the cell holds SQL NULL.
func (s Scalar) IsNull() bool {
	return s.Kind == KindNull
}

// String returns the canonical rendering of the cell.
func (s Scalar) String() string {
	switch s.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(s.Bool)
	case KindInt:
		return strconv.FormatInt(s.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	default:
		return s.Str
	}
}

// ResultSet is the normalized outcome of a statement. Row-returning
// statements fill Columns and Rows; everything else reports RowsAffected.
type ResultSet struct {
	Columns []string
	Rows    [][]Scalar

	// HasRows distinguishes a zero-row result set from a statement that
	// returns no rows at all (DML/DDL).
	HasRows bool

	// RowsAffected is meaningful only when HasRows is false. -1 means the
	// backend did not report a count (typical for DDL).
	RowsAffected int64

	// Truncated is set when exactly Limit rows were materialized; the full
	// result set may be larger.
	Truncated bool
	Limit     int

	Duration time.Duration
}

// Column describes one table column.
type Column struct {
	Name     string
	TypeName string
	Nullable bool
}

// ForeignKey describes one outbound foreign key constraint.
type ForeignKey struct {
	ConstrainedColumns []string
	ReferredSchema     string
	ReferredTable      string
	ReferredColumns    []string
}

// Index describes one table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// Table is the full descriptor assembled by the introspector. Built per
// request and never cached: the schema may change between calls.
type Table struct {
	Schema      string
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// TableListing names the tables and views of one schema.
type TableListing struct {
	Schema string
	Tables []string
	Views  []string
}

// RelationEdge is one side of a foreign key relationship.
type RelationEdge struct {
	Schema        string
	Table         string
	SourceColumns string
	TargetColumns string
}

// TableRelations collects both directions of a table's relationships.
type TableRelations struct {
	Table        string
	References   []RelationEdge
	ReferencedBy []RelationEdge
}

// SchemaRelations is the relationship adjacency of one schema, tables sorted
// by name.
type SchemaRelations struct {
	Schema string
	Tables []TableRelations
}
