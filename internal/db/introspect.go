package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Number of tables whose foreign keys are collected concurrently when
// building the relationship report.
const relationshipWorkers = 4

// Introspector fetches catalog metadata through the gateway and assembles
// descriptor objects. Descriptors are built per request and never cached:
// the schema may change between calls.
type Introspector struct {
	gw *Gateway
}

func NewIntrospector(gw *Gateway) *Introspector {
	return &Introspector{gw: gw}
}

// ListSchemas returns all schema names, system catalogs excluded.
func (in *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	var schemas []string
	err := in.gw.RunIntrospection(ctx, func(ctx context.Context, q Querier) error {
		var err error
		schemas, err = in.gw.dialect.Schemas(ctx, q)
		return err
	})
	return schemas, err
}

// ListTables returns the tables and views of one schema. An empty schema
// selects the dialect default.
func (in *Introspector) ListTables(ctx context.Context, schema string) (*TableListing, error) {
	listing := &TableListing{Schema: schema}
	if listing.Schema == "" {
		listing.Schema = in.gw.dialect.DefaultSchema()
	}

	err := in.gw.RunIntrospection(ctx, func(ctx context.Context, q Querier) error {
		tables, views, err := in.gw.dialect.Tables(ctx, q, schema)
		if err != nil {
			return err
		}
		listing.Tables = tables
		listing.Views = views
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// DescribeTable assembles the full descriptor for one table. A table without
// columns does not exist.
func (in *Introspector) DescribeTable(ctx context.Context, table, schema string) (*Table, error) {
	desc := &Table{Schema: schema, Name: table}

	err := in.gw.RunIntrospection(ctx, func(ctx context.Context, q Querier) error {
		dialect := in.gw.dialect

		columns, err := dialect.Columns(ctx, q, schema, table)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			return &NotFoundError{Message: fmt.Sprintf("Table '%s' not found.", table)}
		}
		desc.Columns = columns

		if desc.PrimaryKey, err = dialect.PrimaryKey(ctx, q, schema, table); err != nil {
			return err
		}
		if desc.ForeignKeys, err = dialect.ForeignKeys(ctx, q, schema, table); err != nil {
			return err
		}
		if desc.Indexes, err = dialect.Indexes(ctx, q, schema, table); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return desc, nil
}

// ColumnNames returns the live column list of a table, used to check a
// caller-supplied column before it is embedded in a built statement.
func (in *Introspector) ColumnNames(ctx context.Context, table, schema string) ([]string, error) {
	var names []string
	err := in.gw.RunIntrospection(ctx, func(ctx context.Context, q Querier) error {
		columns, err := in.gw.dialect.Columns(ctx, q, schema, table)
		if err != nil {
			return err
		}
		for _, col := range columns {
			names = append(names, col.Name)
		}
		return nil
	})
	return names, err
}

// Relationships builds, per schema, a bidirectional adjacency map from every
// table's outbound foreign keys. Inbound edges are derived by inverting
// outbound edges within the same schema; cross-schema inbound edges are not
// back-filled. Tables are sorted by name for determinism.
func (in *Introspector) Relationships(ctx context.Context) ([]SchemaRelations, error) {
	schemas, err := in.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}

	var result []SchemaRelations
	for _, schema := range schemas {
		relations, err := in.schemaRelations(ctx, schema)
		if err != nil {
			return nil, err
		}
		if relations != nil {
			result = append(result, *relations)
		}
	}
	return result, nil
}

func (in *Introspector) schemaRelations(ctx context.Context, schema string) (*SchemaRelations, error) {
	listing, err := in.ListTables(ctx, schema)
	if err != nil {
		return nil, err
	}
	if len(listing.Tables) == 0 {
		return nil, nil
	}

	// Foreign keys are fetched per table on independent pool connections,
	// bounded so a wide schema does not exhaust the pool.
	var mu sync.Mutex
	outbound := make(map[string][]ForeignKey, len(listing.Tables))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(relationshipWorkers)
	for _, tableName := range listing.Tables {
		grp.Go(func() error {
			return in.gw.RunIntrospection(grpCtx, func(ctx context.Context, q Querier) error {
				keys, err := in.gw.dialect.ForeignKeys(ctx, q, schema, tableName)
				if err != nil {
					return err
				}
				mu.Lock()
				outbound[tableName] = keys
				mu.Unlock()
				return nil
			})
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	byTable := make(map[string]*TableRelations, len(listing.Tables))
	relation := func(name string) *TableRelations {
		if rel, ok := byTable[name]; ok {
			return rel
		}
		rel := &TableRelations{Table: name}
		byTable[name] = rel
		return rel
	}

	for _, tableName := range listing.Tables {
		rel := relation(tableName)
		for _, fk := range outbound[tableName] {
			refSchema := fk.ReferredSchema
			if refSchema == "" {
				refSchema = schema
			}
			sourceCols := strings.Join(fk.ConstrainedColumns, ", ")
			targetCols := strings.Join(fk.ReferredColumns, ", ")

			rel.References = append(rel.References, RelationEdge{
				Schema:        refSchema,
				Table:         fk.ReferredTable,
				SourceColumns: sourceCols,
				TargetColumns: targetCols,
			})

			if refSchema == schema {
				relation(fk.ReferredTable).ReferencedBy = append(
					relation(fk.ReferredTable).ReferencedBy, RelationEdge{
						Schema:        schema,
						Table:         tableName,
						SourceColumns: sourceCols,
						TargetColumns: targetCols,
					})
			}
		}
	}

	names := make([]string, 0, len(byTable))
	for name := range byTable {
		names = append(names, name)
	}
	sort.Strings(names)

	relations := &SchemaRelations{Schema: schema, Tables: make([]TableRelations, 0, len(names))}
	for _, name := range names {
		relations.Tables = append(relations.Tables, *byTable[name])
	}
	return relations, nil
}
