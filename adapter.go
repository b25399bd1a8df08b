package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Adapter abstracts one database engine so the statistics engine can emit
// portable aggregate SQL against PostgreSQL, MySQL, and SQLite alike.
type Adapter interface {
	// Name returns the adapter name used in reports ("postgres", ...).
	Name() string

	// Open opens a database handle with driver-specific read options
	// applied. Callers that need a dedicated connection set
	// SetMaxOpenConns(1) on the result.
	Open(dsn string) (*sql.DB, error)

	// QuoteIdent quotes an identifier for this engine.
	QuoteIdent(name string) string

	// Placeholder returns the n-th (1-based) bind placeholder.
	Placeholder(n int) string

	// ListTables returns the names of all base tables visible to the
	// connection, schema-qualified where the engine has schemas.
	ListTables(ctx context.Context, db *sql.DB, schema string) ([]string, error)

	// Relation reports the kind and estimated row count of a relation.
	Relation(ctx context.Context, db *sql.DB, table string) (RelationMeta, error)

	// Columns introspects the columns of a relation in ordinal order.
	Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnMeta, error)

	// UniqueColumns returns the set of columns covered by a
	// single-column unique index. Metadata failures degrade to an empty
	// set, never to a run failure.
	UniqueColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error)

	// EnumTypes returns the engine's enum type catalog keyed by type
	// name, fetched once per connection rather than once per column.
	EnumTypes(ctx context.Context, db *sql.DB) (map[string]bool, error)

	// AvgExpr wraps a quoted column in an AVG that yields a float.
	AvgExpr(col string) string

	// LengthExpr returns the character-length expression for a column.
	LengthExpr(col string) string

	// TextCastExpr casts a column to the engine's text type.
	TextCastExpr(col string) string

	// BoolToIntExpr casts a boolean column to an orderable integer.
	BoolToIntExpr(col string) string

	// ArrayLengthExpr returns the array-length expression, or "" when
	// the engine has no array type.
	ArrayLengthExpr(col string) string
}

// newAdapter returns the Adapter implementation for the given name.
func newAdapter(name string) (Adapter, error) {
	switch name {
	case "postgres", "postgresql":
		return &postgresAdapter{}, nil
	case "mysql":
		return &mysqlAdapter{}, nil
	case "sqlite", "sqlite3":
		return &sqliteAdapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported adapter %q (must be postgres, mysql or sqlite)", name)
	}
}

// splitQualified splits a possibly schema-qualified relation name.
// defSchema is returned when the name carries no schema part.
func splitQualified(name, defSchema string) (schema, table string) {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return defSchema, name
}

// quoteRelation quotes a possibly qualified relation name part by part.
func quoteRelation(ad Adapter, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = ad.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// collectStringRows collects a single-column string result set.
func collectStringRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
