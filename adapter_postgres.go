package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
)

type postgresAdapter struct{}

func (p *postgresAdapter) Name() string { return "postgres" }

func (p *postgresAdapter) Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func (p *postgresAdapter) QuoteIdent(name string) string {
	return pgIdent(name)
}

func (p *postgresAdapter) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (p *postgresAdapter) ListTables(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}
	names, err := collectStringRows(ctx, db,
		`SELECT c.relname
		 FROM pg_class c
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 WHERE n.nspname = $1 AND c.relkind IN ('r', 'p', 'v', 'm')
		 ORDER BY c.relname`,
		schema,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if schema == "public" {
		return names, nil
	}
	qualified := make([]string, len(names))
	for i, n := range names {
		qualified[i] = schema + "." + n
	}
	return qualified, nil
}

func (p *postgresAdapter) Relation(ctx context.Context, db *sql.DB, table string) (RelationMeta, error) {
	schema, rel := splitQualified(table, "public")

	var relkind string
	var reltuples float64
	err := db.QueryRowContext(ctx,
		`SELECT c.relkind, c.reltuples
		 FROM pg_class c
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 WHERE n.nspname = $1 AND c.relname = $2`,
		schema, rel,
	).Scan(&relkind, &reltuples)
	if err == sql.ErrNoRows {
		return RelationMeta{}, fmt.Errorf("relation %q not found", table)
	}
	if err != nil {
		return RelationMeta{}, fmt.Errorf("relation metadata for %s: %w", table, err)
	}

	meta := RelationMeta{Kind: KindTable}
	switch relkind {
	case "v":
		meta.Kind = KindView
	case "m":
		meta.Kind = KindMatView
	}
	if reltuples > 0 {
		meta.EstimatedRows = int64(reltuples)
	}
	return meta, nil
}

func (p *postgresAdapter) Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnMeta, error) {
	schema, rel := splitQualified(table, "public")

	rows, err := db.QueryContext(ctx,
		`SELECT a.attname,
		        format_type(a.atttypid, a.atttypmod),
		        t.typname,
		        t.typcategory
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN pg_type t ON t.oid = a.atttypid
		 WHERE n.nspname = $1 AND c.relname = $2
		   AND a.attnum > 0 AND NOT a.attisdropped
		 ORDER BY a.attnum`,
		schema, rel,
	)
	if err != nil {
		return nil, fmt.Errorf("introspect columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnMeta
	for rows.Next() {
		var name, formatted, typname, category string
		if err := rows.Scan(&name, &formatted, &typname, &category); err != nil {
			return nil, err
		}
		cols = append(cols, ColumnMeta{
			Name:       name,
			DriverType: pgDriverType(typname, category),
			DBType:     strings.ToLower(formatted),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("relation %q not found", table)
	}
	return cols, nil
}

// pgDriverType maps a pg_type name to the coarse driver symbol the
// normalizer consumes. Unknown types report "" and are classified from
// the raw type string instead.
func pgDriverType(typname, category string) string {
	switch typname {
	case "int2", "int4", "int8":
		return "integer"
	case "float4", "float8":
		return "float"
	case "numeric", "money":
		return "decimal"
	case "bool":
		return "boolean"
	case "bytea":
		return "blob"
	case "uuid":
		return "uuid"
	case "json", "jsonb":
		return "json"
	case "inet", "cidr", "macaddr", "macaddr8":
		return "inet"
	case "date":
		return "date"
	case "time", "timetz":
		return "time"
	case "timestamp", "timestamptz":
		return "datetime"
	case "varchar", "bpchar", "text", "citext", "name":
		return "string"
	}
	switch category {
	case "A":
		return "array"
	case "E":
		return "enum"
	case "S":
		return "string"
	}
	return ""
}

func (p *postgresAdapter) UniqueColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	schema, rel := splitQualified(table, "public")

	names, err := collectStringRows(ctx, db,
		`SELECT a.attname
		 FROM pg_index i
		 JOIN pg_class c ON c.oid = i.indrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey)
		 WHERE n.nspname = $1 AND c.relname = $2
		   AND i.indisunique AND i.indnkeyatts = 1`,
		schema, rel,
	)
	if err != nil {
		return nil, fmt.Errorf("introspect unique indexes for %s: %w", table, err)
	}
	unique := make(map[string]bool, len(names))
	for _, n := range names {
		unique[n] = true
	}
	return unique, nil
}

func (p *postgresAdapter) EnumTypes(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	names, err := collectStringRows(ctx, db,
		`SELECT t.typname FROM pg_type t
		 JOIN pg_enum e ON e.enumtypid = t.oid
		 GROUP BY t.typname`,
	)
	if err != nil {
		return nil, fmt.Errorf("introspect enum types: %w", err)
	}
	enums := make(map[string]bool, len(names))
	for _, n := range names {
		enums[n] = true
	}
	return enums, nil
}

func (p *postgresAdapter) AvgExpr(col string) string {
	return fmt.Sprintf("AVG(CAST(%s AS double precision))", col)
}

func (p *postgresAdapter) LengthExpr(col string) string {
	return fmt.Sprintf("LENGTH(%s)", col)
}

func (p *postgresAdapter) TextCastExpr(col string) string {
	return fmt.Sprintf("CAST(%s AS text)", col)
}

func (p *postgresAdapter) BoolToIntExpr(col string) string {
	return fmt.Sprintf("CAST(%s AS integer)", col)
}

func (p *postgresAdapter) ArrayLengthExpr(col string) string {
	return fmt.Sprintf("array_length(%s, 1)", col)
}
