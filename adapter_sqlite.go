package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type sqliteAdapter struct{}

func (s *sqliteAdapter) Name() string { return "sqlite" }

func (s *sqliteAdapter) Open(dsn string) (*sql.DB, error) {
	uri, err := sqliteReadOnlyURI(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// sqliteReadOnlyURI turns a path or file: URI into a read-only file URI.
// Profiling never writes, and mode=ro keeps it that way.
func sqliteReadOnlyURI(dsn string) (string, error) {
	if dsn == ":memory:" || dsn == "file::memory:" || strings.Contains(dsn, "mode=memory") {
		return "", fmt.Errorf("in-memory SQLite databases are not supported (each sql.Open gets a separate DB)")
	}

	if !strings.HasPrefix(dsn, "file:") {
		return "file:" + dsn + "?mode=ro", nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse sqlite URI: %w", err)
	}
	q := u.Query()
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *sqliteAdapter) QuoteIdent(name string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, "\"", "\"\""))
}

func (s *sqliteAdapter) Placeholder(int) string { return "?" }

func (s *sqliteAdapter) ListTables(ctx context.Context, db *sql.DB, _ string) ([]string, error) {
	names, err := collectStringRows(ctx, db,
		`SELECT name FROM sqlite_master
		 WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

func (s *sqliteAdapter) Relation(ctx context.Context, db *sql.DB, table string) (RelationMeta, error) {
	_, rel := splitQualified(table, "")

	var relType string
	err := db.QueryRowContext(ctx,
		"SELECT type FROM sqlite_master WHERE name = ?", rel,
	).Scan(&relType)
	if err == sql.ErrNoRows {
		return RelationMeta{}, fmt.Errorf("relation %q not found", table)
	}
	if err != nil {
		return RelationMeta{}, fmt.Errorf("relation metadata for %s: %w", table, err)
	}

	meta := RelationMeta{Kind: KindTable}
	if relType == "view" {
		meta.Kind = KindView
	}
	// SQLite keeps no row-count estimate; sampling treats unknown as small.
	return meta, nil
}

func (s *sqliteAdapter) Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnMeta, error) {
	_, rel := splitQualified(table, "")

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdent(rel)))
	if err != nil {
		return nil, fmt.Errorf("introspect columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnMeta
	for rows.Next() {
		var cid, notnull, pk int
		var name, declType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		declType = strings.ToLower(strings.TrimSpace(declType))
		cols = append(cols, ColumnMeta{
			Name:       name,
			DriverType: sqliteDriverType(declType),
			DBType:     declType,
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

// sqliteDriverType classifies a declared type by SQLite's affinity rules.
// An empty declared type has BLOB affinity.
func sqliteDriverType(declType string) string {
	base := physicalTypeKey(declType)
	switch {
	case base == "":
		return "blob"
	case base == "boolean" || base == "bool":
		return "boolean"
	case base == "date":
		return "date"
	case base == "datetime" || base == "timestamp":
		return "datetime"
	case base == "time":
		return "time"
	case strings.Contains(base, "int"):
		return "integer"
	case base == "real" || base == "double" || base == "float" || base == "double precision":
		return "float"
	case base == "numeric" || base == "decimal":
		return "decimal"
	case strings.Contains(base, "char") || strings.Contains(base, "clob") || base == "text":
		return "string"
	case strings.Contains(base, "blob"):
		return "blob"
	case base == "json":
		return "json"
	case base == "uuid":
		return "uuid"
	}
	return ""
}

func (s *sqliteAdapter) UniqueColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	_, rel := splitQualified(table, "")
	unique := make(map[string]bool)

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", s.QuoteIdent(rel)))
	if err != nil {
		return nil, fmt.Errorf("introspect indexes for %s: %w", table, err)
	}
	var uniqueIndexes []string
	for rows.Next() {
		var seq, isUnique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &isUnique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		if isUnique == 1 {
			uniqueIndexes = append(uniqueIndexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, idx := range uniqueIndexes {
		cols, err := sqliteIndexColumns(ctx, db, s, idx)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			unique[cols[0]] = true
		}
	}

	// INTEGER PRIMARY KEY is a rowid alias and therefore unique, but it
	// does not appear in index_list.
	pkCols, err := collectStringRows(ctx, db,
		fmt.Sprintf("SELECT name FROM pragma_table_info(%s) WHERE pk > 0", s.Placeholder(1)), rel,
	)
	if err == nil && len(pkCols) == 1 {
		unique[pkCols[0]] = true
	}

	return unique, nil
}

func sqliteIndexColumns(ctx context.Context, db *sql.DB, s *sqliteAdapter, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", s.QuoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (s *sqliteAdapter) EnumTypes(context.Context, *sql.DB) (map[string]bool, error) {
	return nil, nil
}

func (s *sqliteAdapter) AvgExpr(col string) string {
	return fmt.Sprintf("AVG(CAST(%s AS REAL))", col)
}

func (s *sqliteAdapter) LengthExpr(col string) string {
	return fmt.Sprintf("LENGTH(%s)", col)
}

func (s *sqliteAdapter) TextCastExpr(col string) string {
	return fmt.Sprintf("CAST(%s AS TEXT)", col)
}

func (s *sqliteAdapter) BoolToIntExpr(col string) string {
	return fmt.Sprintf("CAST(%s AS INTEGER)", col)
}

func (s *sqliteAdapter) ArrayLengthExpr(string) string { return "" }
