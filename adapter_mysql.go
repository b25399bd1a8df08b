package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

type mysqlAdapter struct{}

func (m *mysqlAdapter) Name() string { return "mysql" }

// Open normalizes the DSN the way a read-only introspection connection
// needs it: parsed times, UTC, and client-side interpolation.
func (m *mysqlAdapter) Open(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.Loc = time.UTC
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

func (m *mysqlAdapter) QuoteIdent(name string) string {
	return fmt.Sprintf("`%s`", strings.ReplaceAll(name, "`", "``"))
}

func (m *mysqlAdapter) Placeholder(int) string { return "?" }

func (m *mysqlAdapter) ListTables(ctx context.Context, db *sql.DB, _ string) ([]string, error) {
	names, err := collectStringRows(ctx, db,
		`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		 WHERE TABLE_SCHEMA = DATABASE()
		 ORDER BY TABLE_NAME`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

func (m *mysqlAdapter) Relation(ctx context.Context, db *sql.DB, table string) (RelationMeta, error) {
	_, rel := splitQualified(table, "")

	var tableType string
	var estRows sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT TABLE_TYPE, TABLE_ROWS FROM INFORMATION_SCHEMA.TABLES
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		rel,
	).Scan(&tableType, &estRows)
	if err == sql.ErrNoRows {
		return RelationMeta{}, fmt.Errorf("relation %q not found", table)
	}
	if err != nil {
		return RelationMeta{}, fmt.Errorf("relation metadata for %s: %w", table, err)
	}

	meta := RelationMeta{Kind: KindTable, EstimatedRows: estRows.Int64}
	if strings.EqualFold(tableType, "VIEW") {
		meta.Kind = KindView
	}
	return meta, nil
}

func (m *mysqlAdapter) Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnMeta, error) {
	_, rel := splitQualified(table, "")

	rows, err := db.QueryContext(ctx,
		`SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE
		 FROM INFORMATION_SCHEMA.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		 ORDER BY ORDINAL_POSITION`,
		rel,
	)
	if err != nil {
		return nil, fmt.Errorf("introspect columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnMeta
	for rows.Next() {
		var name, dataType, columnType string
		if err := rows.Scan(&name, &dataType, &columnType); err != nil {
			return nil, err
		}
		dataType = strings.ToLower(dataType)
		columnType = strings.ToLower(columnType)
		cols = append(cols, ColumnMeta{
			Name:       name,
			DriverType: mysqlDriverType(dataType, columnType),
			DBType:     columnType,
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

// mysqlDriverType maps INFORMATION_SCHEMA DATA_TYPE to the coarse driver
// symbol. tinyint(1) is reported as boolean, the conventional MySQL
// boolean encoding.
func mysqlDriverType(dataType, columnType string) string {
	switch dataType {
	case "tinyint":
		if strings.HasPrefix(columnType, "tinyint(1)") {
			return "boolean"
		}
		return "integer"
	case "smallint", "mediumint", "int", "bigint", "year":
		return "integer"
	case "float", "double":
		return "float"
	case "decimal":
		return "decimal"
	case "varchar", "char":
		return "string"
	case "text", "tinytext", "mediumtext", "longtext":
		return "string"
	case "enum", "set":
		return "enum"
	case "json":
		return "json"
	case "date":
		return "date"
	case "datetime":
		return "datetime"
	case "timestamp":
		return "timestamp"
	case "time":
		return "time"
	case "binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob", "bit":
		return "blob"
	}
	return ""
}

func (m *mysqlAdapter) UniqueColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	_, rel := splitQualified(table, "")

	rows, err := db.QueryContext(ctx,
		`SELECT INDEX_NAME, COLUMN_NAME
		 FROM INFORMATION_SCHEMA.STATISTICS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND NON_UNIQUE = 0
		 ORDER BY INDEX_NAME, SEQ_IN_INDEX`,
		rel,
	)
	if err != nil {
		return nil, fmt.Errorf("introspect unique indexes for %s: %w", table, err)
	}
	defer rows.Close()

	idxCols := make(map[string][]string)
	for rows.Next() {
		var idx, col string
		if err := rows.Scan(&idx, &col); err != nil {
			return nil, err
		}
		idxCols[idx] = append(idxCols[idx], col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Only single-column unique indexes imply column uniqueness.
	unique := make(map[string]bool)
	for _, cols := range idxCols {
		if len(cols) == 1 {
			unique[cols[0]] = true
		}
	}
	return unique, nil
}

func (m *mysqlAdapter) EnumTypes(context.Context, *sql.DB) (map[string]bool, error) {
	// MySQL enums are inline column types, visible in COLUMN_TYPE; there
	// is no named enum catalog to probe.
	return nil, nil
}

func (m *mysqlAdapter) AvgExpr(col string) string {
	return fmt.Sprintf("AVG(%s * 1.0)", col)
}

func (m *mysqlAdapter) LengthExpr(col string) string {
	return fmt.Sprintf("CHAR_LENGTH(%s)", col)
}

func (m *mysqlAdapter) TextCastExpr(col string) string {
	return fmt.Sprintf("CAST(%s AS CHAR)", col)
}

func (m *mysqlAdapter) BoolToIntExpr(col string) string {
	// tinyint(1) is already an integer.
	return col
}

func (m *mysqlAdapter) ArrayLengthExpr(string) string { return "" }
