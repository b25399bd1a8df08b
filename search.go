package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// searchPredicate builds a type-appropriate probe predicate for one
// column, returning ok=false when the column cannot sensibly match the
// literal (unparsable numeric, date/time kinds, binary payloads).
func searchPredicate(ad Adapter, col ColumnSchema, value string) (cond string, args []any, ok bool) {
	q := ad.QuoteIdent(col.Name)
	ph := ad.Placeholder(1)

	switch col.Type {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return "", nil, false
		}
		return fmt.Sprintf("%s = %s", q, ph), []any{n}, true

	case TypeFloat, TypeDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", nil, false
		}
		return fmt.Sprintf("%s = %s", q, ph), []any{f}, true

	case TypeBoolean:
		b, ok := parseBoolToken(value)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s = %s", q, ph), []any{b}, true

	case TypeDate, TypeDatetime, TypeTime, TypeTimestamp:
		// No reliable literal match across engines and formats.
		return "", nil, false

	case TypeJSON, TypeUUID:
		return fmt.Sprintf("%s LIKE %s", ad.TextCastExpr(q), ph), []any{"%" + value + "%"}, true

	case TypeBlob, TypeArray, TypeUnsupported:
		return "", nil, false

	default:
		return fmt.Sprintf("%s LIKE %s", q, ph), []any{"%" + value + "%"}, true
	}
}

// parseBoolToken maps common truthy/falsy spellings of a search literal.
func parseBoolToken(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	}
	return false, false
}

// searchTable probes every analyzable column of a relation for the
// literal search value. Each probe is an independent existence check; a
// failing probe is skipped silently and later columns are still probed.
func searchTable(ctx context.Context, actx *AnalysisContext, ad Adapter, db *sql.DB, relation string, cols []ColumnSchema, stats map[string]*ColumnStats) {
	value := actx.SearchValue
	rel := quoteRelation(ad, relation)

	for _, col := range cols {
		cond, args, ok := searchPredicate(ad, col, value)
		if !ok {
			continue
		}

		query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", rel, cond)
		var found bool
		if err := db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
			actx.debugf("search probe for column %q failed: %v", col.Name, err)
			continue
		}
		if !found {
			continue
		}
		if st := stats[col.Name]; st != nil {
			st.Found = true
			st.SearchValue = value
		}
	}
}
