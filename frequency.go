package main

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const frequencyLimit = 5

// frequencyOrder selects the direction of a frequency pass.
type frequencyOrder int

const (
	mostFrequentOrder frequencyOrder = iota
	leastFrequentOrder
)

// partitionFrequencyGroups splits the frequency-eligible columns of a
// table into UNION-compatible groups keyed by physical type, and returns
// JSON columns separately since they are never batched.
//
// Eligible: groupable abstract kind, not a likely key, table has rows.
// JSON columns skip the likely-key test: a JSON key column would be a
// modeling accident worth surfacing, not an identifier to skip.
func partitionFrequencyGroups(cols []ColumnSchema, rowCount int64) ([]FrequencyBatchGroup, []ColumnSchema) {
	if rowCount <= 0 {
		return nil, nil
	}

	groupIdx := make(map[string]int)
	var groups []FrequencyBatchGroup
	var jsonCols []ColumnSchema

	for _, col := range cols {
		if col.Type == TypeJSON {
			jsonCols = append(jsonCols, col)
			continue
		}
		if col.LikelyKey || !groupable(col) {
			continue
		}

		key := physicalTypeKey(col.DBType)
		idx, ok := groupIdx[key]
		if !ok {
			idx = len(groups)
			groupIdx[key] = idx
			groups = append(groups, FrequencyBatchGroup{TypeKey: key})
		}
		groups[idx].Columns = append(groups[idx].Columns, col)
	}
	return groups, jsonCols
}

// buildFrequencyBranch builds one GROUP BY branch of a batch query. Each
// branch is wrapped in a subselect so its ORDER BY and LIMIT survive the
// surrounding UNION ALL on every engine.
func buildFrequencyBranch(ad Adapter, relExpr string, col ColumnSchema, order frequencyOrder, limit int, branchNo int) string {
	expr := ad.QuoteIdent(col.Name)
	dir := "DESC"
	if order == leastFrequentOrder {
		dir = "ASC"
	}

	inner := fmt.Sprintf(
		"SELECT %s AS fval, COUNT(*) AS fcount, '%s' AS ftag FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY fcount %s, fval ASC",
		expr, escapeTag(col.Name), relExpr, expr, expr, dir,
	)
	if limit > 0 {
		inner += fmt.Sprintf(" LIMIT %d", limit)
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS fb%d", inner, branchNo)
}

// escapeTag makes a column name safe as a SQL string literal tag.
func escapeTag(name string) string {
	return strings.ReplaceAll(name, "'", "''")
}

// buildFrequencyQuery unions the branches of one physical-type group.
func buildFrequencyQuery(ad Adapter, relExpr string, group FrequencyBatchGroup, order frequencyOrder) string {
	branches := make([]string, len(group.Columns))
	for i, col := range group.Columns {
		branches[i] = buildFrequencyBranch(ad, relExpr, col, order, frequencyLimit, i)
	}
	return strings.Join(branches, " UNION ALL ")
}

// runFrequencyQuery executes a batch (or single-column) frequency query
// and returns rows grouped by column tag.
func runFrequencyQuery(ctx context.Context, db *sql.DB, query string) (map[string][]ValueCount, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTag := make(map[string][]ValueCount)
	for rows.Next() {
		var val sql.NullString
		var count int64
		var tag string
		if err := rows.Scan(&val, &count, &tag); err != nil {
			return nil, err
		}
		if !val.Valid {
			continue
		}
		byTag[tag] = append(byTag[tag], ValueCount{Value: val.String, Count: count})
	}
	return byTag, rows.Err()
}

// sortFrequencies re-sorts a redistributed frequency list. UNION ALL
// makes no cross-branch ordering promise, and even within a branch the
// engine may re-order, so determinism is restored here: by count in the
// pass direction, ties broken by value ascending.
func sortFrequencies(vals []ValueCount, order frequencyOrder) {
	sort.SliceStable(vals, func(i, j int) bool {
		if vals[i].Count != vals[j].Count {
			if order == mostFrequentOrder {
				return vals[i].Count > vals[j].Count
			}
			return vals[i].Count < vals[j].Count
		}
		return vals[i].Value < vals[j].Value
	})
}

// analyzeFrequencies computes most-frequent and least-frequent value
// lists for every eligible column of a table, batching same-typed columns
// into single UNION ALL queries and falling back to per-column queries
// when a batch fails.
func analyzeFrequencies(ctx context.Context, actx *AnalysisContext, ad Adapter, db *sql.DB, relation string, cols []ColumnSchema, stats map[string]*ColumnStats, rowCount int64, limit *int64) {
	groups, jsonCols := partitionFrequencyGroups(cols, rowCount)
	relExpr := sampledRelation(ad, relation, limit)

	for _, group := range groups {
		runFrequencyGroup(ctx, actx, ad, db, relExpr, group, mostFrequentOrder, stats)
	}

	// Least-frequent only pays off past the most-frequent window.
	for _, group := range groups {
		trimmed := FrequencyBatchGroup{TypeKey: group.TypeKey}
		for _, col := range group.Columns {
			st := stats[col.Name]
			if st != nil && st.DistinctCount != nil && *st.DistinctCount > frequencyLimit {
				trimmed.Columns = append(trimmed.Columns, col)
			}
		}
		if len(trimmed.Columns) > 0 {
			runFrequencyGroup(ctx, actx, ad, db, relExpr, trimmed, leastFrequentOrder, stats)
		}
	}

	// Columns with few distinct values that the batch pass missed get
	// the complete value set instead of a window.
	for _, group := range groups {
		for _, col := range group.Columns {
			st := stats[col.Name]
			if st == nil || st.DistinctCount == nil {
				continue
			}
			if *st.DistinctCount > 0 && *st.DistinctCount <= frequencyLimit && len(st.MostFrequent) == 0 {
				applySmallDistinct(ctx, actx, ad, db, relExpr, col, st)
			}
		}
	}

	for _, col := range jsonCols {
		jsonFrequency(ctx, actx, ad, db, relExpr, col, stats[col.Name])
	}
}

// runFrequencyGroup executes one batch pass and redistributes its rows.
// A batch failure degrades to per-column queries; a per-column failure
// degrades that column to empty frequency fields.
func runFrequencyGroup(ctx context.Context, actx *AnalysisContext, ad Adapter, db *sql.DB, relExpr string, group FrequencyBatchGroup, order frequencyOrder, stats map[string]*ColumnStats) {
	query := buildFrequencyQuery(ad, relExpr, group, order)
	byTag, err := runFrequencyQuery(ctx, db, query)
	if err != nil {
		actx.debugf("frequency batch for type %q failed, retrying per column: %v", group.TypeKey, err)
		byTag = make(map[string][]ValueCount)
		for i, col := range group.Columns {
			single := buildFrequencyBranch(ad, relExpr, col, order, frequencyLimit, i)
			colRows, err := runFrequencyQuery(ctx, db, single)
			if err != nil {
				actx.debugf("frequency query for column %q failed: %v", col.Name, err)
				continue
			}
			byTag[col.Name] = colRows[col.Name]
		}
	}

	for _, col := range group.Columns {
		st := stats[col.Name]
		if st == nil {
			continue
		}
		vals := byTag[col.Name]
		if len(vals) == 0 {
			continue
		}
		sortFrequencies(vals, order)
		if len(vals) > frequencyLimit {
			vals = vals[:frequencyLimit]
		}
		if order == mostFrequentOrder {
			st.MostFrequent = vals
		} else {
			st.LeastFrequent = vals
		}
	}
}

// applySmallDistinct fetches the complete value distribution of a
// low-cardinality column. The full set replaces the windowed lists:
// most-frequent holds every distinct value and least-frequent is dropped.
func applySmallDistinct(ctx context.Context, actx *AnalysisContext, ad Adapter, db *sql.DB, relExpr string, col ColumnSchema, st *ColumnStats) {
	query := buildFrequencyBranch(ad, relExpr, col, mostFrequentOrder, 0, 0)
	byTag, err := runFrequencyQuery(ctx, db, query)
	if err != nil {
		actx.debugf("distinct-value query for column %q failed: %v", col.Name, err)
		return
	}
	vals := byTag[col.Name]
	sortFrequencies(vals, mostFrequentOrder)
	st.MostFrequent = vals
	st.LeastFrequent = nil
}

// jsonFrequency profiles one JSON column individually. JSON identity via
// raw text comparison is shallow, and batching heterogeneous JSON through
// a UNION is unsafe, so these columns get a single top-N query and no
// least-frequent pass.
func jsonFrequency(ctx context.Context, actx *AnalysisContext, ad Adapter, db *sql.DB, relExpr string, col ColumnSchema, st *ColumnStats) {
	if st == nil {
		return
	}
	expr := ad.TextCastExpr(ad.QuoteIdent(col.Name))
	query := fmt.Sprintf(
		"SELECT fval, fcount, '%s' AS ftag FROM (SELECT %s AS fval, COUNT(*) AS fcount FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY fcount DESC, fval ASC LIMIT %d) AS fb0",
		escapeTag(col.Name), expr, relExpr, ad.QuoteIdent(col.Name), expr, frequencyLimit,
	)
	byTag, err := runFrequencyQuery(ctx, db, query)
	if err != nil {
		actx.debugf("json frequency query for column %q failed: %v", col.Name, err)
		return
	}
	vals := byTag[col.Name]
	if len(vals) == 0 {
		return
	}
	sortFrequencies(vals, mostFrequentOrder)
	st.MostFrequent = vals
}
