package main

import (
	"context"
	"database/sql"
	"fmt"
)

// analyzeTable runs the full profiling pipeline for one relation on one
// dedicated connection: metadata, type normalization, the wide aggregate
// query, frequency analysis, and the optional value search. Failures stay
// scoped to the table: schema failures produce an error result, aggregate
// failures leave defaulted stats with a note, and everything downstream
// degrades per column.
func analyzeTable(ctx context.Context, actx *AnalysisContext, ad Adapter, db *sql.DB, table string, enumTypes map[string]bool) *TableAnalysis {
	ta := &TableAnalysis{Table: table}

	meta, err := ad.Relation(ctx, db, table)
	if err != nil {
		ta.Error = err.Error()
		return ta
	}
	ta.Kind = meta.Kind

	colMetas, err := ad.Columns(ctx, db, table)
	if err != nil {
		ta.Error = err.Error()
		return ta
	}

	unique, err := ad.UniqueColumns(ctx, db, table)
	if err != nil {
		// Index metadata is an enrichment, not a prerequisite.
		actx.debugf("unique index introspection for %s failed: %v", table, err)
		unique = nil
	}

	cols := make([]ColumnSchema, len(colMetas))
	stats := make(map[string]*ColumnStats, len(colMetas))
	ta.Columns = stats
	ta.Order = make([]string, len(colMetas))

	for i, cm := range colMetas {
		cols[i] = ColumnSchema{
			Name:      cm.Name,
			Type:      normalizeColumnType(cm.DriverType, cm.DBType, enumTypes),
			DBType:    cm.DBType,
			LikelyKey: likelyKey(cm.Name, unique[cm.Name]),
		}
		stats[cm.Name] = &ColumnStats{
			Name:      cm.Name,
			Type:      cols[i].Type,
			DBType:    cm.DBType,
			IsUnique:  unique[cm.Name],
			LikelyKey: cols[i].LikelyKey,
		}
		ta.Order[i] = cm.Name
	}

	query, bindings := buildAggregateQuery(ad, table, cols)
	actx.debugf("aggregate query for %s: %s", table, query)

	total, values, err := runAggregateQuery(ctx, db, query, bindings)
	if err != nil {
		// Stats stay at their defaults with null counts indeterminate;
		// the run carries on with the next table.
		ta.Note = fmt.Sprintf("aggregate query failed: %v", err)
		actx.debugf("aggregate query for %s failed: %v", table, err)
		return ta
	}
	ta.Rows = total
	populateAggregates(stats, total, bindings, values)

	limit := samplingLimit(actx, meta.Kind, meta.EstimatedRows)
	if limit != nil {
		actx.debugf("sampling %s (%s, ~%d rows) at %d rows", table, meta.Kind, meta.EstimatedRows, *limit)
	}
	analyzeFrequencies(ctx, actx, ad, db, table, cols, stats, total, limit)

	if actx.SearchValue != "" {
		searchTable(ctx, actx, ad, db, table, cols, stats)
	}

	return ta
}
