package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// aggKind identifies what a single projection in the aggregate query
// computes for its column.
type aggKind int

const (
	aggNonNull aggKind = iota
	aggMin
	aggMax
	aggAvg
	aggAvgLength
	aggDistinct
	aggTrueCount
)

// aggBinding ties one projection position to a column and aggregate kind.
// The result row is decoded positionally through these bindings, so
// column names never have to round-trip through SQL aliases.
type aggBinding struct {
	col  string
	kind aggKind
}

// projectionBuilder appends the type-dependent projections for one column.
type projectionBuilder func(ad Adapter, col ColumnSchema, q string, add func(expr string, kind aggKind))

// projectionBuilders maps every abstract kind to its aggregate
// projections. A kind missing here (unsupported) only gets the shared
// non-null count.
var projectionBuilders = map[AbstractType]projectionBuilder{
	TypeInteger: numericProjections,
	TypeFloat:   numericProjections,
	TypeDecimal: numericProjections,

	TypeString: characterProjections,
	TypeEnum:   characterProjections,
	TypeInet:   characterProjections,
	TypeText:   longTextProjections,
	TypeBlob:   longTextProjections,

	TypeUUID: textCastProjections,
	TypeJSON: textCastProjections,

	TypeBoolean: booleanProjections,
	TypeArray:   arrayProjections,

	TypeDate:      temporalProjections,
	TypeDatetime:  temporalProjections,
	TypeTime:      temporalProjections,
	TypeTimestamp: temporalProjections,
}

func numericProjections(ad Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	add(fmt.Sprintf("MIN(%s)", q), aggMin)
	add(fmt.Sprintf("MAX(%s)", q), aggMax)
	if !col.LikelyKey {
		add(ad.AvgExpr(q), aggAvg)
		add(fmt.Sprintf("COUNT(DISTINCT %s)", q), aggDistinct)
	}
}

func characterProjections(ad Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	add(fmt.Sprintf("MIN(%s)", q), aggMin)
	add(fmt.Sprintf("MAX(%s)", q), aggMax)
	if !col.LikelyKey {
		add(fmt.Sprintf("AVG(%s)", ad.LengthExpr(q)), aggAvgLength)
		if groupable(col) {
			add(fmt.Sprintf("COUNT(DISTINCT %s)", q), aggDistinct)
		}
	}
}

// longTextProjections covers text and blob: no MIN/MAX (not orderable at
// scale) and no DISTINCT, just an average length.
func longTextProjections(ad Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	if !col.LikelyKey {
		add(fmt.Sprintf("AVG(%s)", ad.LengthExpr(q)), aggAvgLength)
	}
}

// textCastProjections covers uuid and json: neither has a portable native
// ordering, so every aggregate goes through a text cast.
func textCastProjections(ad Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	cast := ad.TextCastExpr(q)
	add(fmt.Sprintf("MIN(%s)", cast), aggMin)
	add(fmt.Sprintf("MAX(%s)", cast), aggMax)
	if !col.LikelyKey {
		add(fmt.Sprintf("AVG(%s)", ad.LengthExpr(cast)), aggAvgLength)
		add(fmt.Sprintf("COUNT(DISTINCT %s)", cast), aggDistinct)
	}
}

func booleanProjections(ad Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	asInt := ad.BoolToIntExpr(q)
	add(fmt.Sprintf("MIN(%s)", asInt), aggMin)
	add(fmt.Sprintf("MAX(%s)", asInt), aggMax)
	add(fmt.Sprintf("SUM(CASE WHEN %s THEN 1 ELSE 0 END)", q), aggTrueCount)
	if !col.LikelyKey {
		add(fmt.Sprintf("COUNT(DISTINCT %s)", q), aggDistinct)
	}
}

func arrayProjections(ad Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	length := ad.ArrayLengthExpr(q)
	if length == "" {
		return
	}
	add(fmt.Sprintf("MIN(%s)", length), aggMin)
	add(fmt.Sprintf("MAX(%s)", length), aggMax)
	add(fmt.Sprintf("AVG(%s)", length), aggAvgLength)
}

func temporalProjections(_ Adapter, col ColumnSchema, q string, add func(string, aggKind)) {
	add(fmt.Sprintf("MIN(%s)", q), aggMin)
	add(fmt.Sprintf("MAX(%s)", q), aggMax)
	if !col.LikelyKey {
		add(fmt.Sprintf("COUNT(DISTINCT %s)", q), aggDistinct)
	}
}

// buildAggregateQuery builds the single wide query that computes every
// column's aggregates for one relation in one round trip. The first
// projection is always COUNT(*); the returned bindings describe the rest
// positionally.
func buildAggregateQuery(ad Adapter, relation string, cols []ColumnSchema) (string, []aggBinding) {
	projections := []string{"COUNT(*)"}
	var bindings []aggBinding

	for _, col := range cols {
		q := ad.QuoteIdent(col.Name)
		add := func(expr string, kind aggKind) {
			projections = append(projections, expr)
			bindings = append(bindings, aggBinding{col: col.Name, kind: kind})
		}

		// Every column is null-counted, even unsupported ones.
		add(fmt.Sprintf("COUNT(%s)", q), aggNonNull)

		if build, ok := projectionBuilders[col.Type]; ok {
			build(ad, col, q, add)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(projections, ", "), quoteRelation(ad, relation))
	return query, bindings
}

// runAggregateQuery executes the wide aggregate query and returns the
// total row count plus one scanned value per binding.
func runAggregateQuery(ctx context.Context, db *sql.DB, query string, bindings []aggBinding) (int64, []any, error) {
	var total int64
	scan := make([]any, 0, len(bindings)+1)
	scan = append(scan, &total)
	for _, b := range bindings {
		switch b.kind {
		case aggAvg, aggAvgLength:
			scan = append(scan, new(sql.NullFloat64))
		case aggNonNull, aggDistinct, aggTrueCount:
			scan = append(scan, new(sql.NullInt64))
		default:
			scan = append(scan, new(sql.NullString))
		}
	}

	if err := db.QueryRowContext(ctx, query).Scan(scan...); err != nil {
		return 0, nil, err
	}
	return total, scan[1:], nil
}

// populateAggregates maps the aggregate result row back onto per-column
// stats: null counts derived from total minus non-null, min/max with
// temporal normalization, averages, true percentages, distinct counts.
func populateAggregates(stats map[string]*ColumnStats, total int64, bindings []aggBinding, values []any) {
	trueCounts := make(map[string]int64)

	for i, b := range bindings {
		st := stats[b.col]
		if st == nil {
			continue
		}

		switch b.kind {
		case aggNonNull:
			v := values[i].(*sql.NullInt64)
			st.Count = total
			nulls := total - v.Int64
			if nulls < 0 {
				nulls = 0
			}
			st.NullCount = &nulls

		case aggMin, aggMax:
			v := values[i].(*sql.NullString)
			if !v.Valid {
				continue
			}
			s := normalizeTemporal(st.Type, v.String)
			if b.kind == aggMin {
				st.Min = &s
			} else {
				st.Max = &s
			}

		case aggAvg, aggAvgLength:
			v := values[i].(*sql.NullFloat64)
			if v.Valid {
				avg := v.Float64
				st.Avg = &avg
			}

		case aggDistinct:
			v := values[i].(*sql.NullInt64)
			if v.Valid {
				distinct := v.Int64
				st.DistinctCount = &distinct
			}

		case aggTrueCount:
			v := values[i].(*sql.NullInt64)
			if v.Valid {
				trueCounts[b.col] = v.Int64
			}
		}
	}

	for col, trues := range trueCounts {
		st := stats[col]
		if st == nil || st.NullCount == nil {
			continue
		}
		nonNull := st.Count - *st.NullCount
		if nonNull <= 0 {
			continue
		}
		pct := float64(trues) / float64(nonNull) * 100
		st.TruePercentage = &pct
	}
}

// temporalScanLayouts are the wire shapes drivers hand back for date and
// time values scanned as strings.
var temporalScanLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeTemporal renders date/time aggregate values in one canonical
// form regardless of which driver produced them. Non-temporal kinds and
// unparsable values pass through untouched.
func normalizeTemporal(kind AbstractType, value string) string {
	switch kind {
	case TypeDate, TypeDatetime, TypeTimestamp:
	default:
		return value
	}

	for _, layout := range temporalScanLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if kind == TypeDate {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	return value
}
