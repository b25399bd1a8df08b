package main

import (
	"database/sql"
	"strings"
	"testing"
)

func aggKinds(bindings []aggBinding, col string) []aggKind {
	var kinds []aggKind
	for _, b := range bindings {
		if b.col == col {
			kinds = append(kinds, b.kind)
		}
	}
	return kinds
}

func hasAggKind(bindings []aggBinding, col string, kind aggKind) bool {
	for _, k := range aggKinds(bindings, col) {
		if k == kind {
			return true
		}
	}
	return false
}

func TestBuildAggregateQuery_Projections(t *testing.T) {
	ad := &postgresAdapter{}
	cols := []ColumnSchema{
		{Name: "id", Type: TypeInteger, DBType: "bigint", LikelyKey: true},
		{Name: "age", Type: TypeInteger, DBType: "integer"},
		{Name: "name", Type: TypeString, DBType: "character varying(255)"},
		{Name: "bio", Type: TypeText, DBType: "text"},
		{Name: "active", Type: TypeBoolean, DBType: "boolean"},
		{Name: "meta", Type: TypeJSON, DBType: "jsonb"},
		{Name: "tags", Type: TypeArray, DBType: "text[]"},
		{Name: "shape", Type: TypeUnsupported, DBType: "geometry"},
	}

	query, bindings := buildAggregateQuery(ad, "public.users", cols)

	if !strings.HasPrefix(query, "SELECT COUNT(*), ") {
		t.Fatalf("query does not start with COUNT(*): %s", query)
	}
	if !strings.HasSuffix(query, "FROM public.users") {
		t.Fatalf("query does not target the relation: %s", query)
	}

	// Every column is null-counted, even the unsupported one.
	for _, c := range cols {
		if !hasAggKind(bindings, c.Name, aggNonNull) {
			t.Errorf("column %s has no non-null count", c.Name)
		}
	}

	// Likely-key integer: min/max only, no AVG or DISTINCT.
	if hasAggKind(bindings, "id", aggAvg) || hasAggKind(bindings, "id", aggDistinct) {
		t.Errorf("likely-key column id got avg/distinct: %v", aggKinds(bindings, "id"))
	}
	if !hasAggKind(bindings, "id", aggMin) || !hasAggKind(bindings, "id", aggMax) {
		t.Errorf("likely-key column id lost min/max: %v", aggKinds(bindings, "id"))
	}

	// Plain integer gets the full set.
	for _, kind := range []aggKind{aggMin, aggMax, aggAvg, aggDistinct} {
		if !hasAggKind(bindings, "age", kind) {
			t.Errorf("integer column age missing kind %d", kind)
		}
	}

	// Text: average length only.
	if got := aggKinds(bindings, "bio"); len(got) != 2 || got[1] != aggAvgLength {
		t.Errorf("text column bio kinds = %v, want [nonnull avglength]", got)
	}

	// Boolean: true count present.
	if !hasAggKind(bindings, "active", aggTrueCount) {
		t.Errorf("boolean column active has no true count")
	}
	if !strings.Contains(query, "SUM(CASE WHEN active THEN 1 ELSE 0 END)") {
		t.Errorf("query missing boolean true-count projection: %s", query)
	}

	// JSON goes through a text cast.
	if !strings.Contains(query, "COUNT(DISTINCT CAST(meta AS text))") {
		t.Errorf("query missing casted json distinct: %s", query)
	}

	// Array length aggregates on postgres.
	if !strings.Contains(query, "MIN(array_length(tags, 1))") {
		t.Errorf("query missing array length projection: %s", query)
	}

	// Unsupported: nothing beyond the null count.
	if got := aggKinds(bindings, "shape"); len(got) != 1 {
		t.Errorf("unsupported column shape kinds = %v, want only nonnull", got)
	}
}

func TestBuildAggregateQuery_NoArraysOutsidePostgres(t *testing.T) {
	ad := &sqliteAdapter{}
	cols := []ColumnSchema{{Name: "tags", Type: TypeArray, DBType: "text[]"}}

	_, bindings := buildAggregateQuery(ad, "items", cols)
	if got := aggKinds(bindings, "tags"); len(got) != 1 {
		t.Errorf("array column on sqlite got projections beyond nonnull: %v", got)
	}
}

func TestPopulateAggregates(t *testing.T) {
	cols := []ColumnSchema{
		{Name: "age", Type: TypeInteger, DBType: "integer"},
		{Name: "active", Type: TypeBoolean, DBType: "boolean"},
		{Name: "created_at", Type: TypeDatetime, DBType: "timestamp without time zone"},
	}
	stats := map[string]*ColumnStats{
		"age":        {Name: "age", Type: TypeInteger},
		"active":     {Name: "active", Type: TypeBoolean},
		"created_at": {Name: "created_at", Type: TypeDatetime},
	}
	_, bindings := buildAggregateQuery(&postgresAdapter{}, "t", cols)

	values := make([]any, len(bindings))
	for i, b := range bindings {
		switch {
		case b.col == "age" && b.kind == aggNonNull:
			values[i] = &sql.NullInt64{Int64: 8, Valid: true}
		case b.col == "age" && b.kind == aggMin:
			values[i] = &sql.NullString{String: "1", Valid: true}
		case b.col == "age" && b.kind == aggMax:
			values[i] = &sql.NullString{String: "99", Valid: true}
		case b.col == "age" && b.kind == aggAvg:
			values[i] = &sql.NullFloat64{Float64: 41.5, Valid: true}
		case b.col == "age" && b.kind == aggDistinct:
			values[i] = &sql.NullInt64{Int64: 7, Valid: true}
		case b.col == "active" && b.kind == aggNonNull:
			values[i] = &sql.NullInt64{Int64: 10, Valid: true}
		case b.col == "active" && b.kind == aggTrueCount:
			values[i] = &sql.NullInt64{Int64: 7, Valid: true}
		case b.col == "created_at" && b.kind == aggMin:
			values[i] = &sql.NullString{String: "2024-03-01T12:30:45Z", Valid: true}
		default:
			switch b.kind {
			case aggAvg, aggAvgLength:
				values[i] = &sql.NullFloat64{}
			case aggNonNull, aggDistinct, aggTrueCount:
				values[i] = &sql.NullInt64{}
			default:
				values[i] = &sql.NullString{}
			}
		}
	}

	populateAggregates(stats, 10, bindings, values)

	age := stats["age"]
	if age.Count != 10 {
		t.Errorf("age.Count = %d, want 10", age.Count)
	}
	if age.NullCount == nil || *age.NullCount != 2 {
		t.Errorf("age.NullCount = %v, want 2", age.NullCount)
	}
	if age.Min == nil || *age.Min != "1" || age.Max == nil || *age.Max != "99" {
		t.Errorf("age min/max = %v/%v, want 1/99", age.Min, age.Max)
	}
	if age.Avg == nil || *age.Avg != 41.5 {
		t.Errorf("age.Avg = %v, want 41.5", age.Avg)
	}
	if age.DistinctCount == nil || *age.DistinctCount != 7 {
		t.Errorf("age.DistinctCount = %v, want 7", age.DistinctCount)
	}

	active := stats["active"]
	if active.TruePercentage == nil || *active.TruePercentage != 70.0 {
		t.Errorf("active.TruePercentage = %v, want 70.0", active.TruePercentage)
	}

	created := stats["created_at"]
	if created.Min == nil || *created.Min != "2024-03-01 12:30:45 UTC" {
		t.Errorf("created_at.Min = %v, want normalized timestamp", created.Min)
	}
}

func TestNormalizeTemporal(t *testing.T) {
	tests := []struct {
		kind AbstractType
		in   string
		want string
	}{
		{TypeDate, "2024-03-01T00:00:00Z", "2024-03-01"},
		{TypeDate, "2024-03-01", "2024-03-01"},
		{TypeDatetime, "2024-03-01 12:30:45", "2024-03-01 12:30:45 UTC"},
		{TypeTimestamp, "2024-03-01T12:30:45.5+02:00", "2024-03-01 10:30:45 UTC"},
		{TypeDatetime, "not a time", "not a time"},
		{TypeString, "2024-03-01", "2024-03-01"}, // untouched for non-temporal kinds
	}
	for _, tt := range tests {
		if got := normalizeTemporal(tt.kind, tt.in); got != tt.want {
			t.Errorf("normalizeTemporal(%s, %q) = %q, want %q", tt.kind, tt.in, got, tt.want)
		}
	}
}
