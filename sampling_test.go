package main

import "testing"

func TestSamplingLimit(t *testing.T) {
	actx := &AnalysisContext{}

	tests := []struct {
		kind RelationKind
		rows int64
		want int64 // 0 = no limit
	}{
		{KindMatView, 2_000_000, 10_000},
		{KindMatView, 500_000, 5_000},
		{KindMatView, 50_000, 2_000},
		{KindMatView, 5_000, 0},
		{KindView, 150_000, 2_000},
		{KindView, 50_000, 1_000},
		{KindView, 5_000, 500},
		{KindView, 800, 0},
		{KindTable, 10_000_000, 0}, // tables are never sampled by default
	}
	for _, tt := range tests {
		got := samplingLimit(actx, tt.kind, tt.rows)
		if tt.want == 0 {
			if got != nil {
				t.Errorf("samplingLimit(%s, %d) = %d, want none", tt.kind, tt.rows, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("samplingLimit(%s, %d) = %v, want %d", tt.kind, tt.rows, got, tt.want)
		}
	}
}

func TestSamplingLimit_OptIn(t *testing.T) {
	actx := &AnalysisContext{Sample: true}
	got := samplingLimit(actx, KindTable, 150_000)
	if got == nil || *got != 2_000 {
		t.Errorf("opted-in table sampling = %v, want 2000", got)
	}
	if limit := samplingLimit(actx, KindTable, 500); limit != nil {
		t.Errorf("small table sampled at %d despite opt-in thresholds", *limit)
	}
}

func TestSampledRelation(t *testing.T) {
	ad := &sqliteAdapter{}
	if got := sampledRelation(ad, "events", nil); got != `"events"` {
		t.Errorf("unsampled relation = %q", got)
	}

	limit := int64(500)
	got := sampledRelation(ad, "events", &limit)
	want := `(SELECT * FROM "events" LIMIT 500) AS sampled`
	if got != want {
		t.Errorf("sampled relation = %q, want %q", got, want)
	}
}
