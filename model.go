package main

import "time"

// ColumnSchema describes one column of an analyzed relation. It is derived
// once per table per run and never mutated afterwards.
type ColumnSchema struct {
	Name      string
	Type      AbstractType
	DBType    string // raw engine type, e.g. "character varying(255)"
	LikelyKey bool
}

// ValueCount is a single value/occurrence pair in a frequency list.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// ColumnStats accumulates statistics for one column. Created empty at
// analysis start, filled by the aggregate populator and the frequency
// engine, then handed to the renderer.
//
// Pointer fields distinguish "not computed" from a genuine zero: NullCount
// stays nil when the aggregate query failed, DistinctCount stays nil for
// likely-key columns, and so on.
type ColumnStats struct {
	Name           string       `json:"-"`
	Type           AbstractType `json:"type"`
	DBType         string       `json:"db_type"`
	Count          int64        `json:"count"`
	NullCount      *int64       `json:"null_count,omitempty"`
	Min            *string      `json:"min,omitempty"`
	Max            *string      `json:"max,omitempty"`
	Avg            *float64     `json:"avg,omitempty"`
	TruePercentage *float64     `json:"true_percentage,omitempty"`
	DistinctCount  *int64       `json:"distinct_count,omitempty"`
	MostFrequent   []ValueCount `json:"most_frequent,omitempty"`
	LeastFrequent  []ValueCount `json:"least_frequent,omitempty"`
	IsUnique       bool         `json:"is_unique,omitempty"`
	LikelyKey      bool         `json:"likely_key,omitempty"`
	Found          bool         `json:"found,omitempty"`
	SearchValue    string       `json:"search_value,omitempty"`
}

// TableAnalysis holds the result of profiling one relation. Either Error
// is set or Columns is populated. Owned exclusively by the worker that
// produced it; read-only once merged into the Report.
type TableAnalysis struct {
	Table   string                  `json:"table"`
	Kind    RelationKind            `json:"kind"`
	Rows    int64                   `json:"rows"`
	Columns map[string]*ColumnStats `json:"columns,omitempty"`
	Order   []string                `json:"-"` // column order as introspected
	Error   string                  `json:"error,omitempty"`
	Note    string                  `json:"note,omitempty"`
}

// Report is the final output of a run: one TableAnalysis per selected
// table, in selection order. The engine populates it, renderers format it.
type Report struct {
	Adapter     string                    `json:"adapter"`
	GeneratedAt time.Time                 `json:"generated_at"`
	DurationMs  int64                     `json:"duration_ms"`
	Tables      []string                  `json:"tables"`
	Analyses    map[string]*TableAnalysis `json:"analyses"`
}

// RelationKind classifies a queryable row set.
type RelationKind string

const (
	KindTable   RelationKind = "table"
	KindView    RelationKind = "view"
	KindMatView RelationKind = "materialized_view"
)

// RelationMeta is the adapter-reported identity of a relation: its kind
// and the engine's row-count estimate (0 when the engine has none).
type RelationMeta struct {
	Kind          RelationKind
	EstimatedRows int64
}

// ColumnMeta is the adapter-reported raw column description before type
// normalization.
type ColumnMeta struct {
	Name       string
	DriverType string // coarse engine-independent symbol, "" when unknown
	DBType     string // raw type string, lower-cased
}

// FrequencyBatchGroup collects columns that share a physical database
// type and can therefore ride in one UNION ALL frequency query. Transient:
// built and discarded within a single analysis pass.
type FrequencyBatchGroup struct {
	TypeKey string
	Columns []ColumnSchema
}

// AnalysisContext carries per-run options through every engine call so no
// component reads global state.
type AnalysisContext struct {
	Debug       bool
	Sample      bool
	SearchValue string
}

func (a *AnalysisContext) debugf(format string, args ...any) {
	if a != nil && a.Debug {
		debugLogf(format, args...)
	}
}
