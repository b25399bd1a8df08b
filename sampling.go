package main

import "fmt"

// samplingLimit returns the row limit to apply to a relation's frequency
// dataset, or nil for a full scan. The limit never applies to the
// aggregate COUNT, which must always reflect the true relation size.
//
// Materialized views are pre-computed, so larger samples are cheap.
// Regular views re-execute their defining query on every read, so their
// ladder is more conservative. Plain tables are not sampled unless the
// caller opted in, in which case they follow the view ladder.
func samplingLimit(actx *AnalysisContext, kind RelationKind, estimatedRows int64) *int64 {
	switch kind {
	case KindMatView:
		return pickLimit(estimatedRows, []limitStep{
			{1_000_000, 10_000},
			{100_000, 5_000},
			{10_000, 2_000},
		})
	case KindView:
		return pickLimit(estimatedRows, []limitStep{
			{100_000, 2_000},
			{10_000, 1_000},
			{1_000, 500},
		})
	default:
		if actx != nil && actx.Sample {
			return pickLimit(estimatedRows, []limitStep{
				{100_000, 2_000},
				{10_000, 1_000},
				{1_000, 500},
			})
		}
		return nil
	}
}

type limitStep struct {
	above int64
	limit int64
}

func pickLimit(rows int64, steps []limitStep) *int64 {
	for _, s := range steps {
		if rows > s.above {
			limit := s.limit
			return &limit
		}
	}
	return nil
}

// sampledRelation returns the FROM expression for frequency queries:
// either the relation itself or a LIMIT subselect when sampling applies.
func sampledRelation(ad Adapter, relation string, limit *int64) string {
	quoted := quoteRelation(ad, relation)
	if limit == nil {
		return quoted
	}
	return fmt.Sprintf("(SELECT * FROM %s LIMIT %d) AS sampled", quoted, *limit)
}
