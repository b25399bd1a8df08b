package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// tableJob pairs a table with its position in the selection order so
// out-of-order completions land back in their slot.
type tableJob struct {
	index int
	table string
}

// runAnalysis profiles every selected table across a bounded worker pool.
// Each worker owns one database connection for its whole lifetime and
// runs the per-table pipeline sequentially for the tables it picks up;
// no connection or mutable state is shared between workers. A failed
// table records its error and never cancels its siblings.
func runAnalysis(ctx context.Context, actx *AnalysisContext, ad Adapter, dsn string, tables []string, workers int) *Report {
	start := time.Now()

	if workers < 1 {
		workers = 1
	}
	if workers > len(tables) {
		workers = len(tables)
	}

	jobs := make(chan tableJob)
	results := make([]*TableAnalysis, len(tables))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			analysisWorker(ctx, actx, ad, dsn, jobs, results)
		}()
	}

	for i, t := range tables {
		jobs <- tableJob{index: i, table: t}
	}
	close(jobs)
	wg.Wait()

	report := &Report{
		Adapter:     ad.Name(),
		GeneratedAt: start,
		DurationMs:  time.Since(start).Milliseconds(),
		Tables:      tables,
		Analyses:    make(map[string]*TableAnalysis, len(tables)),
	}
	for _, ta := range results {
		if ta != nil {
			report.Analyses[ta.Table] = ta
		}
	}
	return report
}

// analysisWorker opens its own connection, drains the job channel, and
// writes each result into the slot reserved for its table. If the
// connection cannot be opened, every job the worker picks up is recorded
// as failed rather than aborting the run.
func analysisWorker(ctx context.Context, actx *AnalysisContext, ad Adapter, dsn string, jobs <-chan tableJob, results []*TableAnalysis) {
	db, err := ad.Open(dsn)
	if err == nil {
		db.SetMaxOpenConns(1)
		err = db.PingContext(ctx)
	}
	if err != nil {
		for job := range jobs {
			results[job.index] = &TableAnalysis{
				Table: job.table,
				Error: fmt.Sprintf("open connection: %v", err),
			}
		}
		return
	}
	defer db.Close()

	enumTypes, err := ad.EnumTypes(ctx, db)
	if err != nil {
		actx.debugf("enum catalog probe failed: %v", err)
		enumTypes = nil
	}

	for job := range jobs {
		tableStart := time.Now()
		ta := analyzeTable(ctx, actx, ad, db, job.table, enumTypes)
		results[job.index] = ta
		if ta.Error != "" {
			log.Printf("  %s: %s", job.table, ta.Error)
		} else {
			log.Printf("  %s: %d rows, %d columns (%s)",
				job.table, ta.Rows, len(ta.Columns), time.Since(tableStart).Round(time.Millisecond))
		}
	}
}
