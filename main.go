package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagURL     string
	flagAdapter string
	flagTables  []string
	flagWorkers int
	flagSample  bool
	flagSearch  string
	flagFormat  string
	flagOutput  string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "skimdb [config.toml]",
	Short: "Column statistics profiler for relational databases",
	Long: `skimdb profiles every column of the selected tables: cardinality,
range, null counts, value distributions and frequencies, without the
caller writing any SQL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to profiler TOML config file")
	rootCmd.Flags().StringVar(&flagURL, "url", "", "database URL (overrides config)")
	rootCmd.Flags().StringVar(&flagAdapter, "adapter", "", "database adapter: postgres, mysql or sqlite")
	rootCmd.Flags().StringSliceVar(&flagTables, "tables", nil, "tables to analyze (default: all)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel table workers (default: auto)")
	rootCmd.Flags().BoolVar(&flagSample, "sample", false, "sample large tables during frequency analysis")
	rootCmd.Flags().StringVar(&flagSearch, "search", "", "probe all columns for a literal value")
	rootCmd.Flags().StringVar(&flagFormat, "format", "", "output format: summary, compact, gpt or json")
	rootCmd.Flags().StringVar(&flagOutput, "output", "", "write the report to a file instead of stdout")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "log generated SQL and fallbacks")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	ad, err := newAdapter(cfg.Database.Adapter)
	if err != nil {
		return err
	}

	actx := &AnalysisContext{
		Debug:       cfg.Profile.Debug,
		Sample:      cfg.Profile.Sample,
		SearchValue: cfg.Profile.Search,
	}

	ctx := context.Background()
	start := time.Now()

	// Bootstrap connection: validate the DSN and resolve the table list.
	// Workers open their own connections afterwards.
	log.Printf("connecting to %s...", ad.Name())
	db, err := ad.Open(cfg.dsn())
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", ad.Name(), err)
	}

	tables := cfg.Profile.Tables
	if len(tables) == 0 {
		tables, err = ad.ListTables(ctx, db, cfg.Database.Schema)
		if err != nil {
			db.Close()
			return err
		}
	}
	db.Close()

	if len(tables) == 0 {
		return fmt.Errorf("no tables to analyze")
	}

	workers := cfg.Profile.Workers
	log.Printf("analyzing %d tables with %d workers...", len(tables), workers)
	report := runAnalysis(ctx, actx, ad, cfg.dsn(), tables, workers)

	out := os.Stdout
	if cfg.Output.File != "" {
		f, err := os.Create(cfg.resolvePath(cfg.Output.File))
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := renderReport(out, report, cfg.Output.Format); err != nil {
		return err
	}

	log.Printf("profiled %d tables in %s", len(tables), time.Since(start).Round(time.Millisecond))
	return nil
}

// resolveConfig merges the config file (positional arg or --config) with
// command-line overrides. A config file is optional when --url identifies
// the database on its own.
func resolveConfig(args []string) (*ProfileConfig, error) {
	cfgPath := flagConfig
	if len(args) > 0 {
		cfgPath = args[0]
	}

	var cfg *ProfileConfig
	if cfgPath != "" {
		loaded, err := loadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		if flagURL == "" {
			return nil, fmt.Errorf("config file or --url required: skimdb <config.toml> or skimdb --url <database-url>")
		}
		cfg = defaultConfig()
	}

	if flagURL != "" {
		cfg.Database.URL = flagURL
	}
	if flagAdapter != "" {
		cfg.Database.Adapter = flagAdapter
	}
	if len(flagTables) > 0 {
		cfg.Profile.Tables = flagTables
	}
	if flagWorkers > 0 {
		cfg.Profile.Workers = flagWorkers
	}
	if flagSample {
		cfg.Profile.Sample = true
	}
	if flagSearch != "" {
		cfg.Profile.Search = flagSearch
	}
	if flagFormat != "" {
		cfg.Output.Format = flagFormat
	}
	if flagOutput != "" {
		cfg.Output.File = flagOutput
	}
	if flagDebug {
		cfg.Profile.Debug = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func debugLogf(format string, args ...any) {
	log.Printf("debug: "+format, args...)
}
