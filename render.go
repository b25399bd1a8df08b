package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// renderReport writes the report in the requested format.
func renderReport(w io.Writer, report *Report, format string) error {
	switch format {
	case "json":
		return renderJSON(w, report)
	case "compact":
		return renderCompact(w, report)
	case "gpt":
		return renderGPT(w, report)
	default:
		return renderSummary(w, report)
	}
}

func renderJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// renderSummary prints one aligned block per table with a row per column.
func renderSummary(w io.Writer, report *Report) error {
	for _, table := range report.Tables {
		ta := report.Analyses[table]
		if ta == nil {
			continue
		}
		if ta.Error != "" {
			fmt.Fprintf(w, "%s: ERROR %s\n\n", table, ta.Error)
			continue
		}

		fmt.Fprintf(w, "%s (%s, %d rows)\n", table, ta.Kind, ta.Rows)
		if ta.Note != "" {
			fmt.Fprintf(w, "  note: %s\n", ta.Note)
		}

		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  COLUMN\tTYPE\tNULLS\tDISTINCT\tMIN\tMAX\tAVG\tTOP VALUES")
		for _, name := range ta.Order {
			st := ta.Columns[name]
			if st == nil {
				continue
			}
			fmt.Fprintf(tw, "  %s%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				name, columnMarks(st),
				st.Type,
				fmtInt64Ptr(st.NullCount),
				fmtInt64Ptr(st.DistinctCount),
				fmtStrPtr(st.Min),
				fmtStrPtr(st.Max),
				fmtAvg(st),
				fmtFrequencies(st.MostFrequent, 3),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return renderSearchMatches(w, report)
}

// renderCompact prints one line per column.
func renderCompact(w io.Writer, report *Report) error {
	for _, table := range report.Tables {
		ta := report.Analyses[table]
		if ta == nil {
			continue
		}
		if ta.Error != "" {
			fmt.Fprintf(w, "%s error=%q\n", table, ta.Error)
			continue
		}
		for _, name := range ta.Order {
			st := ta.Columns[name]
			if st == nil {
				continue
			}
			parts := []string{
				fmt.Sprintf("%s.%s", table, name),
				st.Type.String(),
				fmt.Sprintf("rows=%d", st.Count),
				fmt.Sprintf("nulls=%s", fmtInt64Ptr(st.NullCount)),
			}
			if st.DistinctCount != nil {
				parts = append(parts, fmt.Sprintf("distinct=%d", *st.DistinctCount))
			}
			if st.Min != nil {
				parts = append(parts, fmt.Sprintf("min=%s", *st.Min))
			}
			if st.Max != nil {
				parts = append(parts, fmt.Sprintf("max=%s", *st.Max))
			}
			if st.Found {
				parts = append(parts, fmt.Sprintf("found=%q", st.SearchValue))
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
		}
	}
	return nil
}

// renderGPT prints a dense digest meant to be pasted into an LLM prompt:
// maximum schema signal per token, no alignment whitespace.
func renderGPT(w io.Writer, report *Report) error {
	fmt.Fprintf(w, "Database profile (%s):\n", report.Adapter)
	for _, table := range report.Tables {
		ta := report.Analyses[table]
		if ta == nil || ta.Error != "" {
			continue
		}
		fmt.Fprintf(w, "%s (%d rows):\n", table, ta.Rows)
		for _, name := range ta.Order {
			st := ta.Columns[name]
			if st == nil {
				continue
			}
			var attrs []string
			if st.LikelyKey {
				attrs = append(attrs, "key")
			}
			if st.NullCount != nil && *st.NullCount > 0 {
				attrs = append(attrs, fmt.Sprintf("%d null", *st.NullCount))
			}
			if st.DistinctCount != nil {
				attrs = append(attrs, fmt.Sprintf("%d distinct", *st.DistinctCount))
			}
			if st.Min != nil && st.Max != nil {
				attrs = append(attrs, fmt.Sprintf("range %s..%s", *st.Min, *st.Max))
			}
			if top := fmtFrequencies(st.MostFrequent, 3); top != "" {
				attrs = append(attrs, "top "+top)
			}
			line := fmt.Sprintf("- %s %s", name, st.Type)
			if len(attrs) > 0 {
				line += " (" + strings.Join(attrs, ", ") + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

// renderSearchMatches appends a match section when the run was a search.
func renderSearchMatches(w io.Writer, report *Report) error {
	var matches []string
	for _, table := range report.Tables {
		ta := report.Analyses[table]
		if ta == nil {
			continue
		}
		for _, name := range ta.Order {
			st := ta.Columns[name]
			if st != nil && st.Found {
				matches = append(matches, fmt.Sprintf("%s.%s contains %q", table, name, st.SearchValue))
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Search matches:")
	for _, m := range matches {
		fmt.Fprintf(w, "  %s\n", m)
	}
	return nil
}

func columnMarks(st *ColumnStats) string {
	switch {
	case st.IsUnique:
		return "*"
	case st.LikelyKey:
		return "~"
	}
	return ""
}

func fmtInt64Ptr(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func fmtStrPtr(v *string) string {
	if v == nil {
		return "-"
	}
	return truncateValue(*v, 24)
}

func fmtAvg(st *ColumnStats) string {
	if st.TruePercentage != nil {
		return fmt.Sprintf("%.1f%% true", *st.TruePercentage)
	}
	if st.Avg == nil {
		return "-"
	}
	return strconv.FormatFloat(*st.Avg, 'f', 2, 64)
}

func fmtFrequencies(vals []ValueCount, max int) string {
	if len(vals) == 0 {
		return ""
	}
	if len(vals) > max {
		vals = vals[:max]
	}
	parts := make([]string, len(vals))
	for i, vc := range vals {
		parts[i] = fmt.Sprintf("%s(%d)", truncateValue(vc.Value, 16), vc.Count)
	}
	return strings.Join(parts, " ")
}

func truncateValue(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
