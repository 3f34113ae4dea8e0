package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/trackbench/internal/baseline"
	"github.com/signalnine/trackbench/internal/result"
	"github.com/signalnine/trackbench/internal/stats"
)

// Generate reads a stored run and writes its summary in the given format.
// Groups are reported in the order they were run.
func Generate(runDir, format string, w io.Writer, base *baseline.Table) error {
	groups, err := collectGroups(runDir)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("no groups found in %s", runDir)
	}
	return WriteSummaries(stats.SummarizeAll(groups), format, w, base)
}

// WriteSummaries renders summaries as a table, markdown or json. A nil
// baseline leaves out the comparison column.
func WriteSummaries(summaries []stats.Summary, format string, w io.Writer, base *baseline.Table) error {
	switch format {
	case "markdown":
		return writeMarkdown(summaries, w, base)
	case "json":
		return writeJSON(summaries, w, base)
	case "table", "":
		return writeTable(summaries, w, base)
	default:
		return fmt.Errorf("unknown format %q (want table, markdown or json)", format)
	}
}

// collectGroups loads groups in run.json label order. Without run.json it
// falls back to every group dir, sorted by label.
func collectGroups(runDir string) ([]*result.RunGroup, error) {
	var labels []string
	meta, err := result.ReadRunMeta(runDir)
	switch {
	case err == nil:
		labels = meta.Labels
	case errors.Is(err, fs.ErrNotExist):
		entries, err := os.ReadDir(filepath.Join(runDir, "groups"))
		if err != nil {
			return nil, fmt.Errorf("reading groups: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				labels = append(labels, e.Name())
			}
		}
		sort.Strings(labels)
	default:
		return nil, err
	}

	var groups []*result.RunGroup
	for _, label := range labels {
		g, err := result.ReadGroup(runDir, label)
		if err != nil {
			log.Printf("warning: skipping group %s: %v", label, err)
			continue
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func baselineCell(base *baseline.Table, s stats.Summary) string {
	if !s.HasData() {
		return "-"
	}
	pct, ok := base.Delta(s.Label, s.Mean)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

func columns(summaries []stats.Summary, base *baseline.Table) []string {
	cols := []string{"LABEL", "RUNS", "VALUES", "MEAN (ms/event)", "VARIANCE"}
	if len(summaries) > 1 {
		cols = append(cols, "STDDEV")
	}
	if base != nil {
		cols = append(cols, "VS BASELINE")
	}
	return cols
}

func row(s stats.Summary, withStdDev bool, base *baseline.Table) []string {
	cells := []string{
		s.Label,
		fmt.Sprintf("%d", s.Runs),
		fmt.Sprintf("%d", s.Count),
		stats.FormatValue(s, s.Mean, 3),
		stats.FormatValue(s, s.Variance, 6),
	}
	if withStdDev {
		cells = append(cells, stats.FormatValue(s, s.StdDev, 3))
	}
	if base != nil {
		cells = append(cells, baselineCell(base, s))
	}
	return cells
}

func writeTable(summaries []stats.Summary, w io.Writer, base *baseline.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cols := columns(summaries, base)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	fmt.Fprintln(tw, strings.Repeat("-", 16*len(cols)))
	for _, s := range summaries {
		fmt.Fprintln(tw, strings.Join(row(s, len(summaries) > 1, base), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(summaries []stats.Summary, w io.Writer, base *baseline.Table) error {
	cols := columns(summaries, base)
	fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	fmt.Fprintf(w, "|%s\n", strings.Repeat("---|", len(cols)))
	for _, s := range summaries {
		fmt.Fprintf(w, "| %s |\n", strings.Join(row(s, len(summaries) > 1, base), " | "))
	}
	return nil
}

type jsonSummary struct {
	result.GroupSummary
	BaselineDeltaPct *float64 `json:"vs_baseline_pct,omitempty"`
}

func writeJSON(summaries []stats.Summary, w io.Writer, base *baseline.Table) error {
	out := make([]jsonSummary, 0, len(summaries))
	for _, s := range summaries {
		js := jsonSummary{GroupSummary: s.Record()}
		if s.HasData() {
			if pct, ok := base.Delta(s.Label, s.Mean); ok {
				js.BaselineDeltaPct = &pct
			}
		}
		out = append(out, js)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
