// Package baseline compares run summaries with reference ms/event figures.
package baseline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/trackbench/internal/stats"
)

// Table maps a build label to its reference mean.
type Table struct {
	Means map[string]float64
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading baseline file: %w", err)
	}
	var means map[string]float64
	if err := yaml.Unmarshal(data, &means); err != nil {
		return nil, fmt.Errorf("parsing baseline file: %w", err)
	}
	return &Table{Means: means}, nil
}

// Delta returns the percentage change of mean relative to the label's
// baseline. ok is false when the label has no usable baseline.
func (t *Table) Delta(label string, mean float64) (pct float64, ok bool) {
	if t == nil || t.Means == nil {
		return 0, false
	}
	ref, found := t.Means[label]
	if !found || ref == 0 {
		return 0, false
	}
	return (mean - ref) / ref * 100, true
}

// Regression is a group whose mean grew by more than the allowed threshold.
type Regression struct {
	Label    string
	Baseline float64
	Mean     float64
	DeltaPct float64
}

func (r Regression) String() string {
	return fmt.Sprintf("%s: %.3f ms/event vs baseline %.3f (%+.1f%%)", r.Label, r.Mean, r.Baseline, r.DeltaPct)
}

// Regressions lists the summaries that are slower than baseline by more
// than thresholdPct. Groups without data or without a baseline are skipped.
func (t *Table) Regressions(summaries []stats.Summary, thresholdPct float64) []Regression {
	var out []Regression
	for _, s := range summaries {
		if !s.HasData() {
			continue
		}
		pct, ok := t.Delta(s.Label, s.Mean)
		if !ok || pct <= thresholdPct {
			continue
		}
		out = append(out, Regression{Label: s.Label, Baseline: t.Means[s.Label], Mean: s.Mean, DeltaPct: pct})
	}
	return out
}
