// Package stats computes descriptive statistics over the metric values of
// run groups.
//
// Variance is the population variance, sum(v²)/n - mean², not the
// Bessel-corrected sample variance.
package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalnine/trackbench/internal/result"
)

// ErrNoData is returned when a statistic is requested from a summary that
// holds no values.
var ErrNoData = errors.New("no data")

// Accumulator keeps a running count, sum and sum of squares.
type Accumulator struct {
	n     int
	sum   float64
	sumSq float64
}

func (a *Accumulator) Add(v float64) {
	a.n++
	a.sum += v
	a.sumSq += v * v
}

func (a *Accumulator) Count() int { return a.n }

// Summary reports the accumulated values. Runs is left for the caller.
func (a *Accumulator) Summary(label string) Summary {
	s := Summary{Label: label, Count: a.n}
	if a.n == 0 {
		return s
	}
	n := float64(a.n)
	s.Mean = a.sum / n
	s.Variance = a.sumSq/n - s.Mean*s.Mean
	// Cancellation can leave a tiny negative residue for near-identical values.
	if s.Variance < 0 {
		s.Variance = 0
	}
	s.StdDev = math.Sqrt(s.Variance)
	return s
}

// Summary is derived from a RunGroup on demand. Mean, Variance and StdDev
// are only meaningful when HasData reports true.
type Summary struct {
	Label    string
	Runs     int
	Count    int
	Mean     float64
	Variance float64
	StdDev   float64
}

func (s Summary) HasData() bool { return s.Count > 0 }

// MeanValue returns the mean, or ErrNoData for an empty summary.
func (s Summary) MeanValue() (float64, error) {
	if !s.HasData() {
		return 0, ErrNoData
	}
	return s.Mean, nil
}

// Record converts the summary into its stored form, with nil statistics
// when there is no data.
func (s Summary) Record() result.GroupSummary {
	gs := result.GroupSummary{Label: s.Label, Runs: s.Runs, Count: s.Count}
	if s.HasData() {
		mean, variance, stddev := s.Mean, s.Variance, s.StdDev
		gs.Mean, gs.Variance, gs.StdDev = &mean, &variance, &stddev
	}
	return gs
}

// Summarize computes the summary of one group's extracted values.
func Summarize(g *result.RunGroup) Summary {
	s := Of(g.Label, g.Values())
	s.Runs = g.Invocations()
	return s
}

// SummarizeAll summarizes each group independently, keeping the input order.
func SummarizeAll(groups []*result.RunGroup) []Summary {
	summaries := make([]Summary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, Summarize(g))
	}
	return summaries
}

// Of summarizes a plain slice of values.
func Of(label string, values []float64) Summary {
	var acc Accumulator
	for _, v := range values {
		acc.Add(v)
	}
	s := acc.Summary(label)
	s.Runs = len(values)
	return s
}

// FormatValue renders v with the given precision, or "no data".
func FormatValue(s Summary, v float64, prec int) string {
	if !s.HasData() {
		return "no data"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
