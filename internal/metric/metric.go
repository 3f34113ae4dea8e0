// Package metric pulls a single numeric figure out of a benchmark's text output.
package metric

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/signalnine/trackbench/internal/config"
)

// Extractor finds the metric value in one run's output lines. A false second
// return means no value could be found; it is never an error.
type Extractor interface {
	Extract(lines []string) (float64, bool)
}

// TokenExtractor picks the last line containing Marker and returns the
// whitespace-delimited token immediately before the token equal to Unit.
type TokenExtractor struct {
	Marker string
	Unit   string
}

// MsPerEvent matches the benchmark's summary line, e.g.
// "Event processing time: 3.21 ms/event, throughput: 311.5 events/s".
var MsPerEvent = TokenExtractor{Marker: "Event processing", Unit: "ms/event,"}

func (e TokenExtractor) Extract(lines []string) (float64, bool) {
	line, ok := lastContaining(lines, e.Marker)
	if !ok {
		return 0, false
	}
	tokens := strings.Fields(line)
	for i, tok := range tokens {
		if tok != e.Unit {
			continue
		}
		if i == 0 {
			return 0, false
		}
		return parseFloat(tokens[i-1])
	}
	return 0, false
}

// PatternExtractor applies a regular expression with one capture group to
// the last line it matches.
type PatternExtractor struct {
	re *regexp.Regexp
}

func NewPatternExtractor(pattern string) (*PatternExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling metric pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("metric pattern %q has no capture group", pattern)
	}
	return &PatternExtractor{re: re}, nil
}

func (e *PatternExtractor) Extract(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		m := e.re.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		return parseFloat(m[1])
	}
	return 0, false
}

// New builds the extractor described by the metric config section. An empty
// section yields MsPerEvent.
func New(cfg config.Metric) (Extractor, error) {
	if cfg.Pattern != "" {
		return NewPatternExtractor(cfg.Pattern)
	}
	e := MsPerEvent
	if cfg.Marker != "" {
		e.Marker = cfg.Marker
	}
	if cfg.Unit != "" {
		e.Unit = cfg.Unit
	}
	return e, nil
}

// SplitLines splits raw process output into lines, dropping carriage returns.
func SplitLines(output []byte) []string {
	s := strings.ReplaceAll(string(output), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func lastContaining(lines []string, marker string) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], marker) {
			return lines[i], true
		}
	}
	return "", false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
