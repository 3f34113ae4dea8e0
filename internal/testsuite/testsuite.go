// Package testsuite runs the project's GoogleTest executable and extracts
// the summary block it prints at the end.
package testsuite

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalnine/trackbench/internal/metric"
	"github.com/signalnine/trackbench/internal/proc"
)

type Result struct {
	Summary  []string
	Passed   int
	Failed   int
	ExitCode int
	Output   []string
}

// OK reports whether the suite exited cleanly with no failed tests.
func (r *Result) OK() bool {
	return r.ExitCode == 0 && r.Failed == 0
}

// Run executes the test binary and returns its summary. A non-zero exit is
// reported in Result, not as an error.
func Run(ctx context.Context, ex proc.Executor, inv *proc.Invocation, delimiter string) (*Result, error) {
	if err := ex.Lookup(inv.Path); err != nil {
		return nil, fmt.Errorf("test executable: %w", err)
	}
	outcome, err := ex.Exec(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("running tests: %w", err)
	}
	return Parse(metric.SplitLines(outcome.Output), outcome.ExitCode, delimiter), nil
}

// Parse interprets test output and exit code.
func Parse(lines []string, exitCode int, delimiter string) *Result {
	block := SummaryBlock(lines, delimiter)
	passed, failed := ParseCounts(block)
	return &Result{
		Summary:  block,
		Passed:   passed,
		Failed:   failed,
		ExitCode: exitCode,
		Output:   lines,
	}
}

// SummaryBlock returns the lines from the last line containing delimiter to
// the end of the output, or nil if the delimiter never appears.
func SummaryBlock(lines []string, delimiter string) []string {
	if delimiter == "" {
		return nil
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], delimiter) {
			return lines[i:]
		}
	}
	return nil
}

// ParseCounts reads the "[  PASSED  ] N tests" and "[  FAILED  ] N tests"
// lines of a GoogleTest summary. Per-test FAILED lines are not counted.
func ParseCounts(block []string) (passed, failed int) {
	for _, line := range block {
		line = strings.TrimSpace(line)
		if n, ok := count(line, "[  PASSED  ]"); ok {
			passed = n
		}
		if n, ok := count(line, "[  FAILED  ]"); ok {
			failed = n
		}
	}
	return passed, failed
}

func count(line, tag string) (int, bool) {
	rest, found := strings.CutPrefix(line, tag)
	if !found {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(rest), "%d test", &n); err != nil {
		return 0, false
	}
	return n, true
}
