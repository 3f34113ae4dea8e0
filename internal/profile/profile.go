// Package profile wraps one benchmark invocation in a GPU profiler and
// checks which report files it left behind.
package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/proc"
)

// defaultExtensions maps known profilers to the report files they write.
var defaultExtensions = map[string][]string{
	"nsys": {".nsys-rep"},
	"ncu":  {".ncu-rep"},
}

type Report struct {
	Base      string
	Artifacts []string
	Missing   []string
	Outcome   *proc.Outcome
}

// Command wraps exe and its args in the profiler invocation that writes
// its report to base.
func Command(cfg *config.Profiler, base, exe string, args []string) *proc.Invocation {
	argv := append([]string(nil), cfg.Args...)
	if cfg.OutputFlag != "" {
		argv = append(argv, cfg.OutputFlag, base)
	}
	argv = append(argv, exe)
	argv = append(argv, args...)
	return &proc.Invocation{Path: cfg.Tool, Args: argv}
}

// ExpectedArtifacts lists the report files the profiler should produce for
// base. Explicit extensions win over the per-tool defaults.
func ExpectedArtifacts(tool, base string, exts []string) []string {
	if len(exts) == 0 {
		exts = defaultExtensions[filepath.Base(tool)]
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, base+ext)
	}
	return out
}

// Base returns the report base path for a label under the output dir.
func Base(outputDir, label, runID string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s-%s", label, runID))
}

// Run profiles a single invocation. A profiler that exits non-zero is an
// error; report files that did not appear are listed in Report.Missing.
func Run(ctx context.Context, ex proc.Executor, cfg *config.Profiler, base string, target *proc.Invocation) (*Report, error) {
	if err := ex.Lookup(cfg.Tool); err != nil {
		return nil, fmt.Errorf("profiler: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}

	inv := Command(cfg, base, target.Path, target.Args)
	inv.Dir = target.Dir
	inv.Env = target.Env
	inv.Timeout = target.Timeout

	outcome, err := ex.Exec(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", cfg.Tool, err)
	}
	rep := &Report{Base: base, Outcome: outcome}
	if outcome.ExitCode != 0 {
		return rep, fmt.Errorf("%s exited with status %d", cfg.Tool, outcome.ExitCode)
	}
	for _, path := range ExpectedArtifacts(cfg.Tool, base, cfg.Extensions) {
		if _, err := os.Stat(path); err != nil {
			rep.Missing = append(rep.Missing, path)
			continue
		}
		rep.Artifacts = append(rep.Artifacts, path)
	}
	return rep, nil
}
