// Package build drives the external CMake build for each build directory.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/proc"
)

// outputTail is how many trailing output lines a failed step reports.
const outputTail = 20

type Builder struct {
	Executor  proc.Executor
	Tool      string
	SourceDir string
	Generator string
	BuildType string
	Jobs      int
	Flags     []string
}

func New(cfg *config.Config, ex proc.Executor) *Builder {
	return &Builder{
		Executor:  ex,
		Tool:      cfg.Build.Tool,
		SourceDir: cfg.SourceDir,
		Generator: cfg.Build.Generator,
		BuildType: cfg.Build.BuildType,
		Jobs:      cfg.Build.Jobs,
		Flags:     cfg.Build.Flags,
	}
}

// ConfigureArgs returns the arguments of the configure step for t.
func (b *Builder) ConfigureArgs(t *config.Target) []string {
	args := []string{"-S", b.SourceDir, "-B", t.Dir}
	if b.Generator != "" {
		args = append(args, "-G", b.Generator)
	}
	if b.BuildType != "" {
		args = append(args, "-DCMAKE_BUILD_TYPE="+b.BuildType)
	}
	args = append(args, b.Flags...)
	return append(args, t.Flags...)
}

// BuildArgs returns the arguments of the build step for t.
func (b *Builder) BuildArgs(t *config.Target) []string {
	args := []string{"--build", t.Dir}
	if b.Jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(b.Jobs))
	}
	return args
}

func (b *Builder) Configure(ctx context.Context, t *config.Target) error {
	return b.step(ctx, "configure", b.ConfigureArgs(t))
}

func (b *Builder) Build(ctx context.Context, t *config.Target) error {
	return b.step(ctx, "build", b.BuildArgs(t))
}

// Clean removes a build directory before reconfiguring. It refuses paths
// that would take the source tree or the filesystem root with it.
func (b *Builder) Clean(t *config.Target) error {
	dir, err := filepath.Abs(t.Dir)
	if err != nil {
		return fmt.Errorf("resolving build dir: %w", err)
	}
	src, err := filepath.Abs(b.SourceDir)
	if err != nil {
		return fmt.Errorf("resolving source dir: %w", err)
	}
	if t.Dir == "" || dir == string(filepath.Separator) {
		return fmt.Errorf("refusing to clean %q", t.Dir)
	}
	if rel, err := filepath.Rel(dir, src); err == nil && (filepath.IsLocal(rel) || rel == ".") {
		return fmt.Errorf("refusing to clean %s: it contains the source dir", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	return nil
}

// All cleans (optionally), configures and builds one target.
func (b *Builder) All(ctx context.Context, t *config.Target, clean bool) error {
	if clean {
		if err := b.Clean(t); err != nil {
			return err
		}
	}
	if err := b.Configure(ctx, t); err != nil {
		return err
	}
	return b.Build(ctx, t)
}

func (b *Builder) step(ctx context.Context, name string, args []string) error {
	outcome, err := b.Executor.Exec(ctx, &proc.Invocation{Path: b.Tool, Args: args})
	if err != nil {
		return fmt.Errorf("%s %s: %w", b.Tool, name, err)
	}
	if outcome.ExitCode != 0 {
		return fmt.Errorf("%s %s: exit status %d:\n%s", b.Tool, name, outcome.ExitCode, tail(outcome.Output, outputTail))
	}
	return nil
}

func tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
