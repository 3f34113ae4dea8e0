package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/proc"
)

// Executor runs invocations inside a container image. Host directories are
// bind-mounted at their own absolute paths so that executable and data
// paths resolve the same way inside the container.
type Executor struct {
	Image  string
	GPUs   bool
	Mounts []Mount
}

// NewExecutor mounts the working directory, the source tree, every build
// dir and the input directory named in cfg.
func NewExecutor(cfg *config.Config) (*Executor, error) {
	if cfg.Container.Image == "" {
		return nil, fmt.Errorf("container.image is required for the docker executor")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working dir: %w", err)
	}
	dirs := []string{cwd, cfg.SourceDir}
	for _, b := range cfg.Builds {
		dirs = append(dirs, b.Dir)
	}
	if cfg.Benchmark.InputDirectory != "" {
		dirs = append(dirs, cfg.Benchmark.InputDirectory)
	}
	mounts, err := HostMounts(dirs)
	if err != nil {
		return nil, err
	}
	return &Executor{Image: cfg.Container.Image, GPUs: cfg.Container.GPUs, Mounts: mounts}, nil
}

// HostMounts turns dirs into identity bind mounts, dropping duplicates and
// dirs already covered by a parent mount.
func HostMounts(dirs []string) ([]Mount, error) {
	abs := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		a, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", d, err)
		}
		abs = append(abs, a)
	}
	sort.Strings(abs)

	var mounts []Mount
	for _, a := range abs {
		covered := false
		for _, m := range mounts {
			if rel, err := filepath.Rel(m.Source, a); err == nil && filepath.IsLocal(rel) {
				covered = true
				break
			}
		}
		if !covered {
			mounts = append(mounts, Mount{Source: a, Target: a})
		}
	}
	return mounts, nil
}

// Lookup checks the executable on the host side of its mount.
func (e *Executor) Lookup(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", path, err)
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return fmt.Errorf("looking up %s: not an executable file", path)
	}
	return nil
}

func (e *Executor) Exec(ctx context.Context, inv *proc.Invocation) (*proc.Outcome, error) {
	path, err := filepath.Abs(inv.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", inv.Path, err)
	}
	workDir := inv.Dir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("getting working dir: %w", err)
		}
	}
	res, err := RunContainer(ctx, &RunOpts{
		Image:   e.Image,
		Command: append([]string{path}, inv.Args...),
		WorkDir: workDir,
		Env:     inv.Env,
		Timeout: inv.Timeout,
		Mounts:  e.Mounts,
		GPUs:    e.GPUs,
	})
	if err != nil {
		return nil, err
	}
	return &proc.Outcome{
		Output:   res.Output,
		ExitCode: res.ExitCode,
		TimedOut: res.TimedOut,
		Duration: res.Duration,
	}, nil
}
