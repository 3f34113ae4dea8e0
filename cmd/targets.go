package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/docker"
	"github.com/signalnine/trackbench/internal/proc"
)

var flagExecutor string

// filterTargets returns the builds named by labels, in the order given.
// No labels selects every build in config order.
func filterTargets(builds []config.Target, labels []string) ([]config.Target, error) {
	if len(labels) == 0 {
		return builds, nil
	}
	byLabel := make(map[string]config.Target, len(builds))
	for _, b := range builds {
		byLabel[b.Label] = b
	}
	seen := make(map[string]bool, len(labels))
	var selected []config.Target
	for _, l := range labels {
		b, ok := byLabel[l]
		if !ok {
			return nil, fmt.Errorf("unknown build label %q", l)
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		selected = append(selected, b)
	}
	return selected, nil
}

// singleTarget picks one build: the named one, or the only one configured.
func singleTarget(cfg *config.Config, label string) (*config.Target, error) {
	if label == "" {
		if len(cfg.Builds) != 1 {
			return nil, fmt.Errorf("--label is required when %d builds are configured", len(cfg.Builds))
		}
		return &cfg.Builds[0], nil
	}
	t, ok := cfg.Target(label)
	if !ok {
		return nil, fmt.Errorf("unknown build label %q", label)
	}
	return t, nil
}

// newExecutor returns the executor named by kind. An empty kind picks the
// docker executor when a container image is configured.
func newExecutor(cfg *config.Config, kind string) (proc.Executor, string, error) {
	if kind == "" {
		kind = "local"
		if cfg.Container.Image != "" {
			kind = "docker"
		}
	}
	switch kind {
	case "local":
		return proc.Local{}, kind, nil
	case "docker":
		ex, err := docker.NewExecutor(cfg)
		if err != nil {
			return nil, "", err
		}
		return ex, kind, nil
	default:
		return nil, "", fmt.Errorf("unknown executor %q (want local or docker)", kind)
	}
}

// benchmarkInvocation builds the fixed benchmark command line for t.
func benchmarkInvocation(cfg *config.Config, t *config.Target) (*proc.Invocation, error) {
	path, err := filepath.Abs(cfg.ExecutablePath(t))
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}
	inv := &proc.Invocation{
		Path:    path,
		Args:    cfg.Benchmark.Args(),
		Timeout: cfg.Benchmark.Timeout,
	}
	if cfg.Benchmark.EnvFile != "" {
		env, err := proc.LoadEnvFile(cfg.Benchmark.EnvFile)
		if err != nil {
			return nil, err
		}
		inv.Env = env
	}
	return inv, nil
}
