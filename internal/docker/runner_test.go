package docker_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/docker"
	"github.com/signalnine/trackbench/internal/proc"
)

func requireDocker(t *testing.T) {
	t.Helper()
	if os.Getenv("TRACKBENCH_DOCKER_TESTS") == "" {
		t.Skip("set TRACKBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
}

func TestRunContainer(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	workDir := t.TempDir()
	result, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "echo 'Event processing time: 3.5 ms/event,' && echo hello > out.txt"},
		WorkDir: workDir,
		Mounts:  []docker.Mount{{Source: workDir, Target: workDir}},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code: got %d, want 0", result.ExitCode)
	}
	if !strings.Contains(string(result.Output), "3.5 ms/event,") {
		t.Errorf("output: got %q", result.Output)
	}
	content, err := os.ReadFile(filepath.Join(workDir, "out.txt"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(content) != "hello\n" {
		t.Errorf("file: got %q, want %q", content, "hello\n")
	}
}

func TestRunContainerTimeout(t *testing.T) {
	requireDocker(t)
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sleep", "300"},
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout")
	}
	if result.ExitCode != proc.TimeoutExitCode {
		t.Errorf("exit code: got %d, want %d", result.ExitCode, proc.TimeoutExitCode)
	}
}

func TestRunContainerCrash(t *testing.T) {
	requireDocker(t)
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "exit 3"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code: got %d, want 3", result.ExitCode)
	}
}

func TestHostMounts(t *testing.T) {
	mounts, err := docker.HostMounts([]string{"/data/build-cuda", "/data", "", "/opt/input", "/data"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/data", "/opt/input"}
	if len(mounts) != len(want) {
		t.Fatalf("mounts: got %+v, want %v", mounts, want)
	}
	for i, m := range mounts {
		if m.Source != want[i] || m.Target != want[i] {
			t.Errorf("mount %d: got %+v, want identity mount of %s", i, m, want[i])
		}
	}
}

func TestHostMountsSiblingPrefix(t *testing.T) {
	mounts, err := docker.HostMounts([]string{"/data", "/data2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mounts) != 2 {
		t.Errorf("expected /data2 to get its own mount, got %+v", mounts)
	}
}

func TestNewExecutorRequiresImage(t *testing.T) {
	if _, err := docker.NewExecutor(&config.Config{}); err == nil {
		t.Error("expected error without container.image")
	}
}

func TestExecutorLookup(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "traccc_seq_example_cuda")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(data, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	e := &docker.Executor{Image: "alpine:latest"}
	if err := e.Lookup(exe); err != nil {
		t.Errorf("Lookup(%s): %v", exe, err)
	}
	for _, p := range []string{data, dir, filepath.Join(dir, "missing")} {
		if err := e.Lookup(p); err == nil {
			t.Errorf("Lookup(%s): expected error", p)
		}
	}
}

func TestExecutorRunsInContainer(t *testing.T) {
	requireDocker(t)
	dir := t.TempDir()
	exe := filepath.Join(dir, "bench.sh")
	body := "#!/bin/sh\necho \"Event processing time: 1.25 ms/event, $1\"\n"
	if err := os.WriteFile(exe, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	e := &docker.Executor{Image: "alpine:latest", Mounts: []docker.Mount{{Source: dir, Target: dir}}}
	out, err := e.Exec(context.Background(), &proc.Invocation{Path: exe, Args: []string{"ok"}, Dir: dir, Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.ExitCode != 0 || !strings.Contains(string(out.Output), "1.25 ms/event, ok") {
		t.Errorf("unexpected outcome: exit=%d output=%q", out.ExitCode, out.Output)
	}
}
