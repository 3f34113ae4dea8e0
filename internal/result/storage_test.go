package result_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/trackbench/internal/result"
)

func ptr(v float64) *float64 { return &v }

func TestWriteAndReadGroup(t *testing.T) {
	runDir := t.TempDir()
	g := &result.RunGroup{
		Label:      "cuda-main",
		Executable: "build/bin/bench",
		Args:       []string{"--input-events=10"},
		Results: []result.RunResult{
			{Iteration: 1, Value: ptr(3.5), ExitReason: "completed", Output: []string{"Event processing time: 3.5 ms/event,"}},
			{Iteration: 2, ExitReason: "completed", Output: []string{"garbage"}},
		},
	}
	if err := result.WriteGroup(runDir, g); err != nil {
		t.Fatalf("WriteGroup: %v", err)
	}
	got, err := result.ReadGroup(runDir, "cuda-main")
	if err != nil {
		t.Fatalf("ReadGroup: %v", err)
	}
	if got.Invocations() != 2 {
		t.Errorf("invocations: got %d, want 2", got.Invocations())
	}
	values := got.Values()
	if len(values) != 1 || values[0] != 3.5 {
		t.Errorf("values: got %v, want [3.5]", values)
	}
	if got.Results[1].Value != nil {
		t.Errorf("expected nil value for second run, got %v", *got.Results[1].Value)
	}
	logData, err := os.ReadFile(filepath.Join(result.GroupDir(runDir, "cuda-main"), "run-2.log"))
	if err != nil {
		t.Fatalf("reading run log: %v", err)
	}
	if string(logData) != "garbage\n" {
		t.Errorf("run log: got %q", logData)
	}
}

func TestRunMetaRoundTrip(t *testing.T) {
	runDir := t.TempDir()
	meta := &result.RunMeta{
		ID:        "abc",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Runs:      5,
		DelayS:    5,
		Labels:    []string{"b", "a"},
	}
	if err := result.WriteRunMeta(runDir, meta); err != nil {
		t.Fatalf("WriteRunMeta: %v", err)
	}
	got, err := result.ReadRunMeta(runDir)
	if err != nil {
		t.Fatalf("ReadRunMeta: %v", err)
	}
	if strings.Join(got.Labels, ",") != "b,a" {
		t.Errorf("labels order: got %v", got.Labels)
	}
	if !got.StartedAt.Equal(meta.StartedAt) {
		t.Errorf("started_at: got %v, want %v", got.StartedAt, meta.StartedAt)
	}
}

func TestReadRunMetaMissing(t *testing.T) {
	if _, err := result.ReadRunMeta(t.TempDir()); err == nil {
		t.Error("expected error for missing run.json")
	}
}

func TestCreateRunDir(t *testing.T) {
	base := t.TempDir()
	runDir, err := result.CreateRunDir(base, "3f2c9a1e-7b4d-4c55-9e0a-1d2b3c4d5e6f")
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}
	if !strings.HasSuffix(runDir, "-3f2c9a1e") {
		t.Errorf("run dir %q does not carry the short run id", runDir)
	}
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		t.Errorf("run directory not created: %s", runDir)
	}
	latest := filepath.Join(base, "latest")
	target, err := os.Readlink(latest)
	if err != nil {
		t.Fatalf("reading latest symlink: %v", err)
	}
	if target != runDir {
		t.Errorf("latest symlink: got %q, want %q", target, runDir)
	}
}

func TestCreateRunDirSameSecond(t *testing.T) {
	base := t.TempDir()
	first, err := result.CreateRunDir(base, "aaaaaaaa-0000-4000-8000-000000000001")
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}
	second, err := result.CreateRunDir(base, "bbbbbbbb-0000-4000-8000-000000000002")
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}
	if first == second {
		t.Fatalf("two runs share %s", first)
	}

	// Reusing an id within the same second must not reuse the directory.
	again, err := result.CreateRunDir(base, "aaaaaaaa-0000-4000-8000-000000000001")
	if err == nil && again == first {
		t.Errorf("run dir %s was reused", first)
	}
}

func TestGroupDir(t *testing.T) {
	base := t.TempDir()
	dir := result.GroupDir(base, "cuda-main")
	expected := filepath.Join(base, "groups", "cuda-main")
	if dir != expected {
		t.Errorf("got %q, want %q", dir, expected)
	}
}

func TestAppendHistoryTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	for i := 1; i <= 5; i++ {
		entry := &result.HistoryEntry{
			RunID:  fmt.Sprintf("run-%d", i),
			Groups: []result.GroupSummary{{Label: "a", Runs: 1, Count: 1, Mean: ptr(float64(i))}},
		}
		if err := result.AppendHistory(path, entry, 3); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	entries, err := result.ReadHistory(path)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-3" || entries[2].RunID != "run-5" {
		t.Errorf("unexpected entries: %s .. %s", entries[0].RunID, entries[2].RunID)
	}
	if *entries[2].Groups[0].Mean != 5 {
		t.Errorf("mean: got %v, want 5", *entries[2].Groups[0].Mean)
	}
}

func TestRunGroupValuesSkipsMissing(t *testing.T) {
	g := &result.RunGroup{Label: "x"}
	g.Append(result.RunResult{Iteration: 1})
	g.Append(result.RunResult{Iteration: 2, Value: ptr(1.5)})
	g.Append(result.RunResult{Iteration: 3})
	if g.Invocations() != 3 {
		t.Errorf("invocations: got %d, want 3", g.Invocations())
	}
	if v := g.Values(); len(v) != 1 || v[0] != 1.5 {
		t.Errorf("values: got %v, want [1.5]", v)
	}
}

func TestNewRunMeta(t *testing.T) {
	a := result.NewRunMeta([]string{"x"})
	b := result.NewRunMeta([]string{"x"})
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.StartedAt.IsZero() {
		t.Error("expected start time to be set")
	}
}
