package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRunMeta starts the metadata for a stat run with a fresh id.
func NewRunMeta(labels []string) *RunMeta {
	host, _ := os.Hostname()
	return &RunMeta{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Hostname:  host,
		Labels:    labels,
	}
}

// CreateRunDir makes a fresh directory for one stat run, named by time and
// the first characters of runID, and points baseDir/latest at it. An
// existing directory of the same name is an error, never reused.
func CreateRunDir(baseDir, runID string) (string, error) {
	runsDir, err := filepath.Abs(filepath.Join(baseDir, "runs"))
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	name := time.Now().UTC().Format("2006-01-02T15-04-05")
	if short := shortID(runID); short != "" {
		name += "-" + short
	}
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating runs dir: %w", err)
	}
	runDir := filepath.Join(runsDir, name)
	if err := os.Mkdir(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func GroupDir(runDir, label string) string {
	return filepath.Join(runDir, "groups", label)
}

// WriteGroup stores group.json plus one run-<n>.log per invocation holding
// that run's raw output.
func WriteGroup(runDir string, g *RunGroup) error {
	dir := GroupDir(runDir, g.Label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating group dir: %w", err)
	}
	for _, r := range g.Results {
		logPath := filepath.Join(dir, fmt.Sprintf("run-%d.log", r.Iteration))
		content := strings.Join(r.Output, "\n")
		if len(r.Output) > 0 {
			content += "\n"
		}
		if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", logPath, err)
		}
	}
	return writeJSON(filepath.Join(dir, "group.json"), g)
}

func ReadGroup(runDir, label string) (*RunGroup, error) {
	var g RunGroup
	if err := readJSON(filepath.Join(GroupDir(runDir, label), "group.json"), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func WriteRunMeta(runDir string, meta *RunMeta) error {
	return writeJSON(filepath.Join(runDir, "run.json"), meta)
}

func ReadRunMeta(runDir string) (*RunMeta, error) {
	var meta RunMeta
	if err := readJSON(filepath.Join(runDir, "run.json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// AppendHistory appends entry to a JSONL file, keeping at most maxLines
// entries.
func AppendHistory(path string, entry *HistoryEntry, maxLines int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}

	newLine, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling history entry: %w", err)
	}
	lines = append(lines, string(newLine))

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}

// ReadHistory returns all parseable entries, oldest first.
func ReadHistory(path string) ([]HistoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var entries []HistoryEntry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e HistoryEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
