package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SourceDir string    `yaml:"source_dir"`
	Build     Build     `yaml:"build"`
	Builds    []Target  `yaml:"builds"`
	Benchmark Benchmark `yaml:"benchmark"`
	Metric    Metric    `yaml:"metric"`
	Stat      Stat      `yaml:"stat"`
	Profiler  Profiler  `yaml:"profiler"`
	Tests     Tests     `yaml:"tests"`
	Container Container `yaml:"container"`
	Results   Results   `yaml:"results"`
	Baseline  Baseline  `yaml:"baseline"`
	Sinks     Sinks     `yaml:"sinks"`
}

// Build holds the settings shared by every build directory.
type Build struct {
	Tool      string   `yaml:"tool"`
	Generator string   `yaml:"generator"`
	BuildType string   `yaml:"build_type"`
	Jobs      int      `yaml:"jobs"`
	Flags     []string `yaml:"flags"`
}

// Target is one build directory, identified by its label.
type Target struct {
	Label string   `yaml:"label"`
	Dir   string   `yaml:"dir"`
	Flags []string `yaml:"flags"`
}

type Benchmark struct {
	Executable       string        `yaml:"executable"`
	DetectorFile     string        `yaml:"detector_file"`
	MaterialFile     string        `yaml:"material_file"`
	GridFile         string        `yaml:"grid_file"`
	DigitizationFile string        `yaml:"digitization_file"`
	InputDirectory   string        `yaml:"input_directory"`
	InputEvents      int           `yaml:"input_events"`
	ProcessedEvents  int           `yaml:"processed_events"`
	Threads          int           `yaml:"threads"`
	ExtraArgs        []string      `yaml:"extra_args"`
	EnvFile          string        `yaml:"env_file"`
	Timeout          time.Duration `yaml:"timeout"`
}

type Metric struct {
	Marker  string `yaml:"marker"`
	Unit    string `yaml:"unit"`
	Pattern string `yaml:"pattern"`
}

type Stat struct {
	Runs  int           `yaml:"runs"`
	Delay time.Duration `yaml:"delay"`
}

type Profiler struct {
	Tool       string   `yaml:"tool"`
	Args       []string `yaml:"args"`
	OutputFlag string   `yaml:"output_flag"`
	OutputDir  string   `yaml:"output_dir"`
	Extensions []string `yaml:"extensions"`
}

type Tests struct {
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args"`
	Delimiter  string   `yaml:"delimiter"`
}

// Container enables running the benchmark inside a docker image.
type Container struct {
	Image string `yaml:"image"`
	GPUs  bool   `yaml:"gpus"`
}

type Results struct {
	Dir        string `yaml:"dir"`
	History    string `yaml:"history"`
	MaxHistory int    `yaml:"max_history"`
}

type Baseline struct {
	File         string  `yaml:"file"`
	ThresholdPct float64 `yaml:"threshold_pct"`
}

type Sinks struct {
	PrometheusTextfile string   `yaml:"prometheus_textfile"`
	InfluxDB           InfluxDB `yaml:"influxdb"`
}

type InfluxDB struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

const (
	DefaultRuns      = 5
	DefaultDelay     = 5 * time.Second
	DefaultDelimiter = "[==========]"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	// Keys absent from the file keep these values, so an explicit zero
	// delay is honoured.
	cfg := Config{Stat: Stat{Delay: DefaultDelay}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SourceDir == "" {
		cfg.SourceDir = "."
	}
	if cfg.Build.Tool == "" {
		cfg.Build.Tool = "cmake"
	}
	if cfg.Build.BuildType == "" {
		cfg.Build.BuildType = "Release"
	}
	if cfg.Build.Jobs < 0 {
		return fmt.Errorf("build.jobs must not be negative")
	}

	if len(cfg.Builds) == 0 {
		return fmt.Errorf("no builds defined")
	}
	seen := make(map[string]bool)
	for i := range cfg.Builds {
		b := &cfg.Builds[i]
		if b.Dir == "" {
			return fmt.Errorf("build %d: dir is required", i)
		}
		if b.Label == "" {
			b.Label = filepath.Base(filepath.Clean(b.Dir))
		}
		if seen[b.Label] {
			return fmt.Errorf("build %q: duplicate label", b.Label)
		}
		seen[b.Label] = true
	}

	bm := &cfg.Benchmark
	if bm.Executable == "" {
		return fmt.Errorf("benchmark.executable is required")
	}
	if bm.InputEvents < 0 || bm.ProcessedEvents < 0 {
		return fmt.Errorf("benchmark event counts must not be negative")
	}
	if bm.Threads < 0 {
		return fmt.Errorf("benchmark.threads must not be negative")
	}
	if bm.Timeout < 0 {
		return fmt.Errorf("benchmark.timeout must not be negative")
	}

	if cfg.Stat.Runs == 0 {
		cfg.Stat.Runs = DefaultRuns
	}
	if cfg.Stat.Runs < 0 {
		return fmt.Errorf("stat.runs must be at least 1")
	}
	if cfg.Stat.Delay < 0 {
		return fmt.Errorf("stat.delay must not be negative")
	}

	if cfg.Profiler.Tool == "" {
		cfg.Profiler.Tool = "nsys"
	}
	if cfg.Profiler.OutputFlag == "" {
		cfg.Profiler.OutputFlag = "-o"
	}
	if cfg.Profiler.OutputDir == "" {
		cfg.Profiler.OutputDir = "profiles"
	}

	if cfg.Tests.Delimiter == "" {
		cfg.Tests.Delimiter = DefaultDelimiter
	}

	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	if cfg.Results.History == "" {
		cfg.Results.History = filepath.Join(cfg.Results.Dir, "history.jsonl")
	}
	if cfg.Results.MaxHistory == 0 {
		cfg.Results.MaxHistory = 100
	}

	if cfg.Baseline.ThresholdPct < 0 {
		return fmt.Errorf("baseline.threshold_pct must not be negative")
	}

	in := cfg.Sinks.InfluxDB
	if in.URL != "" && (in.Org == "" || in.Bucket == "") {
		return fmt.Errorf("sinks.influxdb: org and bucket are required when url is set")
	}
	return nil
}

// Target returns the build with the given label.
func (c *Config) Target(label string) (*Target, bool) {
	for i := range c.Builds {
		if c.Builds[i].Label == label {
			return &c.Builds[i], true
		}
	}
	return nil, false
}

// ExecutablePath resolves the benchmark executable inside a build dir.
// Absolute executables are used as-is.
func (c *Config) ExecutablePath(t *Target) string {
	return resolveIn(t.Dir, c.Benchmark.Executable)
}

// TestExecutablePath resolves the test executable inside a build dir.
func (c *Config) TestExecutablePath(t *Target) string {
	return resolveIn(t.Dir, c.Tests.Executable)
}

func resolveIn(dir, exe string) string {
	if filepath.IsAbs(exe) {
		return exe
	}
	return filepath.Join(dir, exe)
}

// Args renders the fixed benchmark argument set. Empty or zero values are
// left out so the benchmark's own defaults apply.
func (b *Benchmark) Args() []string {
	var args []string
	str := func(flag, v string) {
		if v != "" {
			args = append(args, fmt.Sprintf("--%s=%s", flag, v))
		}
	}
	num := func(flag string, v int) {
		if v > 0 {
			args = append(args, fmt.Sprintf("--%s=%d", flag, v))
		}
	}
	str("detector-file", b.DetectorFile)
	str("material-file", b.MaterialFile)
	str("grid-file", b.GridFile)
	str("digitization-file", b.DigitizationFile)
	str("input-directory", b.InputDirectory)
	num("input-events", b.InputEvents)
	num("processed-events", b.ProcessedEvents)
	num("cpu-threads", b.Threads)
	return append(args, b.ExtraArgs...)
}
