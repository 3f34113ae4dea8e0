package result

import "time"

// RunResult is the outcome of one benchmark invocation. Value is nil when
// no metric could be extracted from the output.
type RunResult struct {
	Iteration  int      `json:"iteration"`
	Value      *float64 `json:"value"`
	ExitCode   int      `json:"exit_code"`
	ExitReason string   `json:"exit_reason"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
	Output     []string `json:"-"`
}

// Metric returns the extracted value, if any.
func (r *RunResult) Metric() (float64, bool) {
	if r.Value == nil {
		return 0, false
	}
	return *r.Value, true
}

// RunGroup holds the results of repeatedly invoking one executable with one
// argument set, in invocation order.
type RunGroup struct {
	Label      string      `json:"label"`
	Executable string      `json:"executable"`
	Args       []string    `json:"args"`
	Results    []RunResult `json:"results"`
}

// Append records the next invocation's result.
func (g *RunGroup) Append(r RunResult) {
	g.Results = append(g.Results, r)
}

// Invocations is the number of times the executable was run.
func (g *RunGroup) Invocations() int {
	return len(g.Results)
}

// Values returns the extracted metric values in invocation order. Results
// without a value are skipped, never zero-filled.
func (g *RunGroup) Values() []float64 {
	var values []float64
	for i := range g.Results {
		if v, ok := g.Results[i].Metric(); ok {
			values = append(values, v)
		}
	}
	return values
}

// RunMeta describes one stat run. Labels keeps the order groups were run in.
type RunMeta struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Hostname    string    `json:"hostname"`
	SourceRev   string    `json:"source_rev,omitempty"`
	SourceDirty bool      `json:"source_dirty,omitempty"`
	Executor    string    `json:"executor"`
	Runs        int       `json:"runs"`
	DelayS      float64   `json:"delay_s"`
	Labels      []string  `json:"labels"`
}

// HistoryEntry is one line of the JSONL history file.
type HistoryEntry struct {
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"ts"`
	RunDir    string         `json:"run_dir"`
	SourceRev string         `json:"source_rev,omitempty"`
	Groups    []GroupSummary `json:"groups"`
}

// GroupSummary is the per-label record stored in history. Mean, Variance
// and StdDev are nil when the group produced no values.
type GroupSummary struct {
	Label    string   `json:"label"`
	Runs     int      `json:"runs"`
	Count    int      `json:"count"`
	Mean     *float64 `json:"mean"`
	Variance *float64 `json:"variance"`
	StdDev   *float64 `json:"stddev"`
}
