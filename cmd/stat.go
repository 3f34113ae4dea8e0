package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/signalnine/trackbench/internal/baseline"
	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/gitops"
	"github.com/signalnine/trackbench/internal/metric"
	"github.com/signalnine/trackbench/internal/report"
	"github.com/signalnine/trackbench/internal/result"
	"github.com/signalnine/trackbench/internal/runner"
	"github.com/signalnine/trackbench/internal/sink"
	"github.com/signalnine/trackbench/internal/stats"
	"github.com/spf13/cobra"
)

var (
	flagRuns           int
	flagDelay          time.Duration
	flagTimeout        time.Duration
	flagAbortOnFailure bool
	flagNoHistory      bool
	flagFailAbove      float64
)

func newStatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Run the benchmark repeatedly and summarize ms/event per build",
		RunE:  runStat,
	}
	cmd.Flags().StringArrayVar(&flagLabels, "label", nil, "build label to run (repeatable, order kept, default all)")
	cmd.Flags().IntVar(&flagRuns, "runs", 0, "override stat.runs")
	cmd.Flags().DurationVar(&flagDelay, "delay", 0, "override stat.delay between runs")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "override benchmark.timeout per run")
	cmd.Flags().BoolVar(&flagAbortOnFailure, "abort-on-failure", false, "stop a group at its first failed run")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "summary format (table, markdown, json)")
	cmd.Flags().StringVar(&flagExecutor, "executor", "", "local or docker (default: docker when container.image is set)")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not append to the history file")
	cmd.Flags().Float64Var(&flagFailAbove, "fail-above", 0, "exit non-zero when a mean exceeds its baseline by more than this percentage")
	return cmd
}

func runStat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := applyStatOverrides(cmd, cfg); err != nil {
		return err
	}
	targets, err := filterTargets(cfg.Builds, flagLabels)
	if err != nil {
		return err
	}
	extractor, err := metric.New(cfg.Metric)
	if err != nil {
		return err
	}
	ex, exName, err := newExecutor(cfg, flagExecutor)
	if err != nil {
		return err
	}
	var base *baseline.Table
	if cfg.Baseline.File != "" {
		if base, err = baseline.Load(cfg.Baseline.File); err != nil {
			return err
		}
	}
	enforce := cmd.Flags().Changed("fail-above")
	if enforce && base == nil {
		return fmt.Errorf("--fail-above needs baseline.file")
	}

	out := cmd.OutOrStdout()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	labels := make([]string, 0, len(targets))
	for _, t := range targets {
		labels = append(labels, t.Label)
	}
	meta := result.NewRunMeta(labels)
	meta.Executor = exName
	meta.Runs = cfg.Stat.Runs
	meta.DelayS = cfg.Stat.Delay.Seconds()
	if info, err := gitops.Describe(cfg.SourceDir); err != nil {
		log.Printf("warning: source revision unknown: %v", err)
	} else {
		meta.SourceRev = info.Rev
		meta.SourceDirty = info.Dirty
	}

	runDir, err := result.CreateRunDir(cfg.Results.Dir, meta.ID)
	if err != nil {
		return err
	}
	if err := result.WriteRunMeta(runDir, meta); err != nil {
		return err
	}
	fmt.Fprintf(out, "Run directory: %s\n", runDir)
	fmt.Fprintf(out, "Run ID: %s\n", meta.ID)

	policy := runner.Continue
	if flagAbortOnFailure {
		policy = runner.Abort
	}

	var (
		groups []*result.RunGroup
		runErr error
	)
	for i := range targets {
		t := &targets[i]
		inv, err := benchmarkInvocation(cfg, t)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n== %s: %d runs, %s apart\n", t.Label, cfg.Stat.Runs, cfg.Stat.Delay)
		group, err := runner.RunN(ctx, &runner.Opts{
			Label:      t.Label,
			Executor:   ex,
			Invocation: inv,
			Runs:       cfg.Stat.Runs,
			Delay:      cfg.Stat.Delay,
			Extractor:  extractor,
			Policy:     policy,
			OnResult:   printResult(out, t.Label),
		})
		if group != nil {
			if werr := result.WriteGroup(runDir, group); werr != nil {
				log.Printf("warning: storing %s: %v", t.Label, werr)
			}
			groups = append(groups, group)
		}
		if err != nil {
			runErr = err
			break
		}
	}
	if runErr != nil && len(groups) == 0 {
		return runErr
	}

	summaries := stats.SummarizeAll(groups)
	fmt.Fprintln(out, "\n--- Summary ---")
	if err := report.WriteSummaries(summaries, flagFormat, out, base); err != nil {
		return err
	}

	if !flagNoHistory {
		entry := &result.HistoryEntry{
			RunID:     meta.ID,
			Timestamp: meta.StartedAt,
			RunDir:    runDir,
			SourceRev: meta.SourceRev,
		}
		for _, s := range summaries {
			entry.Groups = append(entry.Groups, s.Record())
		}
		if err := result.AppendHistory(cfg.Results.History, entry, cfg.Results.MaxHistory); err != nil {
			log.Printf("warning: %v", err)
		}
	}
	exportSinks(ctx, cfg, meta.ID, groups, summaries)

	if runErr != nil {
		return runErr
	}
	return checkBaseline(out, base, summaries, cfg.Baseline.ThresholdPct, enforce)
}

func applyStatOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("runs") {
		if flagRuns < 1 {
			return fmt.Errorf("--runs must be at least 1, got %d", flagRuns)
		}
		cfg.Stat.Runs = flagRuns
	}
	if flags.Changed("delay") {
		if flagDelay < 0 {
			return fmt.Errorf("--delay must not be negative")
		}
		cfg.Stat.Delay = flagDelay
	}
	if flags.Changed("timeout") {
		cfg.Benchmark.Timeout = flagTimeout
	}
	if flags.Changed("fail-above") {
		if flagFailAbove < 0 {
			return fmt.Errorf("--fail-above must not be negative")
		}
		cfg.Baseline.ThresholdPct = flagFailAbove
	}
	return nil
}

func printResult(out io.Writer, label string) func(*result.RunResult, int) {
	return func(r *result.RunResult, runs int) {
		if v, ok := r.Metric(); ok {
			fmt.Fprintf(out, "  run %d/%d: %.3f ms/event\n", r.Iteration, runs, v)
			return
		}
		if r.ExitReason != "completed" {
			log.Printf("warning: %s run %d/%d: %s (%s)", label, r.Iteration, runs, r.ExitReason, r.Error)
			return
		}
		log.Printf("warning: %s run %d/%d: no metric found in output", label, r.Iteration, runs)
	}
}

func exportSinks(ctx context.Context, cfg *config.Config, runID string, groups []*result.RunGroup, summaries []stats.Summary) {
	if path := cfg.Sinks.PrometheusTextfile; path != "" {
		if err := sink.WritePrometheusTextfile(path, runID, summaries); err != nil {
			log.Printf("warning: prometheus: %v", err)
		}
	}
	if cfg.Sinks.InfluxDB.URL != "" {
		in := sink.NewInflux(cfg.Sinks.InfluxDB)
		defer in.Close()
		if err := in.WriteGroups(ctx, runID, groups, summaries); err != nil {
			log.Printf("warning: influxdb: %v", err)
		}
	}
}

// checkBaseline reports regressions. They only fail the command when
// enforce is set.
func checkBaseline(out io.Writer, base *baseline.Table, summaries []stats.Summary, thresholdPct float64, enforce bool) error {
	if base == nil {
		return nil
	}
	regressions := base.Regressions(summaries, thresholdPct)
	for _, r := range regressions {
		log.Printf("warning: regression: %s", r)
	}
	if enforce && len(regressions) > 0 {
		return fmt.Errorf("%d group(s) slower than baseline by more than %.1f%%", len(regressions), thresholdPct)
	}
	if len(regressions) == 0 {
		fmt.Fprintf(out, "No regressions above %.1f%% against baseline.\n", thresholdPct)
	}
	return nil
}
