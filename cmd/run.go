package cmd

import (
	"fmt"
	"log"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/metric"
	"github.com/signalnine/trackbench/internal/runner"
	"github.com/spf13/cobra"
)

var flagLabel string

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark once and print the extracted value",
		RunE:  runOnce,
	}
	cmd.Flags().StringVar(&flagLabel, "label", "", "build label (required with several builds)")
	cmd.Flags().StringVar(&flagExecutor, "executor", "", "local or docker (default: docker when container.image is set)")
	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	target, err := singleTarget(cfg, flagLabel)
	if err != nil {
		return err
	}
	extractor, err := metric.New(cfg.Metric)
	if err != nil {
		return err
	}
	ex, _, err := newExecutor(cfg, flagExecutor)
	if err != nil {
		return err
	}
	inv, err := benchmarkInvocation(cfg, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	group, err := runner.RunN(cmd.Context(), &runner.Opts{
		Label:      target.Label,
		Executor:   ex,
		Invocation: inv,
		Runs:       1,
		Extractor:  extractor,
		Policy:     runner.Abort,
	})
	if group != nil && len(group.Results) > 0 {
		for _, line := range group.Results[0].Output {
			fmt.Fprintln(out, line)
		}
	}
	if err != nil {
		return err
	}

	r := &group.Results[0]
	if v, ok := r.Metric(); ok {
		fmt.Fprintf(out, "%s: %.3f ms/event\n", target.Label, v)
		return nil
	}
	log.Printf("warning: %s: no metric found in output", target.Label)
	return nil
}
