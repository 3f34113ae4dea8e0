package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/proc"
	"github.com/signalnine/trackbench/internal/profile"
	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Run the benchmark once under the profiler",
		RunE:  runProfile,
	}
	cmd.Flags().StringVar(&flagLabel, "label", "", "build label (required with several builds)")
	return cmd
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	target, err := singleTarget(cfg, flagLabel)
	if err != nil {
		return err
	}
	inv, err := benchmarkInvocation(cfg, target)
	if err != nil {
		return err
	}
	ex := proc.Local{}
	if err := ex.Lookup(inv.Path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	base := profile.Base(cfg.Profiler.OutputDir, target.Label, uuid.NewString()[:8])
	fmt.Fprintf(out, "Profiling %s with %s...\n", target.Label, cfg.Profiler.Tool)
	rep, err := profile.Run(cmd.Context(), ex, &cfg.Profiler, base, inv)
	if err != nil {
		if rep != nil {
			out.Write(rep.Outcome.Output)
		}
		return err
	}
	for _, p := range rep.Artifacts {
		fmt.Fprintf(out, "  report: %s\n", p)
	}
	for _, p := range rep.Missing {
		log.Printf("warning: expected report %s was not written", p)
	}
	return nil
}
