package cmd

import (
	"fmt"

	"github.com/signalnine/trackbench/internal/build"
	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/proc"
	"github.com/signalnine/trackbench/internal/runner"
	"github.com/spf13/cobra"
)

var (
	flagLabels   []string
	flagClean    bool
	flagParallel int
	flagJobs     int
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Configure and build every build directory",
		RunE:  runBuild,
	}
	cmd.Flags().StringArrayVar(&flagLabels, "label", nil, "build label to build (repeatable, default all)")
	cmd.Flags().BoolVar(&flagClean, "clean", false, "remove the build dir before configuring")
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "build directories concurrently")
	cmd.Flags().IntVar(&flagJobs, "jobs", 0, "override build.jobs")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagJobs > 0 {
		cfg.Build.Jobs = flagJobs
	}
	targets, err := filterTargets(cfg.Builds, flagLabels)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	b := build.New(cfg, proc.Local{})

	// Jobs may run concurrently, so all output is written from this goroutine.
	var jobs []runner.Job
	for _, t := range targets {
		t := t
		fmt.Fprintf(out, "Building %s in %s...\n", t.Label, t.Dir)
		jobs = append(jobs, runner.Job{
			Name: t.Label,
			Run: func() error {
				return b.All(ctx, &t, flagClean)
			},
		})
	}

	errs := runner.RunPool(flagParallel, jobs)
	for _, err := range errs {
		fmt.Fprintf(out, "  ERROR: %v\n", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d builds failed", len(errs), len(jobs))
	}
	fmt.Fprintf(out, "Built %d of %d build dirs.\n", len(jobs), len(jobs))
	return nil
}
