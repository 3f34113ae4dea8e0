package cmd

import (
	"fmt"
	"log"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/proc"
	"github.com/signalnine/trackbench/internal/testsuite"
	"github.com/spf13/cobra"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the test executable and print its summary",
		RunE:  runTests,
	}
	cmd.Flags().StringVar(&flagLabel, "label", "", "build label (required with several builds)")
	return cmd
}

func runTests(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Tests.Executable == "" {
		return fmt.Errorf("tests.executable is not configured")
	}
	target, err := singleTarget(cfg, flagLabel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	inv := &proc.Invocation{Path: cfg.TestExecutablePath(target), Args: cfg.Tests.Args}
	res, err := testsuite.Run(cmd.Context(), proc.Local{}, inv, cfg.Tests.Delimiter)
	if err != nil {
		return err
	}
	if res.Summary == nil {
		log.Printf("warning: no %q summary found, printing full output", cfg.Tests.Delimiter)
		for _, line := range res.Output {
			fmt.Fprintln(out, line)
		}
	}
	for _, line := range res.Summary {
		fmt.Fprintln(out, line)
	}
	if !res.OK() {
		return fmt.Errorf("%s: %d failed, exit status %d", target.Label, res.Failed, res.ExitCode)
	}
	return nil
}
