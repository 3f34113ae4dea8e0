package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/signalnine/trackbench/internal/baseline"
	"github.com/signalnine/trackbench/internal/config"
	"github.com/signalnine/trackbench/internal/report"
	"github.com/spf13/cobra"
)

var flagFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-dir]",
		Short: "Summarize a stored stat run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			runDir := filepath.Join(cfg.Results.Dir, "latest")
			if len(args) > 0 {
				runDir = args[0]
			}
			resolved, err := filepath.EvalSymlinks(runDir)
			if err != nil {
				return fmt.Errorf("resolving run dir: %w", err)
			}
			var base *baseline.Table
			if cfg.Baseline.File != "" {
				if base, err = baseline.Load(cfg.Baseline.File); err != nil {
					return err
				}
			}
			return report.Generate(resolved, flagFormat, cmd.OutOrStdout(), base)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}
