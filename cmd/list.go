package cmd

import (
	"fmt"
	"strings"

	"github.com/signalnine/trackbench/internal/config"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List build labels and the benchmark command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Builds:")
			for i := range cfg.Builds {
				b := &cfg.Builds[i]
				fmt.Fprintf(out, "  - %s (dir: %s)\n", b.Label, b.Dir)
				fmt.Fprintf(out, "      %s\n", cfg.ExecutablePath(b))
			}
			fmt.Fprintln(out, "\nBenchmark arguments:")
			for _, a := range cfg.Benchmark.Args() {
				fmt.Fprintf(out, "  %s\n", a)
			}
			fmt.Fprintf(out, "\nStat: %d runs, %s apart\n", cfg.Stat.Runs, cfg.Stat.Delay)
			if cfg.Container.Image != "" {
				fmt.Fprintf(out, "Container: %s (gpus: %t)\n", cfg.Container.Image, cfg.Container.GPUs)
			}
			if len(cfg.Build.Flags) > 0 {
				fmt.Fprintf(out, "Build flags: %s\n", strings.Join(cfg.Build.Flags, " "))
			}
			return nil
		},
	}
}
