package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "trackbench",
		Short:        "Build, run and measure a track reconstruction benchmark",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Warnings belong on stdout next to the per-run values.
			log.SetFlags(0)
			log.SetOutput(cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "trackbench.yaml", "config file path")
	root.AddCommand(newBuildCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newStatCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newTestCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListCmd())
	return root
}
