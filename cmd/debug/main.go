package main

import (
	"os"

	"github.com/spf13/cobra"
)

var flagConfig string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "light-meter-debug",
		Short: "Inspect and repair a light meter's stored state",
		Long: `light-meter-debug reads the same config file as the meter and works on its
settings storage and reading log directly. Stop the meter service before
writing settings, the running meter keeps its own copy in memory.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config-file", "config.json", "Path to light meter config file")

	rootCmd.AddCommand(
		newShowCmd(),
		newResetCmd(),
		newComputeCmd(),
		newReadingsCmd(),
		newInstallServiceCmd(),
	)
	return rootCmd
}
