// Command emissionsctl ingests the emission datasets and prints summaries,
// yearly series and calculator results from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"emissions-platform/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:           "emissionsctl",
		Short:         "Coal-mine emissions summaries and calculator",
		Long:          `emissionsctl loads the entity and yearly emission datasets, reports totals and yearly series, and evaluates the emission calculator.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: $EMISSIONS_CONFIG or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.storage, "storage", "", "Override storage backend: postgres or memory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newIngestCmd(opts),
		newSummaryCmd(opts),
		newYearlyCmd(opts),
		newCalculateCmd(),
	)

	return rootCmd
}
