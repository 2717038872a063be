package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newIngestCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch the configured datasets and replace the stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Ingest(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATASET\tRECORDS\tFAILED\tSTATUS")
			for _, d := range result.Datasets {
				status := "ok"
				switch {
				case d.Skipped:
					status = "skipped"
				case d.Error != "":
					status = "error: " + d.Error
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", d.Dataset, d.SuccessfulRecords, d.FailedRecords, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "completed in %s\n", result.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
