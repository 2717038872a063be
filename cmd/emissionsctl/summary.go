package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"emissions-platform/internal/engine"
)

const animationInterval = 50 * time.Millisecond

func newSummaryCmd(opts *globalOpts) *cobra.Command {
	var (
		animate bool
		refresh bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print emission totals in millions of tons",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := loadData(ctx, a, refresh, cmd.ErrOrStderr()); err != nil {
				return err
			}

			summary := a.Summary.Summary(ctx)
			out := cmd.OutOrStdout()

			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					engine.Summary
					Millions engine.Headline `json:"millions"`
				}{summary, summary.Millions()})
			case "text":
			default:
				return fmt.Errorf("unknown output format %q", output)
			}

			// the count-up starts once the output is visible on a terminal
			if animate && isTerminal(out) {
				animateHeadline(ctx, out, summary.Millions(), engine.DefaultCountUpDuration, animationInterval)
			} else {
				fmt.Fprintln(out, headlineLine(summary.Millions()))
			}
			fmt.Fprintf(out, "%d entities\n", len(summary.Breakdown))
			return nil
		},
	}

	cmd.Flags().BoolVar(&animate, "animate", false, "Count the totals up from zero when printing to a terminal")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ingest the datasets before summarizing")
	cmd.Flags().StringVar(&output, "output", "text", "Output format: text or json")

	return cmd
}

func headlineLine(h engine.Headline) string {
	return headlineValues([]float64{h.Carbon, h.Methane, h.Fuel, h.Electricity})
}

func headlineValues(v []float64) string {
	return fmt.Sprintf("carbon %.2fM  methane %.2fM  fuel %.2fM  electricity %.2fM", v[0], v[1], v[2], v[3])
}

// animateHeadline redraws the headline in place until the count-up settles
// or ctx is cancelled, in which case the values freeze where they are.
func animateHeadline(ctx context.Context, w io.Writer, h engine.Headline, duration, interval time.Duration) {
	countUp := engine.NewCountUp(duration, h.Carbon, h.Methane, h.Fuel, h.Electricity)
	countUp.Observe(true, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fmt.Fprintf(w, "\r%s", headlineValues(countUp.Sample(time.Now())))
		if countUp.Done() {
			break
		}
		select {
		case <-ctx.Done():
			countUp.Teardown()
		case <-ticker.C:
		}
	}
	fmt.Fprintln(w)
}
