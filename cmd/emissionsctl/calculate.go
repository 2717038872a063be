package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"emissions-platform/internal/engine"
)

func newCalculateCmd() *cobra.Command {
	var output string
	values := map[engine.Input]*string{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Evaluate the emission calculator for the given inputs",
		Long: `Evaluates total emission, per-capita emission and carbon credits.
Inputs are read like form fields: the leading number is used and anything else is ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc := engine.NewCalculator()
			for _, in := range []engine.Input{
				engine.InputCoalProduction,
				engine.InputFuelConsumption,
				engine.InputElectricityConsumption,
				engine.InputEmployeeCount,
			} {
				if cmd.Flags().Changed(flagName(in)) {
					calc.Set(in, *values[in])
				}
			}

			outputs := calc.Outputs()
			out := cmd.OutOrStdout()

			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(outputs)
			case "text":
			default:
				return fmt.Errorf("unknown output format %q", output)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Total emission\t%s\n", cellText(outputs.TotalEmission, engine.BaseUnit))
			fmt.Fprintf(tw, "Per-capita emission\t%s\n", cellText(outputs.PerCapitaEmission, engine.BaseUnit))
			fmt.Fprintf(tw, "Carbon credits\t%s\n", cellText(outputs.CarbonCredits, ""))
			return tw.Flush()
		},
	}

	for in, usage := range map[engine.Input]string{
		engine.InputCoalProduction:         "Coal production in tons",
		engine.InputFuelConsumption:        "Fuel consumption in liters",
		engine.InputElectricityConsumption: "Electricity consumption in kWh",
		engine.InputEmployeeCount:          "Number of employees",
	} {
		values[in] = cmd.Flags().String(flagName(in), "", usage)
	}
	cmd.Flags().StringVar(&output, "output", "text", "Output format: text or json")

	return cmd
}

var inputFlags = map[engine.Input]string{
	engine.InputCoalProduction:         "coal",
	engine.InputFuelConsumption:        "fuel",
	engine.InputElectricityConsumption: "electricity",
	engine.InputEmployeeCount:          "employees",
}

func flagName(in engine.Input) string {
	return inputFlags[in]
}

func cellText(c engine.Cell, unit string) string {
	if !c.Set {
		return "-"
	}
	if unit == "" {
		return c.String()
	}
	return c.String() + " " + unit
}
