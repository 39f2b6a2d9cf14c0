package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"greensim/internal/photosynthesis"
)

func newComputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Evaluate the environment model once",
		Example: `  greensim compute --co2 400 --temp 25 --light 100
  greensim compute --preset mars --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			in, err := inputsFromFlags(cmd, cfg.Simulation.Initial)
			if err != nil {
				return err
			}
			out := photosynthesis.Compute(in)
			impact := photosynthesis.AtmosphereImpact(out, in)

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"inputs":  in,
					"outputs": out,
					"impact":  impact,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Inputs:      CO2 %.0f ppm, %.1f °C, light %.0f%%\n", in.CO2PPM, in.TemperatureC, in.LightPct)
			fmt.Fprintf(w, "Status:      %s. %s\n", out.Status, out.Status.Description())
			fmt.Fprintf(w, "Efficiency:  %.1f%% (light %.3f × co2 %.3f × temp %.3f)\n",
				out.Efficiency*100, out.Factors.Light, out.Factors.CO2, out.Factors.Temperature)
			fmt.Fprintf(w, "Growth rate: %.3f\n", out.GrowthRate)
			fmt.Fprintf(w, "O2 output:   %.2f\n", out.O2Output)
			fmt.Fprintf(w, "CO2 capture: %.2f\n", out.CarbonAbsorbed)
			verdict := "SUFFOCATING"
			if impact.Healing {
				verdict = "HEALING"
			}
			fmt.Fprintf(w, "Atmosphere:  %s (score %.1f)\n", verdict, impact.Score)
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}
