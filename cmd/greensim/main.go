package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"greensim/internal/config"
	"greensim/internal/logging"
	"greensim/internal/photosynthesis"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "greensim",
		Short: "GreenSim - photosynthesis simulator",
		Long: `greensim models how a plant responds to CO2, temperature and light.

Run "greensim serve" for the live HTTP/WebSocket backend, or use
"compute" and "simulate" to explore the model from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to greensim.yaml (default ./greensim.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level: info, debug, trace")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPresetsCmd(),
		newComputeCmd(),
		newSimulateCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// loadConfig reads the config named by --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "greensim version %s\n", version)
			}
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in environment presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := photosynthesis.Presets()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(presets)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCO2 (ppm)\tTEMP (°C)\tLIGHT (%)")
			for _, p := range presets {
				fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\n", p.Name, p.Inputs.CO2PPM, p.Inputs.TemperatureC, p.Inputs.LightPct)
			}
			return tw.Flush()
		},
	}
}

// addInputFlags registers --co2/--temp/--light/--preset on cmd.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("co2", 0, "Ambient CO2 in ppm (100-2500)")
	cmd.Flags().Float64("temp", 0, "Temperature in °C (-5-55)")
	cmd.Flags().Float64("light", 0, "Sunlight intensity in % (0-100)")
	cmd.Flags().String("preset", "", "Start from a preset: tropical, desert, mars, office")
}

// inputsFromFlags starts from the preset (or the configured initial inputs)
// and overlays any explicitly set flag.
func inputsFromFlags(cmd *cobra.Command, base photosynthesis.Inputs) (photosynthesis.Inputs, error) {
	in := base
	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		p, err := photosynthesis.LookupPreset(name)
		if err != nil {
			return in, err
		}
		in = p
	}
	if cmd.Flags().Changed("co2") {
		in.CO2PPM, _ = cmd.Flags().GetFloat64("co2")
	}
	if cmd.Flags().Changed("temp") {
		in.TemperatureC, _ = cmd.Flags().GetFloat64("temp")
	}
	if cmd.Flags().Changed("light") {
		in.LightPct, _ = cmd.Flags().GetFloat64("light")
	}
	return in.Clamped(), nil
}
