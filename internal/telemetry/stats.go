// Package telemetry summarises and exports a session's tick history.
package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"greensim/internal/sim"
)

// SeriesStats describes one column of the history.
type SeriesStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Total  float64 `json:"total" yaml:"total"`
}

// Summary aggregates the retained history window.
type Summary struct {
	Samples   int         `json:"samples" yaml:"samples"`
	FirstTick int         `json:"first_tick" yaml:"first_tick"`
	LastTick  int         `json:"last_tick" yaml:"last_tick"`
	O2        SeriesStats `json:"o2_output" yaml:"o2_output"`
	Carbon    SeriesStats `json:"carbon_absorbed" yaml:"carbon_absorbed"`
}

// Summarize computes per-column statistics. An empty history yields a zero
// Summary.
func Summarize(history []sim.Sample) Summary {
	if len(history) == 0 {
		return Summary{}
	}

	o2 := make([]float64, len(history))
	carbon := make([]float64, len(history))
	for i, s := range history {
		o2[i] = s.O2Output
		carbon[i] = s.CarbonAbsorbed
	}

	return Summary{
		Samples:   len(history),
		FirstTick: history[0].Tick,
		LastTick:  history[len(history)-1].Tick,
		O2:        series(o2),
		Carbon:    series(carbon),
	}
}

func series(x []float64) SeriesStats {
	mean, std := stat.MeanStdDev(x, nil)
	// The sample standard deviation is undefined for a single point.
	if len(x) < 2 {
		std = 0
	}
	return SeriesStats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Total:  floats.Sum(x),
	}
}
