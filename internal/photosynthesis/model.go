// Package photosynthesis maps environmental conditions to the plant's
// instantaneous photosynthetic efficiency and gas exchange.
package photosynthesis

import "math"

// Input ranges accepted by Compute. Values outside are clamped.
const (
	MinCO2PPM       = 100.0
	MaxCO2PPM       = 2500.0
	MinTemperatureC = -5.0
	MaxTemperatureC = 55.0
	MinLightPct     = 0.0
	MaxLightPct     = 100.0
)

const (
	co2Saturation  = 900.0
	co2FactorCap   = 1.5
	optimalTempC   = 25.0
	tempSpreadC    = 12.0
	growthPerUnit  = 1.8
	o2PerUnit      = 9.5
	carbonPerUnit  = 8.2
	heatStressC    = 38.0
	coldStressC    = 5.0
	lowLightPct    = 15.0
	lowCO2PPM      = 250.0
	impactO2Weight = 15.0
	impactCO2Scale = 12.0
)

// Inputs are the three environmental controls for one tick.
type Inputs struct {
	CO2PPM       float64 `json:"co2_ppm" yaml:"co2_ppm"`
	TemperatureC float64 `json:"temperature_c" yaml:"temperature_c"`
	LightPct     float64 `json:"light_pct" yaml:"light_pct"`
}

// Clamped returns a copy of in with every field forced into its documented
// range. NaN is treated as the lower bound.
func (in Inputs) Clamped() Inputs {
	return Inputs{
		CO2PPM:       Clamp(in.CO2PPM, MinCO2PPM, MaxCO2PPM),
		TemperatureC: Clamp(in.TemperatureC, MinTemperatureC, MaxTemperatureC),
		LightPct:     Clamp(in.LightPct, MinLightPct, MaxLightPct),
	}
}

// Factors are the three saturation terms whose product is the efficiency.
type Factors struct {
	Light       float64 `json:"light"`
	CO2         float64 `json:"co2"`
	Temperature float64 `json:"temperature"`
}

// Outputs are derived from Inputs and recomputed every tick.
type Outputs struct {
	GrowthRate     float64 `json:"growth_rate"`
	O2Output       float64 `json:"o2_output"`
	CarbonAbsorbed float64 `json:"carbon_absorbed"`
	Efficiency     float64 `json:"efficiency"`
	Status         Status  `json:"status"`
	Factors        Factors `json:"factors"`
}

// Compute evaluates the environment model. It has no side effects and
// never fails; inputs are clamped before use.
func Compute(in Inputs) Outputs {
	in = in.Clamped()

	f := Factors{
		Light:       math.Sin((in.LightPct / 100) * (math.Pi / 2)),
		CO2:         math.Min(in.CO2PPM/co2Saturation, co2FactorCap),
		Temperature: math.Exp(-math.Pow(in.TemperatureC-optimalTempC, 2) / (2 * tempSpreadC * tempSpreadC)),
	}
	eff := f.Light * f.CO2 * f.Temperature

	return Outputs{
		GrowthRate:     eff * growthPerUnit,
		O2Output:       eff * o2PerUnit,
		CarbonAbsorbed: eff * carbonPerUnit,
		Efficiency:     eff,
		Status:         Classify(in),
		Factors:        f,
	}
}

// Classify returns the qualitative status for in. Checks run in priority
// order and the first match wins.
func Classify(in Inputs) Status {
	in = in.Clamped()
	switch {
	case in.TemperatureC > heatStressC:
		return StatusHeatStress
	case in.TemperatureC < coldStressC:
		return StatusColdStress
	case in.LightPct < lowLightPct:
		return StatusLightDeprivation
	case in.CO2PPM < lowCO2PPM:
		return StatusCarbonStarvation
	default:
		return StatusOptimal
	}
}

// Impact describes whether the plant is net-cleaning the surrounding air.
type Impact struct {
	Score    float64 `json:"score"`
	Healing  bool    `json:"healing"`
	Progress float64 `json:"progress"`
}

// AtmosphereImpact weighs the oxygen produced against the CO2 level.
func AtmosphereImpact(out Outputs, in Inputs) Impact {
	in = in.Clamped()
	score := out.O2Output*impactO2Weight - in.CO2PPM/impactCO2Scale
	return Impact{
		Score:    score,
		Healing:  score > 0,
		Progress: Clamp(50+score, 0, 100),
	}
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
