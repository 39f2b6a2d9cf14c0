package photosynthesis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned by LookupPreset for names not in Presets.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named, fixed set of environmental inputs.
type Preset struct {
	Name   string `json:"name"`
	Inputs Inputs `json:"inputs"`
}

var presets = []Preset{
	{Name: "tropical", Inputs: Inputs{CO2PPM: 450, TemperatureC: 28, LightPct: 90}},
	{Name: "desert", Inputs: Inputs{CO2PPM: 320, TemperatureC: 42, LightPct: 100}},
	{Name: "mars", Inputs: Inputs{CO2PPM: 1800, TemperatureC: 8, LightPct: 45}},
	{Name: "office", Inputs: Inputs{CO2PPM: 650, TemperatureC: 22, LightPct: 15}},
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Inputs, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.Name == key {
			return p.Inputs, nil
		}
	}
	return Inputs{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
