// Package sim holds the per-session plant state and its tick transitions.
//
// State is a plain value. Advance, Reset and ToggleRunning return a new
// State and never modify the one they are given, so the owner decides when
// a transition is committed.
package sim

import "greensim/internal/photosynthesis"

// HistoryCap is the number of most recent samples kept in State.History.
const HistoryCap = 50

const (
	growthPerRate = 0.4
	healthLoss    = 1.5
	healthGain    = 0.3
	hostileHotC   = 45.0
	hostileColdC  = 0.0
	hostileCO2PPM = 150.0
)

// Sample is one history entry. Tick is the absolute tick number and is
// never renumbered when older samples are dropped.
type Sample struct {
	Tick           int     `json:"tick" yaml:"tick" csv:"tick"`
	O2Output       float64 `json:"o2_output" yaml:"o2_output" csv:"o2_output"`
	CarbonAbsorbed float64 `json:"carbon_absorbed" yaml:"carbon_absorbed" csv:"carbon_absorbed"`
}

// State is the mutable part of a session.
type State struct {
	Growth   float64  `json:"growth" yaml:"growth"`
	Health   float64  `json:"health" yaml:"health"`
	History  []Sample `json:"history" yaml:"history"`
	Running  bool     `json:"running" yaml:"running"`
	NextTick int      `json:"next_tick" yaml:"next_tick"`
}

// New returns the state of a freshly started session.
func New() State {
	return State{
		Growth:  0,
		Health:  100,
		History: []Sample{},
		Running: true,
	}
}

// Advance applies one tick. It is a no-op while the state is paused.
func Advance(s State, out photosynthesis.Outputs, in photosynthesis.Inputs) State {
	if !s.Running {
		return s
	}
	in = in.Clamped()

	next := s
	next.Growth = clamp100(s.Growth + out.GrowthRate*growthPerRate)
	if hostile(in) {
		next.Health = clamp100(s.Health - healthLoss)
	} else {
		next.Health = clamp100(s.Health + healthGain)
	}

	drop := len(s.History) + 1 - HistoryCap
	if drop < 0 {
		drop = 0
	}
	hist := make([]Sample, 0, len(s.History)-drop+1)
	hist = append(hist, s.History[drop:]...)
	hist = append(hist, Sample{
		Tick:           s.NextTick,
		O2Output:       out.O2Output,
		CarbonAbsorbed: out.CarbonAbsorbed,
	})
	next.History = hist
	next.NextTick = s.NextTick + 1
	return next
}

// Reset restores growth, health and history to their initial values.
// The running flag is left as is.
func Reset(s State) State {
	fresh := New()
	fresh.Running = s.Running
	return fresh
}

// ToggleRunning flips between running and paused.
func ToggleRunning(s State) State {
	s.Running = !s.Running
	return s
}

func hostile(in photosynthesis.Inputs) bool {
	return in.TemperatureC > hostileHotC || in.TemperatureC < hostileColdC || in.CO2PPM < hostileCO2PPM
}

func clamp100(v float64) float64 {
	return photosynthesis.Clamp(v, 0, 100)
}
