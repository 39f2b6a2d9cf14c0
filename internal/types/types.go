package types

import (
	"greensim/internal/photosynthesis"
	"greensim/internal/sim"
)

// EnvUpdateRequest changes any subset of a session's inputs.
type EnvUpdateRequest struct {
	CO2   *float64 `json:"co2,omitempty"`
	Temp  *float64 `json:"temp,omitempty"`
	Light *float64 `json:"light,omitempty"`
}

// Apply overlays the set fields on in.
func (r EnvUpdateRequest) Apply(in photosynthesis.Inputs) photosynthesis.Inputs {
	if r.CO2 != nil {
		in.CO2PPM = *r.CO2
	}
	if r.Temp != nil {
		in.TemperatureC = *r.Temp
	}
	if r.Light != nil {
		in.LightPct = *r.Light
	}
	return in
}

type CreateSessionRequest struct {
	Preset string                 `json:"preset,omitempty"`
	Inputs *photosynthesis.Inputs `json:"inputs,omitempty"`
}

type SessionList struct {
	Sessions []string `json:"sessions"`
}

type WSEvent struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"ts,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Snapshot is everything a client needs to render one frame.
type Snapshot struct {
	SessionID         string                 `json:"session_id" yaml:"session_id"`
	Inputs            photosynthesis.Inputs  `json:"inputs" yaml:"inputs"`
	Outputs           photosynthesis.Outputs `json:"outputs" yaml:"-"`
	StatusDescription string                 `json:"status_description" yaml:"-"`
	Impact            photosynthesis.Impact  `json:"impact" yaml:"-"`
	State             sim.State              `json:"state" yaml:"state"`
	Stage             sim.Stage              `json:"stage" yaml:"stage"`
	Vitality          sim.Vitality           `json:"vitality" yaml:"vitality"`
}

type MetricsSnapshot struct {
	Sessions   int   `json:"sessions"`
	TicksTotal int64 `json:"ticks_total"`
	WSClients  int   `json:"ws_clients"`
}
