package telemetry

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"greensim/internal/photosynthesis"
	"greensim/internal/sim"
)

// WriteHistoryCSV writes the history window with a header row.
func WriteHistoryCSV(w io.Writer, history []sim.Sample) error {
	if err := gocsv.Marshal(history, w); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// TickRecord is one row of a headless simulation run.
type TickRecord struct {
	Tick           int     `csv:"tick" json:"tick"`
	Growth         float64 `csv:"growth" json:"growth"`
	Health         float64 `csv:"health" json:"health"`
	Efficiency     float64 `csv:"efficiency" json:"efficiency"`
	O2Output       float64 `csv:"o2_output" json:"o2_output"`
	CarbonAbsorbed float64 `csv:"carbon_absorbed" json:"carbon_absorbed"`
	Status         string  `csv:"status" json:"status"`
	Stage          string  `csv:"stage" json:"stage"`
}

// NewTickRecord flattens the state after a tick together with the outputs
// that produced it.
func NewTickRecord(s sim.State, out photosynthesis.Outputs) TickRecord {
	return TickRecord{
		Tick:           s.NextTick - 1,
		Growth:         s.Growth,
		Health:         s.Health,
		Efficiency:     out.Efficiency,
		O2Output:       out.O2Output,
		CarbonAbsorbed: out.CarbonAbsorbed,
		Status:         string(out.Status),
		Stage:          string(s.Stage()),
	}
}

// Recorder streams TickRecords as CSV, writing the header once.
type Recorder struct {
	w             io.Writer
	headerWritten bool
}

func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Write appends one row.
func (r *Recorder) Write(rec TickRecord) error {
	records := []TickRecord{rec}

	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return fmt.Errorf("writing tick record: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
		return fmt.Errorf("writing tick record: %w", err)
	}
	return nil
}
