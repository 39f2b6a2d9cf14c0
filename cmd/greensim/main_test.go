package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil || v["version"] != version {
		t.Errorf("json output = %q (%v)", out, err)
	}
}

func TestPresetsCmd(t *testing.T) {
	out, err := run(t, "presets")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"tropical", "desert", "mars", "office"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing preset %q in %q", name, out)
		}
	}
}

func TestComputeCmd_JSON(t *testing.T) {
	out, err := run(t, "compute", "--co2", "400", "--temp", "25", "--light", "100", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Outputs struct {
			Efficiency float64 `json:"efficiency"`
			Status     string  `json:"status"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if math.Abs(res.Outputs.Efficiency-0.444) > 1e-3 {
		t.Errorf("efficiency = %v, want ~0.444", res.Outputs.Efficiency)
	}
	if res.Outputs.Status != "Optimal Balance" {
		t.Errorf("status = %q", res.Outputs.Status)
	}
}

func TestComputeCmd_PresetWithOverride(t *testing.T) {
	out, err := run(t, "compute", "--preset", "office", "--light", "90")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "CO2 650 ppm, 22.0 °C, light 90%") {
		t.Errorf("override not applied: %q", out)
	}
}

func TestComputeCmd_UnknownPreset(t *testing.T) {
	if _, err := run(t, "compute", "--preset", "venus"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestSimulateCmd_CSV(t *testing.T) {
	out, err := run(t, "simulate", "--preset", "tropical", "--ticks", "60", "--format", "csv")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 61 {
		t.Fatalf("expected header + 60 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tick,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[60], "59,") {
		t.Errorf("last row = %q", lines[60])
	}
}

func TestSimulateCmd_JSON(t *testing.T) {
	out, err := run(t, "simulate", "--co2", "120", "--ticks", "80", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		State struct {
			Health  float64 `json:"health"`
			History []struct {
				Tick int `json:"tick"`
			} `json:"history"`
		} `json:"state"`
		Summary struct {
			Samples   int `json:"samples"`
			FirstTick int `json:"first_tick"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.State.Health != 0 {
		t.Errorf("health = %v, want 0 under carbon starvation", res.State.Health)
	}
	if len(res.State.History) != 50 || res.Summary.Samples != 50 || res.Summary.FirstTick != 30 {
		t.Errorf("unexpected history window: %d samples, first tick %d", res.Summary.Samples, res.Summary.FirstTick)
	}
}

func TestSimulateCmd_Errors(t *testing.T) {
	if _, err := run(t, "simulate", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, "simulate", "--ticks", "-1"); err == nil {
		t.Error("expected error for negative ticks")
	}
}
