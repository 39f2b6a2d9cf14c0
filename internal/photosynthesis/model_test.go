package photosynthesis

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func TestCompute_ReferencePoint(t *testing.T) {
	out := Compute(Inputs{CO2PPM: 400, TemperatureC: 25, LightPct: 100})

	if !approx(out.Factors.Light, 1.0) {
		t.Errorf("light factor = %v, want 1.0", out.Factors.Light)
	}
	if !approx(out.Factors.CO2, 0.444) {
		t.Errorf("co2 factor = %v, want ~0.444", out.Factors.CO2)
	}
	if !approx(out.Factors.Temperature, 1.0) {
		t.Errorf("temp factor = %v, want 1.0", out.Factors.Temperature)
	}
	if !approx(out.Efficiency, 0.444) {
		t.Errorf("efficiency = %v, want ~0.444", out.Efficiency)
	}
	if !approx(out.GrowthRate, out.Efficiency*1.8) {
		t.Errorf("growth rate = %v, want %v", out.GrowthRate, out.Efficiency*1.8)
	}
	if !approx(out.O2Output, out.Efficiency*9.5) {
		t.Errorf("o2 output = %v, want %v", out.O2Output, out.Efficiency*9.5)
	}
	if !approx(out.CarbonAbsorbed, out.Efficiency*8.2) {
		t.Errorf("carbon absorbed = %v, want %v", out.CarbonAbsorbed, out.Efficiency*8.2)
	}
	if out.Status != StatusOptimal {
		t.Errorf("status = %q, want %q", out.Status, StatusOptimal)
	}
}

func TestCompute_Pure(t *testing.T) {
	in := Inputs{CO2PPM: 1234, TemperatureC: 31.5, LightPct: 64}
	first := Compute(in)
	for i := 0; i < 10; i++ {
		if got := Compute(in); got != first {
			t.Fatalf("call %d returned %+v, want %+v", i, got, first)
		}
	}
}

func TestCompute_Bounds(t *testing.T) {
	for co2 := MinCO2PPM; co2 <= MaxCO2PPM; co2 += 100 {
		for temp := MinTemperatureC; temp <= MaxTemperatureC; temp += 2.5 {
			for light := MinLightPct; light <= MaxLightPct; light += 5 {
				out := Compute(Inputs{CO2PPM: co2, TemperatureC: temp, LightPct: light})
				if out.Efficiency < 0 || out.Efficiency > 1.5 {
					t.Fatalf("efficiency %v out of range at (%v,%v,%v)", out.Efficiency, co2, temp, light)
				}
				if out.GrowthRate < 0 || out.GrowthRate > 2.7+1e-9 {
					t.Fatalf("growth rate %v out of range", out.GrowthRate)
				}
				if out.O2Output < 0 || out.O2Output > 14.25+1e-9 {
					t.Fatalf("o2 output %v out of range", out.O2Output)
				}
				if out.CarbonAbsorbed < 0 || out.CarbonAbsorbed > 12.3+1e-9 {
					t.Fatalf("carbon absorbed %v out of range", out.CarbonAbsorbed)
				}
			}
		}
	}
}

func TestCompute_CO2Saturates(t *testing.T) {
	a := Compute(Inputs{CO2PPM: 1350, TemperatureC: 25, LightPct: 100})
	b := Compute(Inputs{CO2PPM: 2500, TemperatureC: 25, LightPct: 100})
	if !approx(a.Efficiency, 1.5) || !approx(b.Efficiency, 1.5) {
		t.Errorf("efficiency at saturation = %v / %v, want 1.5", a.Efficiency, b.Efficiency)
	}
}

func TestCompute_OutOfRangeInputs(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want Inputs
	}{
		{"below range", Inputs{CO2PPM: -10, TemperatureC: -40, LightPct: -5}, Inputs{CO2PPM: 100, TemperatureC: -5, LightPct: 0}},
		{"above range", Inputs{CO2PPM: 9000, TemperatureC: 90, LightPct: 150}, Inputs{CO2PPM: 2500, TemperatureC: 55, LightPct: 100}},
		{"nan", Inputs{CO2PPM: math.NaN(), TemperatureC: math.NaN(), LightPct: math.NaN()}, Inputs{CO2PPM: 100, TemperatureC: -5, LightPct: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamped(); got != tt.want {
				t.Errorf("Clamped() = %+v, want %+v", got, tt.want)
			}
			got := Compute(tt.in)
			want := Compute(tt.want)
			if got != want {
				t.Errorf("Compute(%+v) = %+v, want %+v", tt.in, got, want)
			}
		})
	}
}

func TestClassify_Priority(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want Status
	}{
		{"heat wins over everything", Inputs{CO2PPM: 200, TemperatureC: 50, LightPct: 5}, StatusHeatStress},
		{"cold wins over light and co2", Inputs{CO2PPM: 200, TemperatureC: 0, LightPct: 5}, StatusColdStress},
		{"light wins over co2", Inputs{CO2PPM: 200, TemperatureC: 25, LightPct: 5}, StatusLightDeprivation},
		{"carbon starvation", Inputs{CO2PPM: 200, TemperatureC: 25, LightPct: 80}, StatusCarbonStarvation},
		{"optimal", Inputs{CO2PPM: 400, TemperatureC: 25, LightPct: 80}, StatusOptimal},
		{"38 is not heat stress", Inputs{CO2PPM: 400, TemperatureC: 38, LightPct: 80}, StatusOptimal},
		{"5 is not cold stress", Inputs{CO2PPM: 400, TemperatureC: 5, LightPct: 80}, StatusOptimal},
		{"15 light is enough", Inputs{CO2PPM: 400, TemperatureC: 25, LightPct: 15}, StatusOptimal},
		{"250 co2 is enough", Inputs{CO2PPM: 250, TemperatureC: 25, LightPct: 80}, StatusOptimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.in).Status; got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatus_Description(t *testing.T) {
	for _, s := range []Status{StatusHeatStress, StatusColdStress, StatusLightDeprivation, StatusCarbonStarvation, StatusOptimal} {
		if s.Description() == "" {
			t.Errorf("status %q has no description", s)
		}
	}
	if StatusOptimal.Stressed() {
		t.Error("optimal should not be stressed")
	}
	if !StatusHeatStress.Stressed() {
		t.Error("heat stress should be stressed")
	}
}

func TestAtmosphereImpact(t *testing.T) {
	healthy := Inputs{CO2PPM: 400, TemperatureC: 25, LightPct: 100}
	imp := AtmosphereImpact(Compute(healthy), healthy)
	// 0.444*9.5*15 - 400/12 ≈ 63.33 - 33.33 = 30
	if !approx(imp.Score, 30.0) {
		t.Errorf("score = %v, want ~30", imp.Score)
	}
	if !imp.Healing {
		t.Error("expected healing atmosphere")
	}
	if !approx(imp.Progress, 80) {
		t.Errorf("progress = %v, want ~80", imp.Progress)
	}

	dark := Inputs{CO2PPM: 2400, TemperatureC: 25, LightPct: 0}
	imp = AtmosphereImpact(Compute(dark), dark)
	if imp.Healing {
		t.Error("expected suffocating atmosphere without light")
	}
	if imp.Progress != 0 {
		t.Errorf("progress = %v, want 0", imp.Progress)
	}
}

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name string
		want Inputs
	}{
		{"tropical", Inputs{CO2PPM: 450, TemperatureC: 28, LightPct: 90}},
		{"Desert", Inputs{CO2PPM: 320, TemperatureC: 42, LightPct: 100}},
		{" MARS ", Inputs{CO2PPM: 1800, TemperatureC: 8, LightPct: 45}},
		{"office", Inputs{CO2PPM: 650, TemperatureC: 22, LightPct: 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookupPreset(tt.name)
			if err != nil {
				t.Fatalf("LookupPreset(%q) error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("LookupPreset(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}

	if _, err := LookupPreset("venus"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestPresets_ReturnsCopy(t *testing.T) {
	p := Presets()
	if len(p) != 4 {
		t.Fatalf("expected 4 presets, got %d", len(p))
	}
	p[0].Inputs.CO2PPM = 1
	if Presets()[0].Inputs.CO2PPM != 450 {
		t.Error("Presets() exposed internal slice")
	}
}
