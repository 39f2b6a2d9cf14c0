package photosynthesis

// Status is a qualitative label for the current growing conditions.
type Status string

const (
	StatusHeatStress       Status = "Heat Stress"
	StatusColdStress       Status = "Cold Stress"
	StatusLightDeprivation Status = "Light Deprivation"
	StatusCarbonStarvation Status = "Carbon Starvation"
	StatusOptimal          Status = "Optimal Balance"
)

var statusDescriptions = map[Status]string{
	StatusHeatStress:       "Plant pores (stomata) are closing.",
	StatusColdStress:       "Chemical reactions have frozen.",
	StatusLightDeprivation: "The plant is in dormant mode.",
	StatusCarbonStarvation: "The plant cannot build sugar.",
	StatusOptimal:          "High-velocity carbon sequestration.",
}

// Description explains the status in a sentence.
func (s Status) Description() string {
	return statusDescriptions[s]
}

// Stressed reports whether s is anything other than StatusOptimal.
func (s Status) Stressed() bool {
	return s != StatusOptimal
}
