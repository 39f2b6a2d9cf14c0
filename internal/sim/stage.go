package sim

// Stage is the plant's maturity bracket.
type Stage string

const (
	StageSeedling   Stage = "Seedling"
	StageVegetative Stage = "Vegetative"
	StageFlowering  Stage = "Flowering"
	StageMature     Stage = "Mature"
)

// Stage buckets Growth into tenths.
func (s State) Stage() Stage {
	switch tenth := int(s.Growth / 10); {
	case tenth < 3:
		return StageSeedling
	case tenth < 6:
		return StageVegetative
	case tenth < 9:
		return StageFlowering
	default:
		return StageMature
	}
}

// Vitality is a coarse band over Health used for colour coding.
type Vitality string

const (
	VitalityStable   Vitality = "stable"
	VitalityStressed Vitality = "stressed"
	VitalityCritical Vitality = "critical"
)

func (s State) Vitality() Vitality {
	switch {
	case s.Health > 70:
		return VitalityStable
	case s.Health > 30:
		return VitalityStressed
	default:
		return VitalityCritical
	}
}
