package prescription

import (
	"math"

	"github.com/claude/teamlift/internal/models"
)

// Set is one prescribed set.
type Set struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// CalculateSets applies t to baseWeight. Each entry becomes one set whose
// weight is baseWeight*percent rounded to the nearest 5; a MAX entry uses
// baseWeight unchanged. baseWeight is not validated.
func CalculateSets(t Template, baseWeight float64) []Set {
	sets := make([]Set, 0, len(t.Entries))
	for _, e := range t.Entries {
		weight := baseWeight
		if !e.Percent.Max {
			weight = Round(baseWeight*e.Percent.Fraction, RoundingUnit)
		}
		sets = append(sets, Set{Reps: e.Reps, Weight: weight})
	}
	return sets
}

// DayType is the kind of training day a load is recommended for.
type DayType string

const (
	TrainingDay DayType = "training"
	MaxDay      DayType = "max"
	DeloadDay   DayType = "deload"
)

const (
	minWorkingPercent = 0.50
	maxWorkingPercent = 0.95
)

// LoadInputs describe an athlete's current state for a working-weight
// recommendation.
type LoadInputs struct {
	Max       float64       `json:"max"`
	Day       DayType       `json:"day"`
	Risk      models.Status `json:"risk"`
	FailRate  float64       `json:"fail_rate"`
	Declining bool          `json:"declining"`
}

// Recommendation is the adjusted working weight and the percent of max it
// was derived from.
type Recommendation struct {
	Percent float64 `json:"percent"`
	Weight  float64 `json:"weight"`
}

// RecommendWorkingWeight picks a working weight from the athlete's max.
// The base intensity depends on the day type and is reduced for elevated
// risk, a high fail rate, or a declining trend, then clamped to 50-95%.
// It returns false when there is no max to work from.
func RecommendWorkingWeight(in LoadInputs) (Recommendation, bool) {
	if in.Max <= 0 {
		return Recommendation{}, false
	}

	pct := 0.75
	switch in.Day {
	case MaxDay:
		pct = 0.90
	case DeloadDay:
		pct = 0.60
	}

	switch in.Risk {
	case models.Warning:
		pct -= 0.05
	case models.Critical:
		pct -= 0.10
	}
	if in.FailRate >= 0.5 {
		pct -= 0.05
	}
	if in.Declining {
		pct -= 0.05
	}

	pct = math.Round(pct*100) / 100
	pct = math.Max(minWorkingPercent, math.Min(maxWorkingPercent, pct))

	return Recommendation{
		Percent: pct,
		Weight:  Round(in.Max*pct, RoundingUnit),
	}, true
}
