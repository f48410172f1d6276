package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/prescription"
)

const (
	plateauWindow    = 6
	plateauTolerance = 5.0
	fatigueMinRecs   = 10
	fatigueSpan      = 5
	fatigueSpike     = 1.3
)

// AthleteResult is the deep-dive summary for one athlete.
type AthleteResult struct {
	Attempts         int                         `json:"attempts"`
	Passed           int                         `json:"passed"`
	PassRate         int                         `json:"pass_rate"`
	FailRate         float64                     `json:"fail_rate"`
	TotalVolume      float64                     `json:"total_volume"`
	Fatigue          bool                        `json:"fatigue"`
	Plateaus         []models.Exercise           `json:"plateaus"`
	RiskScore        int                         `json:"risk_score"`
	RiskLevel        models.Status               `json:"risk_level"`
	RecommendedLoads map[models.Exercise]float64 `json:"recommended_loads"`
	PerformanceScore int                         `json:"performance_score"`
	Grade            string                      `json:"grade"`
	Momentum         float64                     `json:"momentum"`
	Declining        bool                        `json:"declining"`
	Insights         []string                    `json:"insights"`
	Recommendations  []string                    `json:"recommendations"`
}

func emptyAthleteResult() *AthleteResult {
	return &AthleteResult{
		Plateaus:         []models.Exercise{},
		RiskLevel:        models.Stable,
		Grade:            "C",
		RecommendedLoads: map[models.Exercise]float64{},
		Insights:         []string{},
		Recommendations:  []string{},
	}
}

// AnalyzeAthlete grades one athlete's lift history. Override and
// zero-weight records are not attempts and are ignored. Records are
// considered in chronological order.
func AnalyzeAthlete(workouts []models.WorkoutRecord) (*AthleteResult, error) {
	for i, w := range workouts {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("workout %d: %w", i, err)
		}
	}

	records := make([]models.WorkoutRecord, 0, len(workouts))
	for _, w := range workouts {
		if w.Graded() {
			records = append(records, w)
		}
	}
	sortChronological(records)

	res := emptyAthleteResult()
	if len(records) == 0 {
		return res, nil
	}

	lifts := make(map[models.Exercise][]float64)
	for _, r := range records {
		res.Attempts++
		if r.Result == models.Pass {
			res.Passed++
		}
		res.TotalVolume += r.Weight
		lifts[r.Exercise] = append(lifts[r.Exercise], r.Weight)
	}

	res.PassRate = percent(res.Passed, res.Attempts)
	res.FailRate = float64(res.Attempts-res.Passed) / float64(res.Attempts)

	plateaued := make(map[models.Exercise]bool)
	for _, ex := range models.Exercises {
		if isPlateau(lifts[ex]) {
			plateaued[ex] = true
			res.Plateaus = append(res.Plateaus, ex)
		}
	}
	res.Fatigue = volumeSpike(records)

	if res.FailRate >= 0.5 {
		res.RiskScore += 2
	} else if res.FailRate >= 0.3 {
		res.RiskScore++
	}
	if res.Fatigue {
		res.RiskScore++
	}
	if len(res.Plateaus) > 0 {
		res.RiskScore++
	}
	switch {
	case res.RiskScore >= 3:
		res.RiskLevel = models.Critical
	case res.RiskScore == 2:
		res.RiskLevel = models.Warning
	}

	progressing := res.PassRate >= 85 && !res.Fatigue
	for _, ex := range models.Exercises {
		ws := lifts[ex]
		if len(ws) == 0 {
			continue
		}
		latest := ws[len(ws)-1]
		factor := 1.0
		switch {
		case res.RiskLevel == models.Critical:
			factor = 0.90
		case res.RiskLevel == models.Warning:
			factor = 0.95
		case progressing && !plateaued[ex]:
			factor = 1.03
		}
		res.RecommendedLoads[ex] = prescription.Round(latest*factor, prescription.RoundingUnit)
	}

	score := 100 - res.FailRate*40
	if res.Fatigue {
		score -= 10
	}
	if len(res.Plateaus) > 0 {
		score -= 10
	}
	if res.PassRate >= 85 {
		score += 5
	}
	res.PerformanceScore = clamp(int(math.Round(score)), 0, 100)
	res.Grade = grade(res.PerformanceScore)

	var momentum float64
	for _, ex := range models.Exercises {
		ws := lifts[ex]
		if len(ws) >= 2 {
			momentum += ws[len(ws)-1] - ws[len(ws)-2]
		}
	}
	res.Momentum = math.Round(momentum)
	res.Declining = res.Momentum < 0

	res.Insights, res.Recommendations = advice(res)
	return res, nil
}

// isPlateau reports whether the last six weights sit within 5 of each other.
func isPlateau(ws []float64) bool {
	if len(ws) < plateauWindow {
		return false
	}
	recent := ws[len(ws)-plateauWindow:]
	lo, hi := recent[0], recent[0]
	for _, w := range recent[1:] {
		lo = math.Min(lo, w)
		hi = math.Max(hi, w)
	}
	return hi-lo <= plateauTolerance
}

// volumeSpike compares the volume of the last five attempts with the five
// before them.
func volumeSpike(records []models.WorkoutRecord) bool {
	if len(records) < fatigueMinRecs {
		return false
	}
	n := len(records)
	last := models.Volume(records[n-fatigueSpan:])
	prev := models.Volume(records[n-2*fatigueSpan : n-fatigueSpan])
	return prev > 0 && last > prev*fatigueSpike
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 75:
		return "B"
	case score >= 65:
		return "C"
	case score >= 50:
		return "D"
	}
	return "F"
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func advice(res *AthleteResult) (insights, recs []string) {
	insights, recs = []string{}, []string{}

	if len(res.Plateaus) > 0 {
		names := make([]string, len(res.Plateaus))
		for i, ex := range res.Plateaus {
			names[i] = string(ex)
		}
		insights = append(insights, "Plateau detected in: "+strings.Join(names, ", "))
	}
	if res.Fatigue {
		insights = append(insights, "Volume spike detected, monitor fatigue")
	}
	if res.FailRate >= 0.5 {
		insights = append(insights, "High fail rate, reduce load")
	}
	if res.PassRate >= 80 {
		insights = append(insights, "Strong performance, increase intensity")
	}

	switch res.RiskLevel {
	case models.Critical:
		recs = append(recs, "Deload 10% next session")
	case models.Warning:
		recs = append(recs, "Reduce load by 5% next session")
	}
	if len(res.Plateaus) > 0 {
		recs = append(recs, "Change stimulus (tempo, pause, or volume)")
	}
	if res.Fatigue {
		recs = append(recs, "Insert recovery or light day")
	}
	if res.PassRate >= 85 && !res.Fatigue && len(res.Plateaus) == 0 {
		recs = append(recs, "Increase load 2.5-5% next week")
	}
	return insights, recs
}
