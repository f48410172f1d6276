// Package analytics derives team and athlete training summaries from
// logged lifts. Every function here is pure: the same inputs always give
// the same result and nothing is read from the clock or the database.
package analytics

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/claude/teamlift/internal/models"
	"github.com/google/uuid"
)

// DefaultWindowDays is the look-back window used when none is given.
const DefaultWindowDays = 30

// failStreakAlert is the number of consecutive fails at one weight that
// raises an alert.
const failStreakAlert = 3

// Trend is one athlete-exercise series that moved during the window.
type Trend struct {
	AthleteID uuid.UUID       `json:"athlete_id"`
	Name      string          `json:"name"`
	Exercise  models.Exercise `json:"exercise"`
	Diff      float64         `json:"diff"`
}

// Alert is a weight an athlete kept failing.
type Alert struct {
	AthleteID uuid.UUID       `json:"athlete_id"`
	Name      string          `json:"name"`
	Exercise  models.Exercise `json:"exercise"`
	Weight    float64         `json:"weight"`
	Streak    int             `json:"streak"`
}

// AthleteRef names an athlete and the value that singled them out.
type AthleteRef struct {
	AthleteID uuid.UUID `json:"athlete_id"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
}

// TeamResult summarizes a team's training over a window.
type TeamResult struct {
	WindowDays     int           `json:"window_days"`
	Attempts       int           `json:"attempts"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	PassRate       int           `json:"pass_rate"`
	TotalVolume    float64       `json:"total_volume"`
	Improving      int           `json:"improving"`
	Declining      int           `json:"declining"`
	ImprovingList  []Trend       `json:"improving_list"`
	DecliningList  []Trend       `json:"declining_list"`
	AlertCount     int           `json:"alert_count"`
	Alerts         []Alert       `json:"alerts"`
	FatigueStatus  models.Status `json:"fatigue_status"`
	TopPerformer   *AthleteRef   `json:"top_performer"`
	MostImproved   *AthleteRef   `json:"most_improved"`
	AthleteVolumes []AthleteRef  `json:"athlete_volumes"`
}

func emptyTeamResult(windowDays int) *TeamResult {
	return &TeamResult{
		WindowDays:     windowDays,
		ImprovingList:  []Trend{},
		DecliningList:  []Trend{},
		Alerts:         []Alert{},
		FatigueStatus:  models.Stable,
		AthleteVolumes: []AthleteRef{},
	}
}

type seriesKey struct {
	athlete  uuid.UUID
	exercise models.Exercise
}

type streakKey struct {
	athlete  uuid.UUID
	exercise models.Exercise
	weight   float64
}

// AggregateTeam summarizes the graded lifts logged within windowDays
// before now. Override and zero-weight records are ignored. A record with
// an unknown exercise or result fails the whole call with
// models.ErrInvalidRecord.
func AggregateTeam(workouts []models.WorkoutRecord, roster []models.RosterEntry, windowDays int, now time.Time) (*TeamResult, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	for i, w := range workouts {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("workout %d: %w", i, err)
		}
	}

	cutoff := now.AddDate(0, 0, -windowDays)
	records := make([]models.WorkoutRecord, 0, len(workouts))
	for _, w := range workouts {
		if w.CreatedAt.IsZero() || w.CreatedAt.Before(cutoff) || !w.Graded() {
			continue
		}
		records = append(records, w)
	}
	sortChronological(records)

	res := emptyTeamResult(windowDays)
	if len(records) == 0 {
		return res, nil
	}

	names := newNameResolver(roster)

	var athletes []uuid.UUID
	volume := make(map[uuid.UUID]float64)
	weights := make(map[uuid.UUID][]float64)

	var seriesOrder []seriesKey
	series := make(map[seriesKey][]float64)

	var streakOrder []streakKey
	streaks := make(map[streakKey]int)

	for _, r := range records {
		res.Attempts++
		switch r.Result {
		case models.Pass:
			res.Passed++
		case models.Fail:
			res.Failed++
		}
		res.TotalVolume += r.Weight
		names.observe(r)

		if _, seen := volume[r.AthleteID]; !seen {
			athletes = append(athletes, r.AthleteID)
		}
		volume[r.AthleteID] += r.Weight
		weights[r.AthleteID] = append(weights[r.AthleteID], r.Weight)

		sk := seriesKey{r.AthleteID, r.Exercise}
		if _, seen := series[sk]; !seen {
			seriesOrder = append(seriesOrder, sk)
		}
		series[sk] = append(series[sk], r.Weight)

		fk := streakKey{r.AthleteID, r.Exercise, r.Weight}
		if _, seen := streaks[fk]; !seen {
			streakOrder = append(streakOrder, fk)
		}
		if r.Result == models.Fail {
			streaks[fk]++
		} else {
			streaks[fk] = 0
		}
	}

	res.PassRate = percent(res.Passed, res.Attempts)
	res.FatigueStatus = fatigueStatus(float64(res.Failed) / float64(res.Attempts))

	for _, sk := range seriesOrder {
		ws := series[sk]
		if len(ws) < 2 {
			continue
		}
		diff := ws[len(ws)-1] - ws[0]
		trend := Trend{AthleteID: sk.athlete, Name: names.name(sk.athlete), Exercise: sk.exercise, Diff: diff}
		switch {
		case diff > 0:
			res.ImprovingList = append(res.ImprovingList, trend)
		case diff < 0:
			res.DecliningList = append(res.DecliningList, trend)
		}
	}
	res.Improving = len(res.ImprovingList)
	res.Declining = len(res.DecliningList)

	for _, fk := range streakOrder {
		if n := streaks[fk]; n >= failStreakAlert {
			res.Alerts = append(res.Alerts, Alert{
				AthleteID: fk.athlete,
				Name:      names.name(fk.athlete),
				Exercise:  fk.exercise,
				Weight:    fk.weight,
				Streak:    n,
			})
		}
	}
	res.AlertCount = len(res.Alerts)

	for _, id := range athletes {
		res.AthleteVolumes = append(res.AthleteVolumes, AthleteRef{AthleteID: id, Name: names.name(id), Value: volume[id]})
	}
	slices.SortStableFunc(res.AthleteVolumes, func(a, b AthleteRef) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
	top := res.AthleteVolumes[0]
	res.TopPerformer = &top

	var best *AthleteRef
	for _, id := range athletes {
		ws := weights[id]
		gain := ws[len(ws)-1] - ws[0]
		if gain > 0 && (best == nil || gain > best.Value) {
			best = &AthleteRef{AthleteID: id, Name: names.name(id), Value: gain}
		}
	}
	res.MostImproved = best

	return res, nil
}

// fatigueStatus grades a team fail rate.
func fatigueStatus(failRate float64) models.Status {
	switch {
	case failRate >= 0.5:
		return models.Critical
	case failRate >= 0.3:
		return models.Warning
	}
	return models.Stable
}

// percent returns round(100*n/d), or 0 when d is 0.
func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(d)))
}

func sortChronological(records []models.WorkoutRecord) {
	slices.SortStableFunc(records, func(a, b models.WorkoutRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// nameResolver prefers the roster display name, then the name stored on
// the athlete's records, then "Unknown".
type nameResolver struct {
	roster  map[uuid.UUID]string
	records map[uuid.UUID]string
}

func newNameResolver(roster []models.RosterEntry) *nameResolver {
	n := &nameResolver{
		roster:  make(map[uuid.UUID]string, len(roster)),
		records: make(map[uuid.UUID]string),
	}
	for _, r := range roster {
		if r.DisplayName != "" {
			n.roster[r.ID] = r.DisplayName
		}
	}
	return n
}

func (n *nameResolver) observe(r models.WorkoutRecord) {
	if r.AthleteName == "" {
		return
	}
	if _, ok := n.records[r.AthleteID]; !ok {
		n.records[r.AthleteID] = r.AthleteName
	}
}

func (n *nameResolver) name(id uuid.UUID) string {
	if name, ok := n.roster[id]; ok {
		return name
	}
	if name, ok := n.records[id]; ok {
		return name
	}
	return "Unknown"
}
