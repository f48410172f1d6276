// Package leaderboard ranks season-max snapshots and measures how athletes
// improved from one season to another.
package leaderboard

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
)

// ErrUnknownCategory is returned for ranking categories other than the
// three lifts and the total.
var ErrUnknownCategory = errors.New("unknown leaderboard category")

// Category is the value a leaderboard is ranked by.
type Category string

const (
	Total      Category = "Total"
	Bench      Category = "Bench"
	Squat      Category = "Squat"
	PowerClean Category = "PowerClean"
)

// ParseCategory accepts the category names, "Power Clean", and an empty
// string meaning Total.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch norm {
	case "", "total":
		return Total, nil
	case "bench":
		return Bench, nil
	case "squat":
		return Squat, nil
	case "powerclean":
		return PowerClean, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Value reads the category's number from a snapshot.
func (c Category) Value(s models.SeasonMaxSnapshot) float64 {
	switch c {
	case Bench:
		return s.BenchMax
	case Squat:
		return s.SquatMax
	case PowerClean:
		return s.PowerCleanMax
	}
	return s.Total
}

// Rank returns a copy of snapshots ordered by category, highest first.
// Ties keep their input order.
func Rank(snapshots []models.SeasonMaxSnapshot, c Category) []models.SeasonMaxSnapshot {
	out := slices.Clone(snapshots)
	slices.SortStableFunc(out, func(a, b models.SeasonMaxSnapshot) int {
		return descending(c.Value(a), c.Value(b))
	})
	return out
}

// ForSeason keeps the snapshots recorded for one labelled season.
func ForSeason(snapshots []models.SeasonMaxSnapshot, s season.Season, year int) ([]models.SeasonMaxSnapshot, error) {
	idx, err := season.Index(s, year)
	if err != nil {
		return nil, err
	}
	return bySeasonIndex(snapshots, idx), nil
}

func bySeasonIndex(snapshots []models.SeasonMaxSnapshot, idx int) []models.SeasonMaxSnapshot {
	out := []models.SeasonMaxSnapshot{}
	for _, s := range snapshots {
		if s.SeasonIndex == idx {
			out = append(out, s)
		}
	}
	return out
}

// Improvement compares an athlete's total across two seasons. Percent is
// nil when either total is zero, which means the season has no data.
type Improvement struct {
	AthleteID     uuid.UUID `json:"athlete_id"`
	Name          string    `json:"name"`
	PreviousIndex int       `json:"previous_index"`
	CurrentIndex  int       `json:"current_index"`
	PreviousTotal float64   `json:"previous_total"`
	CurrentTotal  float64   `json:"current_total"`
	Diff          float64   `json:"diff"`
	Percent       *float64  `json:"percent"`
}

func improvement(prev, cur models.SeasonMaxSnapshot) Improvement {
	imp := Improvement{
		AthleteID:     cur.AthleteID,
		Name:          cur.AthleteName,
		PreviousIndex: prev.SeasonIndex,
		CurrentIndex:  cur.SeasonIndex,
		PreviousTotal: prev.Total,
		CurrentTotal:  cur.Total,
		Diff:          cur.Total - prev.Total,
	}
	if prev.Total > 0 && cur.Total > 0 {
		pct := math.Round(imp.Diff/prev.Total*1000) / 10
		imp.Percent = &pct
	}
	return imp
}

// MostImproved compares every athlete in the given season with the
// nearest earlier season that has any snapshots, largest gain first.
// Athletes missing from either season are left out.
func MostImproved(snapshots []models.SeasonMaxSnapshot, s season.Season, year int) ([]Improvement, error) {
	current, err := season.Index(s, year)
	if err != nil {
		return nil, err
	}

	indexes := make([]int, 0, len(snapshots))
	for _, snap := range snapshots {
		indexes = append(indexes, snap.SeasonIndex)
	}
	out := []Improvement{}
	prevIdx, ok := season.Previous(indexes, current)
	if !ok {
		return out, nil
	}

	previous := latestByAthlete(bySeasonIndex(snapshots, prevIdx))
	for _, cur := range bySeasonIndex(snapshots, current) {
		prev, ok := previous[cur.AthleteID]
		if !ok {
			continue
		}
		out = append(out, improvement(prev, cur))
	}
	slices.SortStableFunc(out, func(a, b Improvement) int {
		return descending(a.Diff, b.Diff)
	})
	return out, nil
}

// YearOverYear pairs each athlete's snapshot for a season with the same
// season a year earlier. Improvement is nil when there is no earlier
// snapshot; those rows rank as zero.
type YearOverYear struct {
	Snapshot    models.SeasonMaxSnapshot `json:"snapshot"`
	Previous    *float64                 `json:"previous_total"`
	Improvement *float64                 `json:"improvement"`
}

// CompareYearOverYear ranks a season's snapshots by gain over the same
// season of the previous year.
func CompareYearOverYear(snapshots []models.SeasonMaxSnapshot, s season.Season, year int) ([]YearOverYear, error) {
	cur, err := ForSeason(snapshots, s, year)
	if err != nil {
		return nil, err
	}
	prevSnaps, err := ForSeason(snapshots, s, year-1)
	if err != nil {
		return nil, err
	}
	previous := latestByAthlete(prevSnaps)

	out := make([]YearOverYear, 0, len(cur))
	for _, snap := range cur {
		row := YearOverYear{Snapshot: snap}
		if p, ok := previous[snap.AthleteID]; ok {
			total := p.Total
			diff := snap.Total - p.Total
			row.Previous = &total
			row.Improvement = &diff
		}
		out = append(out, row)
	}
	slices.SortStableFunc(out, func(a, b YearOverYear) int {
		return descending(deref(a.Improvement), deref(b.Improvement))
	})
	return out, nil
}

// Comparison is one athlete's total in the same season of two years.
type Comparison struct {
	AthleteID uuid.UUID                 `json:"athlete_id"`
	Season    season.Season             `json:"season"`
	A         *models.SeasonMaxSnapshot `json:"a"`
	B         *models.SeasonMaxSnapshot `json:"b"`
	Diff      *float64                  `json:"diff"`
}

// Compare looks up an athlete's snapshots for season s in yearA and yearB.
// Diff is B minus A and is nil unless both exist.
func Compare(snapshots []models.SeasonMaxSnapshot, athleteID uuid.UUID, s season.Season, yearA, yearB int) (*Comparison, error) {
	idxA, err := season.Index(s, yearA)
	if err != nil {
		return nil, err
	}
	idxB, err := season.Index(s, yearB)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{AthleteID: athleteID, Season: s}
	for _, snap := range snapshots {
		if snap.AthleteID != athleteID {
			continue
		}
		switch snap.SeasonIndex {
		case idxA:
			cmp.A = &snap
		case idxB:
			cmp.B = &snap
		}
	}
	if cmp.A != nil && cmp.B != nil {
		diff := cmp.B.Total - cmp.A.Total
		cmp.Diff = &diff
	}
	return cmp, nil
}

// weightClasses are upper bounds in pounds.
var weightClasses = []float64{132, 145, 160, 180, 200, 220}

// WeightClass buckets a bodyweight; a missing bodyweight is "Unknown".
func WeightClass(bodyweight *float64) string {
	if bodyweight == nil {
		return "Unknown"
	}
	for _, limit := range weightClasses {
		if *bodyweight <= limit {
			return fmt.Sprintf("%g", limit)
		}
	}
	return fmt.Sprintf("%g+", weightClasses[len(weightClasses)-1])
}

// FilterWeightClass keeps snapshots in the named weight class.
func FilterWeightClass(snapshots []models.SeasonMaxSnapshot, class string) []models.SeasonMaxSnapshot {
	out := []models.SeasonMaxSnapshot{}
	for _, s := range snapshots {
		if WeightClass(s.Bodyweight) == class {
			out = append(out, s)
		}
	}
	return out
}

// latestByAthlete keeps the most recently created snapshot per athlete.
func latestByAthlete(snapshots []models.SeasonMaxSnapshot) map[uuid.UUID]models.SeasonMaxSnapshot {
	out := make(map[uuid.UUID]models.SeasonMaxSnapshot, len(snapshots))
	for _, s := range snapshots {
		if cur, ok := out[s.AthleteID]; !ok || s.CreatedAt.After(cur.CreatedAt) {
			out[s.AthleteID] = s
		}
	}
	return out
}

func descending(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
