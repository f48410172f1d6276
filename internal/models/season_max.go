package models

import (
	"fmt"
	"time"

	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
)

// SeasonMaxSnapshot is an athlete's recorded maxes for one season.
// TrainingYear, SeasonIndex and Total are derived; build snapshots with
// NewSeasonMaxSnapshot or call Normalize after changing a lift max.
type SeasonMaxSnapshot struct {
	ID            uuid.UUID     `json:"id"`
	TeamID        uuid.UUID     `json:"team_id"`
	AthleteID     uuid.UUID     `json:"athlete_id"`
	AthleteName   string        `json:"athlete_name"`
	Season        season.Season `json:"season"`
	Year          int           `json:"year"`
	TrainingYear  int           `json:"training_year"`
	SeasonIndex   int           `json:"season_index"`
	BenchMax      float64       `json:"bench_max"`
	SquatMax      float64       `json:"squat_max"`
	PowerCleanMax float64       `json:"power_clean_max"`
	Total         float64       `json:"total"`
	Bodyweight    *float64      `json:"bodyweight,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewSeasonMaxSnapshot builds a snapshot with its derived fields filled in.
func NewSeasonMaxSnapshot(athleteID uuid.UUID, name string, s season.Season, year int, bench, squat, clean float64) (SeasonMaxSnapshot, error) {
	snap := SeasonMaxSnapshot{
		ID:            uuid.New(),
		AthleteID:     athleteID,
		AthleteName:   name,
		Season:        s,
		Year:          year,
		BenchMax:      bench,
		SquatMax:      squat,
		PowerCleanMax: clean,
	}
	if err := snap.Normalize(); err != nil {
		return SeasonMaxSnapshot{}, err
	}
	return snap, nil
}

// Normalize recomputes the training year, season index and total.
func (s *SeasonMaxSnapshot) Normalize() error {
	ty, err := season.TrainingYear(s.Season, s.Year)
	if err != nil {
		return err
	}
	idx, err := season.Index(s.Season, s.Year)
	if err != nil {
		return err
	}
	s.TrainingYear = ty
	s.SeasonIndex = idx
	s.Total = s.BenchMax + s.SquatMax + s.PowerCleanMax
	return nil
}

// Max returns the recorded max for a lift.
func (s SeasonMaxSnapshot) Max(ex Exercise) float64 {
	switch ex {
	case Bench:
		return s.BenchMax
	case Squat:
		return s.SquatMax
	case PowerClean:
		return s.PowerCleanMax
	}
	return 0
}

// RaiseMax lifts the max for ex to weight if weight is higher, keeping
// Total in sync. It reports whether the snapshot changed.
func (s *SeasonMaxSnapshot) RaiseMax(ex Exercise, weight float64) (bool, error) {
	if weight <= s.Max(ex) {
		return false, nil
	}
	switch ex {
	case Bench:
		s.BenchMax = weight
	case Squat:
		s.SquatMax = weight
	case PowerClean:
		s.PowerCleanMax = weight
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownExercise, ex)
	}
	s.Total = s.BenchMax + s.SquatMax + s.PowerCleanMax
	return true, nil
}
