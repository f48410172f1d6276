// Package periodization lays out a season as a sequence of training blocks
// with weekly intensity targets per lift.
package periodization

import (
	"errors"
	"fmt"
	"math"

	"github.com/claude/teamlift/internal/models"
)

// ErrInvalidLength is returned for seasons shorter than one week.
var ErrInvalidLength = errors.New("season length must be at least one week")

// Level is the athlete experience level a program is written for.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// Week holds the target intensity (percent of max) for each lift.
type Week struct {
	Week    int                         `json:"week"`
	Targets map[models.Exercise]float64 `json:"targets"`
}

// Block is a run of weeks sharing one training focus.
type Block struct {
	Name      string `json:"name"`
	StartWeek int    `json:"start_week"`
	EndWeek   int    `json:"end_week"`
	Weeks     []Week `json:"weeks"`
}

// Params configures Generate.
type Params struct {
	SeasonLength int             `json:"season_length"`
	Level        Level           `json:"level"`
	Emphasis     models.Exercise `json:"emphasis"`
}

type blockSpec struct {
	name  string
	share float64
	base  float64
	step  float64
}

var blockSpecs = []blockSpec{
	{"Volume", 0.25, 65, 2},
	{"Strength", 0.25, 75, 2},
	{"Intensity", 0.30, 85, 1.5},
	{"Peak", 0, 90, 1},
}

const emphasisBoost = 3

// Generate splits the season into Volume, Strength, Intensity and Peak
// blocks. The first three take a floored share of the weeks and Peak gets
// the remainder. Squat runs two points above bench and power clean two
// below; the emphasis lift gets an extra three.
func Generate(p Params) ([]Block, error) {
	if p.SeasonLength < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, p.SeasonLength)
	}
	if p.Emphasis != "" && !p.Emphasis.Valid() {
		return nil, fmt.Errorf("emphasis: %w: %q", models.ErrUnknownExercise, p.Emphasis)
	}

	blocks := make([]Block, 0, len(blockSpecs))
	week := 1
	used := 0
	for i, spec := range blockSpecs {
		length := int(math.Floor(float64(p.SeasonLength) * spec.share))
		if i == len(blockSpecs)-1 {
			length = p.SeasonLength - used
		}
		used += length

		b := Block{Name: spec.name, StartWeek: week, EndWeek: week + length - 1, Weeks: []Week{}}
		for j := 0; j < length; j++ {
			b.Weeks = append(b.Weeks, Week{
				Week:    week + j,
				Targets: targets(spec.base+float64(j)*spec.step, p.Emphasis),
			})
		}
		week += length
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func targets(current float64, emphasis models.Exercise) map[models.Exercise]float64 {
	t := map[models.Exercise]float64{
		models.Bench:      current,
		models.Squat:      current + 2,
		models.PowerClean: current - 2,
	}
	if emphasis != "" {
		t[emphasis] += emphasisBoost
	}
	return t
}
