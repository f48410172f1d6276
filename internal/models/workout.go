package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownExercise  = errors.New("unknown exercise")
	ErrUnknownResult    = errors.New("unknown result")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidRecord    = errors.New("invalid workout record")
)

// Exercise is one of the three tracked competition lifts.
type Exercise string

const (
	Bench      Exercise = "Bench"
	Squat      Exercise = "Squat"
	PowerClean Exercise = "PowerClean"
)

// Exercises lists the lifts in display order.
var Exercises = []Exercise{Bench, Squat, PowerClean}

// ParseExercise accepts the canonical names plus "Power Clean", ignoring case.
func ParseExercise(s string) (Exercise, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, e := range Exercises {
		if strings.ToLower(string(e)) == norm {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExercise, s)
}

func (e Exercise) Valid() bool {
	switch e {
	case Bench, Squat, PowerClean:
		return true
	}
	return false
}

// Result is the outcome of a logged lift.
type Result string

const (
	Pass     Result = "Pass"
	Fail     Result = "Fail"
	Override Result = "Override"
)

func ParseResult(s string) (Result, error) {
	for _, r := range []Result{Pass, Fail, Override} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResult, s)
}

func (r Result) Valid() bool {
	switch r {
	case Pass, Fail, Override:
		return true
	}
	return false
}

// SelectionKind tags which loading scheme a Selection refers to.
type SelectionKind string

const (
	SelectionBox     SelectionKind = "box"
	SelectionPercent SelectionKind = "percent"
	SelectionMax     SelectionKind = "max"
)

// Percent selections are offered in steps of 5 within this range.
const (
	MinPercent = 25
	MaxPercent = 90
	MaxBox     = 6
)

// Selection identifies the prescription template used for a lift: a box
// number, a working percentage, or a max attempt.
type Selection struct {
	Kind    SelectionKind `json:"kind"`
	Box     int           `json:"box,omitempty"`
	Percent int           `json:"percent,omitempty"`
}

func BoxSelection(n int) Selection { return Selection{Kind: SelectionBox, Box: n} }

func PercentSelection(p int) Selection { return Selection{Kind: SelectionPercent, Percent: p} }

func MaxSelection() Selection { return Selection{Kind: SelectionMax} }

func (s Selection) IsMax() bool { return s.Kind == SelectionMax }

// IsZero reports whether no selection was recorded.
func (s Selection) IsZero() bool { return s.Kind == "" }

// Validate checks the selection fields match its kind.
func (s Selection) Validate() error {
	switch s.Kind {
	case SelectionBox:
		if s.Box < 1 || s.Box > MaxBox {
			return fmt.Errorf("%w: box %d out of range 1-%d", ErrInvalidSelection, s.Box, MaxBox)
		}
	case SelectionPercent:
		if s.Percent < MinPercent || s.Percent > MaxPercent {
			return fmt.Errorf("%w: percent %d out of range %d-%d", ErrInvalidSelection, s.Percent, MinPercent, MaxPercent)
		}
	case SelectionMax:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidSelection, s.Kind)
	}
	return nil
}

// String renders the selection the way coaches write it: "Box 3", "75%", "Max".
func (s Selection) String() string {
	switch s.Kind {
	case SelectionBox:
		return fmt.Sprintf("Box %d", s.Box)
	case SelectionPercent:
		return fmt.Sprintf("%d%%", s.Percent)
	case SelectionMax:
		return "Max"
	}
	return ""
}

// ParseSelection resolves a selection string. An explicit "Box N" or "N%"
// keeps the kind it names. A bare number follows the lift: Squat is loaded
// by percentage and the other lifts by box, so "3" means Box 3 on Bench
// and "75" means 75% on Squat.
func ParseSelection(ex Exercise, raw string) (Selection, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "max" {
		return MaxSelection(), nil
	}

	kind := SelectionBox
	if ex == Squat {
		kind = SelectionPercent
	}
	switch {
	case strings.HasPrefix(v, "box"):
		kind = SelectionBox
		v = strings.TrimPrefix(v, "box")
	case strings.HasSuffix(v, "%"):
		kind = SelectionPercent
		v = strings.TrimSuffix(v, "%")
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, raw)
	}

	var sel Selection
	if kind == SelectionPercent {
		sel = PercentSelection(n)
	} else {
		sel = BoxSelection(n)
	}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// WorkoutRecord is a single logged lift attempt.
type WorkoutRecord struct {
	ID             uuid.UUID `json:"id"`
	TeamID         uuid.UUID `json:"team_id"`
	AthleteID      uuid.UUID `json:"athlete_id"`
	AthleteName    string    `json:"athlete_name,omitempty"`
	Exercise       Exercise  `json:"exercise"`
	Weight         float64   `json:"weight"`
	Selection      Selection `json:"selection"`
	Result         Result    `json:"result"`
	OverrideReason string    `json:"override_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Graded reports whether the record counts as an attempt in analytics.
// Overrides and zero-weight entries are excluded.
func (w WorkoutRecord) Graded() bool {
	return w.Result != Override && w.Weight != 0
}

// Validate checks the enum fields so analytics never sees an unknown lift
// or outcome.
func (w WorkoutRecord) Validate() error {
	if !w.Exercise.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrUnknownExercise, w.Exercise)
	}
	if !w.Result.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrUnknownResult, w.Result)
	}
	if !w.Selection.IsZero() {
		if err := w.Selection.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	}
	return nil
}

// Volume is the summed weight of a set of records.
func Volume(records []WorkoutRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.Weight
	}
	return total
}

// MarshalSelection encodes a selection for a jsonb column.
func MarshalSelection(s Selection) ([]byte, error) {
	if s.IsZero() {
		return nil, nil
	}
	return json.Marshal(s)
}

// UnmarshalSelection decodes a jsonb column; an empty column yields the zero Selection.
func UnmarshalSelection(data []byte) (Selection, error) {
	var s Selection
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decoding selection: %w", err)
	}
	return s, nil
}
