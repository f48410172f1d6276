package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyLinked is returned when a login is already attached to another roster entry.
var ErrAlreadyLinked = errors.New("account already linked to a roster entry")

// RosterEntry is an athlete on a team roster. LinkedUID ties the entry to
// an athlete login; at most one entry carries a given UID.
type RosterEntry struct {
	ID             uuid.UUID  `json:"id"`
	TeamID         uuid.UUID  `json:"team_id"`
	DisplayName    string     `json:"display_name"`
	LinkedUID      *string    `json:"linked_uid,omitempty"`
	NextExercise   *Exercise  `json:"next_exercise,omitempty"`
	NextSelection  *Selection `json:"next_selection,omitempty"`
	NextWeight     *float64   `json:"next_weight,omitempty"`
	Bodyweight     *float64   `json:"bodyweight,omitempty"`
	GraduationYear *int       `json:"graduation_year,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Status grades risk and fatigue levels.
type Status string

const (
	Stable   Status = "Stable"
	Warning  Status = "Warning"
	Critical Status = "Critical"
)
