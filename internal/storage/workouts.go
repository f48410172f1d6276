package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/teamlift/internal/models"
	"github.com/google/uuid"
)

// InsertWorkout stores a logged lift. Returns true if inserted, false if
// a record with the same ID already exists.
func (db *DB) InsertWorkout(ctx context.Context, w models.WorkoutRecord) (bool, error) {
	sel, err := models.MarshalSelection(w.Selection)
	if err != nil {
		return false, fmt.Errorf("encoding selection: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, team_id, athlete_id, athlete_name, exercise, weight, selection,
		 result, override_reason, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT DO NOTHING`,
		w.ID, w.TeamID, w.AthleteID, w.AthleteName, string(w.Exercise), w.Weight, sel,
		string(w.Result), w.OverrideReason, w.CreatedAt)
	if isForeignKeyViolation(err) {
		return false, fmt.Errorf("athlete %s: %w", w.AthleteID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("inserting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListWorkouts returns a team's lifts logged at or after since, oldest
// first. A non-nil athleteID restricts the result to one athlete.
func (db *DB) ListWorkouts(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID, since time.Time) ([]models.WorkoutRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, team_id, athlete_id, athlete_name, exercise, weight, selection,
		 result, override_reason, created_at
		 FROM workouts
		 WHERE team_id = $1
		   AND ($2::uuid IS NULL OR athlete_id = $2)
		   AND created_at >= $3
		 ORDER BY created_at ASC`,
		teamID, athleteID, since)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutRecord{}
	for rows.Next() {
		var (
			w        models.WorkoutRecord
			exercise string
			res      string
			sel      []byte
		)
		if err := rows.Scan(&w.ID, &w.TeamID, &w.AthleteID, &w.AthleteName, &exercise, &w.Weight, &sel,
			&res, &w.OverrideReason, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		w.Exercise = models.Exercise(exercise)
		w.Result = models.Result(res)
		if w.Selection, err = models.UnmarshalSelection(sel); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
