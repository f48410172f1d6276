package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/teamlift/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const rosterColumns = `id, team_id, display_name, linked_uid, next_exercise, next_selection,
	next_weight, bodyweight, graduation_year, created_at`

// InsertRosterEntry adds an athlete to a team roster.
func (db *DB) InsertRosterEntry(ctx context.Context, e models.RosterEntry) error {
	var nextEx *string
	if e.NextExercise != nil {
		s := string(*e.NextExercise)
		nextEx = &s
	}
	var nextSel []byte
	if e.NextSelection != nil {
		var err error
		if nextSel, err = models.MarshalSelection(*e.NextSelection); err != nil {
			return fmt.Errorf("encoding next selection: %w", err)
		}
	}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO roster (id, team_id, display_name, linked_uid, next_exercise, next_selection,
		 next_weight, bodyweight, graduation_year)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.TeamID, e.DisplayName, e.LinkedUID, nextEx, nextSel,
		e.NextWeight, e.Bodyweight, e.GraduationYear)
	if isUniqueViolation(err) {
		return models.ErrAlreadyLinked
	}
	if err != nil {
		return fmt.Errorf("inserting roster entry: %w", err)
	}
	return nil
}

// ListRoster returns a team's roster ordered by display name.
func (db *DB) ListRoster(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+rosterColumns+`
		 FROM roster
		 WHERE team_id = $1
		 ORDER BY display_name ASC`,
		teamID)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	result := []models.RosterEntry{}
	for rows.Next() {
		e, err := scanRosterEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// GetRosterEntry returns one roster entry, or ErrNotFound.
func (db *DB) GetRosterEntry(ctx context.Context, teamID, id uuid.UUID) (*models.RosterEntry, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+rosterColumns+`
		 FROM roster
		 WHERE team_id = $1 AND id = $2`,
		teamID, id)
	e, err := scanRosterEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("roster entry %s: %w", id, ErrNotFound)
	}
	return e, err
}

// LinkRosterEntry attaches an athlete login to a roster entry. A login
// already linked elsewhere yields models.ErrAlreadyLinked.
func (db *DB) LinkRosterEntry(ctx context.Context, teamID, id uuid.UUID, uid string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE roster SET linked_uid = $3 WHERE team_id = $1 AND id = $2`,
		teamID, id, uid)
	if isUniqueViolation(err) {
		return models.ErrAlreadyLinked
	}
	if err != nil {
		return fmt.Errorf("linking roster entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roster entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateNextPrescription records what an athlete should lift next.
func (db *DB) UpdateNextPrescription(ctx context.Context, teamID, id uuid.UUID, ex models.Exercise, sel models.Selection, weight float64) error {
	selJSON, err := models.MarshalSelection(sel)
	if err != nil {
		return fmt.Errorf("encoding next selection: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE roster SET next_exercise = $3, next_selection = $4, next_weight = $5
		 WHERE team_id = $1 AND id = $2`,
		teamID, id, string(ex), selJSON, weight)
	if err != nil {
		return fmt.Errorf("updating next prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roster entry %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanRosterEntry(row pgx.Row) (*models.RosterEntry, error) {
	var (
		e       models.RosterEntry
		nextEx  *string
		nextSel []byte
	)
	if err := row.Scan(&e.ID, &e.TeamID, &e.DisplayName, &e.LinkedUID, &nextEx, &nextSel,
		&e.NextWeight, &e.Bodyweight, &e.GraduationYear, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning roster entry: %w", err)
	}
	if nextEx != nil {
		ex := models.Exercise(*nextEx)
		e.NextExercise = &ex
	}
	if len(nextSel) > 0 {
		sel, err := models.UnmarshalSelection(nextSel)
		if err != nil {
			return nil, err
		}
		e.NextSelection = &sel
	}
	return &e, nil
}
