package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const seasonMaxColumns = `id, team_id, athlete_id, athlete_name, season, year, training_year,
	season_index, bench_max, squat_max, power_clean_max, total, bodyweight, created_at`

// UpsertSeasonMax stores a snapshot, replacing the maxes already recorded
// for the same athlete, season and year. Derived fields are recomputed
// before writing.
func (db *DB) UpsertSeasonMax(ctx context.Context, s models.SeasonMaxSnapshot) error {
	if err := s.Normalize(); err != nil {
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO season_maxes (id, team_id, athlete_id, athlete_name, season, year, training_year,
		 season_index, bench_max, squat_max, power_clean_max, total, bodyweight)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (team_id, athlete_id, season, year) DO UPDATE SET
		 athlete_name = EXCLUDED.athlete_name,
		 training_year = EXCLUDED.training_year,
		 season_index = EXCLUDED.season_index,
		 bench_max = EXCLUDED.bench_max,
		 squat_max = EXCLUDED.squat_max,
		 power_clean_max = EXCLUDED.power_clean_max,
		 total = EXCLUDED.total,
		 bodyweight = COALESCE(EXCLUDED.bodyweight, season_maxes.bodyweight)`,
		s.ID, s.TeamID, s.AthleteID, s.AthleteName, string(s.Season), s.Year, s.TrainingYear,
		s.SeasonIndex, s.BenchMax, s.SquatMax, s.PowerCleanMax, s.Total, s.Bodyweight)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("athlete %s: %w", s.AthleteID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("upserting season max: %w", err)
	}
	return nil
}

// ListSeasonMaxes returns a team's snapshots ordered by season. A non-nil
// athleteID restricts the result to one athlete.
func (db *DB) ListSeasonMaxes(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID) ([]models.SeasonMaxSnapshot, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+seasonMaxColumns+`
		 FROM season_maxes
		 WHERE team_id = $1 AND ($2::uuid IS NULL OR athlete_id = $2)
		 ORDER BY season_index ASC, created_at ASC`,
		teamID, athleteID)
	if err != nil {
		return nil, fmt.Errorf("querying season maxes: %w", err)
	}
	defer rows.Close()

	result := []models.SeasonMaxSnapshot{}
	for rows.Next() {
		s, err := scanSeasonMax(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// ApplyPassedLift raises the lift's max on the athlete's most recent
// snapshot when a passed weight beats it. It reports whether a snapshot
// changed; athletes without any snapshot are left alone.
func (db *DB) ApplyPassedLift(ctx context.Context, w models.WorkoutRecord) (bool, error) {
	if w.Result != models.Pass || w.Weight <= 0 {
		return false, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+seasonMaxColumns+`
		 FROM season_maxes
		 WHERE team_id = $1 AND athlete_id = $2
		 ORDER BY season_index DESC, created_at DESC
		 LIMIT 1
		 FOR UPDATE`,
		w.TeamID, w.AthleteID)
	snap, err := scanSeasonMax(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	changed, err := snap.RaiseMax(w.Exercise, w.Weight)
	if err != nil || !changed {
		return false, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE season_maxes SET bench_max = $2, squat_max = $3, power_clean_max = $4, total = $5
		 WHERE id = $1`,
		snap.ID, snap.BenchMax, snap.SquatMax, snap.PowerCleanMax, snap.Total); err != nil {
		return false, fmt.Errorf("updating season max: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing season max: %w", err)
	}
	return true, nil
}

// RebuildSeasonIndexes recomputes training year, season index and total
// for every snapshot of a team. Returns the number of rows corrected.
func (db *DB) RebuildSeasonIndexes(ctx context.Context, teamID uuid.UUID) (int, error) {
	snaps, err := db.ListSeasonMaxes(ctx, teamID, nil)
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, s := range snaps {
		before := s
		if err := s.Normalize(); err != nil {
			return 0, fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
		if before.TrainingYear == s.TrainingYear && before.SeasonIndex == s.SeasonIndex && before.Total == s.Total {
			continue
		}
		batch.Queue(
			`UPDATE season_maxes SET training_year = $2, season_index = $3, total = $4 WHERE id = $1`,
			s.ID, s.TrainingYear, s.SeasonIndex, s.Total)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	if err := db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("rebuilding season indexes: %w", err)
	}
	return batch.Len(), nil
}

func scanSeasonMax(row pgx.Row) (*models.SeasonMaxSnapshot, error) {
	var (
		s    models.SeasonMaxSnapshot
		name string
	)
	if err := row.Scan(&s.ID, &s.TeamID, &s.AthleteID, &s.AthleteName, &name, &s.Year, &s.TrainingYear,
		&s.SeasonIndex, &s.BenchMax, &s.SquatMax, &s.PowerCleanMax, &s.Total, &s.Bodyweight, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning season max: %w", err)
	}
	s.Season = season.Season(name)
	return &s, nil
}
