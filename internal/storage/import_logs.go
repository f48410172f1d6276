package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportLog represents a single season-max import's outcome.
type ImportLog struct {
	ID           int64            `json:"id"`
	TeamID       uuid.UUID        `json:"team_id"`
	CreatedAt    time.Time        `json:"created_at"`
	Source       string           `json:"source"`
	Status       string           `json:"status"`
	RowsReceived int              `json:"rows_received"`
	RowsImported int              `json:"rows_imported"`
	RowsFailed   int              `json:"rows_failed"`
	DurationMs   *int             `json:"duration_ms"`
	ErrorMessage *string          `json:"error_message"`
	Metadata     *json.RawMessage `json:"metadata"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (team_id, source, status, rows_received, rows_imported,
		 rows_failed, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		log.TeamID, log.Source, log.Status, log.RowsReceived, log.RowsImported,
		log.RowsFailed, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, rows_received = $3, rows_imported = $4, rows_failed = $5,
		 duration_ms = $6, error_message = $7, metadata = $8
		 WHERE id = $1`,
		id, log.Status, log.RowsReceived, log.RowsImported, log.RowsFailed,
		log.DurationMs, log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs for a team.
func (db *DB) QueryImportLogs(ctx context.Context, teamID uuid.UUID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, team_id, created_at, source, status, rows_received, rows_imported,
		 rows_failed, duration_ms, error_message, metadata
		 FROM import_logs
		 WHERE team_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	result := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.TeamID, &l.CreatedAt, &l.Source, &l.Status,
			&l.RowsReceived, &l.RowsImported, &l.RowsFailed,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
