package maxcsv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/teamlift/internal/ingest"
	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Store is the persistence the importer needs.
type Store interface {
	ListRoster(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error)
	UpsertSeasonMax(ctx context.Context, s models.SeasonMaxSnapshot) error
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// Provider imports season-max exports for a team.
type Provider struct {
	db  Store
	log *slog.Logger
}

// NewProvider creates a new season-max CSV ingest provider.
func NewProvider(db Store, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Match pairs parsed rows with roster entries by display name, ignoring
// case and surrounding whitespace. Rows naming nobody on the roster are
// returned by name in unmatched.
func Match(roster []models.RosterEntry, rows []Row) (snaps []models.SeasonMaxSnapshot, unmatched []string, err error) {
	byName := make(map[string]models.RosterEntry, len(roster))
	for _, e := range roster {
		key := normalizeName(e.DisplayName)
		if _, dup := byName[key]; !dup {
			byName[key] = e
		}
	}

	for _, row := range rows {
		entry, ok := byName[normalizeName(row.Name)]
		if !ok {
			unmatched = append(unmatched, row.Name)
			continue
		}
		snap, serr := models.NewSeasonMaxSnapshot(entry.ID, entry.DisplayName, row.Season, row.Year,
			row.Bench, row.Squat, row.PowerClean)
		if serr != nil {
			err = multierr.Append(err, fmt.Errorf("line %d: %w", row.Line, serr))
			continue
		}
		snap.TeamID = entry.TeamID
		snap.Bodyweight = entry.Bodyweight
		snaps = append(snaps, snap)
	}
	return snaps, unmatched, err
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Ingest parses an export, stores every row that matches the team roster
// and records the outcome in the import log. Row-level problems are
// reported in the result; the returned error is reserved for failures that
// stop the import.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, teamID uuid.UUID, source string) (*ingest.Result, error) {
	start := time.Now()
	logID, err := p.db.InsertImportLog(ctx, storage.ImportLog{
		TeamID: teamID,
		Source: source,
		Status: "running",
	})
	if err != nil {
		p.log.Error("failed to create import log", "team_id", teamID, "error", err)
	}

	result, importErr := p.ingest(ctx, r, teamID)
	p.finish(ctx, logID, result, importErr, time.Since(start))
	if importErr != nil {
		return nil, importErr
	}
	return result, nil
}

func (p *Provider) ingest(ctx context.Context, r io.Reader, teamID uuid.UUID) (*ingest.Result, error) {
	result := &ingest.Result{}

	rows, parseErr := Parse(r)
	roster, err := p.db.ListRoster(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	snaps, unmatched, matchErr := Match(roster, rows)

	result.RowsReceived = len(rows) + len(multierr.Errors(parseErr))
	result.Unmatched = unmatched
	for _, e := range multierr.Errors(multierr.Append(parseErr, matchErr)) {
		result.Errors = append(result.Errors, e.Error())
	}

	for _, snap := range snaps {
		if err := p.db.UpsertSeasonMax(ctx, snap); err != nil {
			return nil, fmt.Errorf("storing %s %s %d: %w", snap.AthleteName, snap.Season, snap.Year, err)
		}
		result.RowsImported++
	}
	result.RowsFailed = result.RowsReceived - result.RowsImported
	result.Message = fmt.Sprintf("imported %d records, failed %d", result.RowsImported, result.RowsFailed)

	p.log.Info("season maxes imported",
		"team_id", teamID,
		"received", result.RowsReceived,
		"imported", result.RowsImported,
		"failed", result.RowsFailed,
	)
	return result, nil
}

// finish finalizes the import log. A zero logID means the log was never
// created and nothing is written.
func (p *Provider) finish(ctx context.Context, logID int64, result *ingest.Result, importErr error, elapsed time.Duration) {
	if logID == 0 {
		return
	}
	durationMs := int(elapsed.Milliseconds())
	entry := storage.ImportLog{
		Status:     "success",
		DurationMs: &durationMs,
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if result != nil {
		entry.RowsReceived = result.RowsReceived
		entry.RowsImported = result.RowsImported
		entry.RowsFailed = result.RowsFailed
		if result.RowsFailed > 0 && importErr == nil {
			entry.Status = "partial"
		}
		metaJSON, _ := json.Marshal(map[string]any{
			"unmatched": result.Unmatched,
			"errors":    result.Errors,
		})
		rawMeta := json.RawMessage(metaJSON)
		entry.Metadata = &rawMeta
	}

	if err := p.db.UpdateImportLog(ctx, logID, entry); err != nil {
		p.log.Error("failed to finalize import log", "log_id", logID, "error", err)
	}
}
