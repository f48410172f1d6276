package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/claude/teamlift/internal/ingest"
	"github.com/claude/teamlift/internal/ingest/maxcsv"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Importer ingests one season-max CSV export. *maxcsv.Provider imports into
// the local database and *Client sends to a remote server.
type Importer interface {
	Ingest(ctx context.Context, r io.Reader, teamID uuid.UUID, source string) (*ingest.Result, error)
}

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesImported int
	FilesSkipped  int
	FilesErrored  int

	RowsReceived int
	RowsImported int
	RowsFailed   int

	Unmatched []string
}

// Uploader walks a CSV file or directory and imports each export that has
// not already been imported unchanged.
type Uploader struct {
	importer Importer
	state    *StateDB
	teamID   uuid.UUID
	root     string
	dryRun   bool
	log      *slog.Logger
	stats    Stats
}

// New creates a new Uploader. importer may be nil in dry-run mode.
func New(importer Importer, state *StateDB, teamID uuid.UUID, root string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		importer: importer,
		state:    state,
		teamID:   teamID,
		root:     root,
		dryRun:   dryRun,
		log:      log,
	}
}

// Run executes the upload pipeline. Per-file failures are counted and
// logged; only a failure to list the input aborts the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, base, err := CSVFiles(u.root)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, base, f); err != nil {
			u.log.Warn("import failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}

	slices.Sort(u.stats.Unmatched)
	u.stats.Unmatched = slices.Compact(u.stats.Unmatched)
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, base, path string) error {
	relPath, err := filepath.Rel(base, path)
	if err != nil {
		relPath = filepath.Base(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	if u.state != nil {
		done, err := u.state.IsImported(u.teamID, relPath, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("state check: %w", err)
		}
		if done {
			u.stats.FilesSkipped++
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if u.dryRun {
		return u.dryRunFile(f, relPath)
	}

	res, err := u.importer.Ingest(ctx, f, u.teamID, "cli:"+relPath)
	if err != nil {
		return err
	}
	u.stats.FilesImported++
	u.stats.RowsReceived += res.RowsReceived
	u.stats.RowsImported += res.RowsImported
	u.stats.RowsFailed += res.RowsFailed
	u.stats.Unmatched = append(u.stats.Unmatched, res.Unmatched...)
	u.log.Info("imported", "file", relPath, "rows", res.RowsImported, "failed", res.RowsFailed)

	// Files with failed rows stay unmarked so a rerun retries them once the
	// roster or the sheet is fixed.
	if u.state != nil && res.RowsFailed == 0 {
		if err := u.state.MarkImported(u.teamID, relPath, info.Size(), hash); err != nil {
			u.log.Warn("state update failed", "file", relPath, "error", err)
		}
	}
	return nil
}

func (u *Uploader) dryRunFile(r io.Reader, relPath string) error {
	rows, err := maxcsv.Parse(r)
	errs := multierr.Errors(err)
	u.stats.RowsReceived += len(rows) + len(errs)
	u.stats.RowsFailed += len(errs)
	u.log.Info("dry-run: would import", "file", relPath, "rows", len(rows), "invalid", len(errs))
	for _, e := range errs {
		u.log.Info("dry-run: invalid row", "file", relPath, "error", e)
	}
	return nil
}

// CSVFiles resolves path to the CSV files to import and the directory
// relative paths are computed from. A directory yields its *.csv files
// (not recursive) in name order.
func CSVFiles(path string) (files []string, base string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, filepath.Dir(path), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	return files, path, nil
}
