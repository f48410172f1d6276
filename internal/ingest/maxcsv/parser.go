// Package maxcsv imports season maxes from a coach's spreadsheet export.
//
// The expected layout is one header line followed by rows of
//
//	name,season,year,bench,squat,powerClean
//
// Blank lift cells count as 0.
package maxcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/claude/teamlift/internal/season"
	"go.uber.org/multierr"
)

const columns = 6

// Row is one parsed line of a season-max export.
type Row struct {
	Line       int
	Name       string
	Season     season.Season
	Year       int
	Bench      float64
	Squat      float64
	PowerClean float64
}

// Parse reads an export and returns the rows it could parse. Malformed rows
// are skipped; their problems are combined into the returned error, which
// is non-nil even when some rows parsed.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		rows   []Row
		errs   error
		header = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, multierr.Append(errs, fmt.Errorf("reading CSV: %w", err))
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRecord(rec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, errs
}

func parseRecord(rec []string) (Row, error) {
	if len(rec) < columns {
		return Row{}, fmt.Errorf("expected %d columns, got %d", columns, len(rec))
	}
	name := strings.TrimSpace(rec[0])
	if name == "" {
		return Row{}, errors.New("missing athlete name")
	}
	s, err := season.Parse(rec[1])
	if err != nil {
		return Row{}, err
	}
	year, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		return Row{}, fmt.Errorf("invalid year %q", rec[2])
	}

	var lifts [3]float64
	for i, raw := range rec[3:columns] {
		if lifts[i], err = parseWeight(raw); err != nil {
			return Row{}, err
		}
	}
	return Row{
		Name:       name,
		Season:     s,
		Year:       year,
		Bench:      lifts[0],
		Squat:      lifts[1],
		PowerClean: lifts[2],
	}, nil
}

func parseWeight(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid weight %q", raw)
	}
	return w, nil
}
