package maxcsv

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
	"github.com/claude/teamlift/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const sampleCSV = `name,season,year,bench,squat,powerClean
Jane Doe,Fall,2024,135,225,155
  JOHN smith ,winter,2025,185,315,
Ghost,Fall,2024,100,100,100
Bad,Autumn,2024,1,2,3
Short,Fall
`

type fakeStore struct {
	roster  []models.RosterEntry
	snaps   []models.SeasonMaxSnapshot
	logs    map[int64]storage.ImportLog
	nextID  int64
	listErr error
}

func (f *fakeStore) ListRoster(_ context.Context, teamID uuid.UUID) ([]models.RosterEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.RosterEntry
	for _, e := range f.roster {
		if e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertSeasonMax(_ context.Context, s models.SeasonMaxSnapshot) error {
	f.snaps = append(f.snaps, s)
	return nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	if f.logs == nil {
		f.logs = map[int64]storage.ImportLog{}
	}
	f.nextID++
	f.logs[f.nextID] = log
	return f.nextID, nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, id int64, log storage.ImportLog) error {
	prev := f.logs[id]
	log.TeamID = prev.TeamID
	log.Source = prev.Source
	f.logs[id] = log
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	rows, err := Parse(strings.NewReader(sampleCSV))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, season.ErrUnknownSeason)

	require.Len(t, rows, 3)
	assert.Equal(t, Row{Line: 2, Name: "Jane Doe", Season: season.Fall, Year: 2024, Bench: 135, Squat: 225, PowerClean: 155}, rows[0])
	assert.Equal(t, "JOHN smith", rows[1].Name)
	assert.Equal(t, season.Winter, rows[1].Season)
	assert.Zero(t, rows[1].PowerClean, "blank cell counts as 0")
}

func TestParseHeaderOnly(t *testing.T) {
	rows, err := Parse(strings.NewReader("name,season,year,bench,squat,powerClean\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseRejectsNegativeWeight(t *testing.T) {
	_, err := Parse(strings.NewReader("h\nA,Fall,2024,-5,0,0\n"))
	assert.ErrorContains(t, err, "invalid weight")
}

func TestMatch(t *testing.T) {
	team := uuid.New()
	jane := models.RosterEntry{ID: uuid.New(), TeamID: team, DisplayName: "Jane Doe"}
	rows := []Row{
		{Line: 2, Name: " jane doe", Season: season.Spring, Year: 2025, Bench: 100, Squat: 200, PowerClean: 150},
		{Line: 3, Name: "Nobody", Season: season.Fall, Year: 2024},
	}

	snaps, unmatched, err := Match([]models.RosterEntry{jane}, rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nobody"}, unmatched)
	require.Len(t, snaps, 1)

	s := snaps[0]
	assert.Equal(t, jane.ID, s.AthleteID)
	assert.Equal(t, team, s.TeamID)
	assert.Equal(t, "Jane Doe", s.AthleteName)
	assert.Equal(t, 450.0, s.Total)
	assert.Equal(t, 2024, s.TrainingYear)
	assert.Equal(t, 20244, s.SeasonIndex)
}

func TestProviderIngest(t *testing.T) {
	team := uuid.New()
	store := &fakeStore{roster: []models.RosterEntry{
		{ID: uuid.New(), TeamID: team, DisplayName: "Jane Doe"},
		{ID: uuid.New(), TeamID: team, DisplayName: "John Smith"},
	}}
	p := NewProvider(store, discardLogger())

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), team, "upload")
	require.NoError(t, err)
	assert.Equal(t, 5, res.RowsReceived)
	assert.Equal(t, 2, res.RowsImported)
	assert.Equal(t, 3, res.RowsFailed)
	assert.Equal(t, []string{"Ghost"}, res.Unmatched)
	assert.Len(t, res.Errors, 2)
	assert.Len(t, store.snaps, 2)

	require.Len(t, store.logs, 1)
	entry := store.logs[1]
	assert.Equal(t, "partial", entry.Status)
	assert.Equal(t, team, entry.TeamID)
	assert.Equal(t, "upload", entry.Source)
	assert.Equal(t, 2, entry.RowsImported)
	require.NotNil(t, entry.DurationMs)
	require.NotNil(t, entry.Metadata)
	assert.Contains(t, string(*entry.Metadata), "Ghost")
}

func TestProviderIngestRosterFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	p := NewProvider(store, discardLogger())

	_, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), uuid.New(), "upload")
	require.Error(t, err)

	entry := store.logs[1]
	assert.Equal(t, "error", entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "connection refused")
}
