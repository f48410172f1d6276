package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/prescription"
	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	roster   []models.RosterEntry
	workouts []models.WorkoutRecord
	maxes    []models.SeasonMaxSnapshot
	err      error

	lastSince time.Time
}

func (f *fakeSource) ListRoster(context.Context, uuid.UUID) ([]models.RosterEntry, error) {
	return f.roster, f.err
}

func (f *fakeSource) ListWorkouts(_ context.Context, _ uuid.UUID, athleteID *uuid.UUID, since time.Time) ([]models.WorkoutRecord, error) {
	f.lastSince = since
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WorkoutRecord
	for _, w := range f.workouts {
		if athleteID == nil || w.AthleteID == *athleteID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeSource) ListSeasonMaxes(context.Context, uuid.UUID, *uuid.UUID) ([]models.SeasonMaxSnapshot, error) {
	return f.maxes, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{
		ds:        ds,
		templates: prescription.DefaultLibrary(),
		log:       discardLogger(),
		now:       func() time.Time { return testNow },
	}
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

func TestTeamAnalyticsRequiresTeam(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.getTeamAnalytics(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "team_id")
}

func TestTeamAnalyticsUsesSessionTeam(t *testing.T) {
	athlete := uuid.New()
	ds := &fakeSource{workouts: []models.WorkoutRecord{
		{ID: uuid.New(), AthleteID: athlete, AthleteName: "Alice", Exercise: models.Squat, Weight: 225, Result: models.Pass, CreatedAt: testNow.AddDate(0, 0, -2)},
		{ID: uuid.New(), AthleteID: athlete, AthleteName: "Alice", Exercise: models.Squat, Weight: 235, Result: models.Fail, CreatedAt: testNow.AddDate(0, 0, -1)},
	}}
	h := newHandlers(ds)
	ctx := WithTeamID(context.Background(), uuid.New())

	res, err := h.getTeamAnalytics(ctx, callReq(map[string]any{"days": 14}))
	require.NoError(t, err)

	out := decodeResult[map[string]any](t, res)
	assert.EqualValues(t, 14, out["window_days"])
	assert.EqualValues(t, 2, out["attempts"])
	assert.EqualValues(t, 50, out["pass_rate"])
	assert.Equal(t, testNow.AddDate(0, 0, -14), ds.lastSince)
}

func TestTeamAnalyticsQueryError(t *testing.T) {
	h := newHandlers(&fakeSource{err: errors.New("connection refused")})
	res, err := h.getTeamAnalytics(context.Background(), callReq(map[string]any{"team_id": uuid.NewString()}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "connection refused")
}

func TestAthleteAnalytics(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	ds := &fakeSource{workouts: []models.WorkoutRecord{
		{ID: uuid.New(), AthleteID: alice, Exercise: models.Bench, Weight: 135, Result: models.Pass, CreatedAt: testNow.AddDate(0, 0, -3)},
		{ID: uuid.New(), AthleteID: alice, Exercise: models.Bench, Weight: 145, Result: models.Pass, CreatedAt: testNow.AddDate(0, 0, -1)},
		{ID: uuid.New(), AthleteID: bob, Exercise: models.Bench, Weight: 95, Result: models.Fail, CreatedAt: testNow.AddDate(0, 0, -1)},
	}}
	h := newHandlers(ds)

	res, err := h.getAthleteAnalytics(context.Background(), callReq(map[string]any{
		"team_id":    uuid.NewString(),
		"athlete_id": alice.String(),
	}))
	require.NoError(t, err)

	out := decodeResult[map[string]any](t, res)
	assert.EqualValues(t, 2, out["attempts"])
	assert.EqualValues(t, 100, out["pass_rate"])
	assert.True(t, ds.lastSince.IsZero())

	res, err = h.getAthleteAnalytics(context.Background(), callReq(map[string]any{
		"team_id":    uuid.NewString(),
		"athlete_id": "nope",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func snapshot(t *testing.T, name string, s season.Season, year int, bench, squat, clean float64) models.SeasonMaxSnapshot {
	t.Helper()
	snap, err := models.NewSeasonMaxSnapshot(uuid.New(), name, s, year, bench, squat, clean)
	require.NoError(t, err)
	return snap
}

type leaderboardResult struct {
	Category string           `json:"category"`
	Entries  []rankedSnapshot `json:"entries"`
}

func TestLeaderboardDefaultsToCurrentSeason(t *testing.T) {
	cur, year := season.At(testNow)
	ds := &fakeSource{maxes: []models.SeasonMaxSnapshot{
		snapshot(t, "Alice", cur, year, 200, 300, 180),
		snapshot(t, "Bob", cur, year, 250, 350, 200),
		snapshot(t, "Old", cur, year-1, 400, 500, 300),
	}}
	h := newHandlers(ds)

	res, err := h.getLeaderboard(WithTeamID(context.Background(), uuid.New()), callReq(nil))
	require.NoError(t, err)

	out := decodeResult[leaderboardResult](t, res)
	assert.Equal(t, "Total", out.Category)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, "Bob", out.Entries[0].Name)
	assert.Equal(t, 1, out.Entries[0].Rank)
	assert.InDelta(t, 800, out.Entries[0].Value, 0.001)
	assert.Equal(t, "Unknown", out.Entries[0].WeightClass)
}

func TestLeaderboardRejectsUnknownCategory(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.getLeaderboard(WithTeamID(context.Background(), uuid.New()), callReq(map[string]any{"category": "Deadlift"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMostImproved(t *testing.T) {
	athlete := uuid.New()
	prev, err := models.NewSeasonMaxSnapshot(athlete, "Alice", season.Summer, 2025, 200, 300, 180)
	require.NoError(t, err)
	cur, err := models.NewSeasonMaxSnapshot(athlete, "Alice", season.Fall, 2025, 210, 320, 185)
	require.NoError(t, err)
	h := newHandlers(&fakeSource{maxes: []models.SeasonMaxSnapshot{prev, cur}})

	res, err := h.getMostImproved(WithTeamID(context.Background(), uuid.New()), callReq(map[string]any{
		"season": "Fall",
		"year":   2025,
	}))
	require.NoError(t, err)

	out := decodeResult[[]map[string]any](t, res)
	require.Len(t, out, 1)
	assert.InDelta(t, 35, out[0]["diff"].(float64), 0.001)
}

type setsResult struct {
	Template string             `json:"template"`
	Sets     []prescription.Set `json:"sets"`
}

func TestCalculateSets(t *testing.T) {
	h := newHandlers(&fakeSource{})

	res, err := h.calculateSets(context.Background(), callReq(map[string]any{
		"exercise":    "Bench",
		"selection":   "Box 1",
		"base_weight": 200.0,
	}))
	require.NoError(t, err)

	out := decodeResult[setsResult](t, res)
	assert.Equal(t, "Box1", out.Template)
	require.Len(t, out.Sets, 5)
	for _, s := range out.Sets {
		assert.Equal(t, 10, s.Reps)
		assert.Zero(t, int(s.Weight)%5, "weight %v not a multiple of 5", s.Weight)
	}

	res, err = h.calculateSets(context.Background(), callReq(map[string]any{
		"exercise":    "Squat",
		"selection":   "95",
		"base_weight": 300.0,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSeasonIndex(t *testing.T) {
	h := newHandlers(&fakeSource{})

	res, err := h.getSeasonIndex(context.Background(), callReq(map[string]any{"season": "Spring", "year": 2026}))
	require.NoError(t, err)
	out := decodeResult[map[string]any](t, res)

	want, err := season.Index(season.Spring, 2026)
	require.NoError(t, err)
	assert.EqualValues(t, want, out["season_index"])
	assert.Equal(t, "Spring 2026", out["label"])

	res, err = h.getSeasonIndex(context.Background(), callReq(map[string]any{"season": "Monsoon", "year": 2026}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestTemplateResource(t *testing.T) {
	h := newHandlers(&fakeSource{})
	var req mcp.ReadResourceRequest
	req.Params.URI = "teamlift://templates"

	contents, err := h.templateCatalog(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "teamlift://templates", text.URI)

	var templates []prescription.Template
	require.NoError(t, json.Unmarshal([]byte(text.Text), &templates))
	assert.NotEmpty(t, templates)
}
