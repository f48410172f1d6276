package leaderboard

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T, athlete uuid.UUID, name string, s season.Season, year int, bench, squat, clean float64) models.SeasonMaxSnapshot {
	t.Helper()
	snap, err := models.NewSeasonMaxSnapshot(athlete, name, s, year, bench, squat, clean)
	require.NoError(t, err)
	return snap
}

func ptr(f float64) *float64 { return &f }

func TestRank(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	snaps := []models.SeasonMaxSnapshot{
		snapshot(t, a, "A", season.Fall, 2024, 200, 300, 150),
		snapshot(t, b, "B", season.Fall, 2024, 250, 250, 150),
		snapshot(t, c, "C", season.Fall, 2024, 0, 400, 0),
	}

	byTotal := Rank(snaps, Total)
	assert.Equal(t, []string{"A", "B", "C"}, names(byTotal))

	byBench := Rank(snaps, Bench)
	assert.Equal(t, []string{"B", "A", "C"}, names(byBench))

	bySquat := Rank(snaps, Squat)
	assert.Equal(t, "C", bySquat[0].AthleteName)

	// Input is not reordered.
	assert.Equal(t, "A", snaps[0].AthleteName)
}

func TestRankRandomDescending(t *testing.T) {
	faker := gofakeit.New(5)
	var snaps []models.SeasonMaxSnapshot
	for i := 0; i < 40; i++ {
		snaps = append(snaps, snapshot(t, uuid.New(), faker.Name(), season.Spring, 2025,
			float64(faker.IntRange(0, 80)*5), float64(faker.IntRange(0, 100)*5), float64(faker.IntRange(0, 60)*5)))
	}
	for _, c := range []Category{Total, Bench, Squat, PowerClean} {
		ranked := Rank(snaps, c)
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, c.Value(ranked[i-1]), c.Value(ranked[i]))
		}
	}
}

func names(snaps []models.SeasonMaxSnapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.AthleteName
	}
	return out
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Power Clean")
	require.NoError(t, err)
	assert.Equal(t, PowerClean, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, Total, c)

	_, err = ParseCategory("Deadlift")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestMostImprovedNoCurrentData(t *testing.T) {
	a := uuid.New()
	snaps := []models.SeasonMaxSnapshot{
		snapshot(t, a, "A", season.Fall, 2024, 150, 250, 100),
		snapshot(t, a, "A", season.Winter, 2025, 0, 0, 0),
	}
	got, err := MostImproved(snaps, season.Winter, 2025)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, -500.0, got[0].Diff)
	assert.Nil(t, got[0].Percent, "no data must not read as -100%")
}

func TestMostImprovedSkipsEmptySeasons(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	snaps := []models.SeasonMaxSnapshot{
		// Fall 2024 has no records at all.
		snapshot(t, a, "A", season.Summer, 2024, 100, 200, 100),
		snapshot(t, b, "B", season.Summer, 2024, 150, 250, 100),
		snapshot(t, a, "A", season.Winter, 2025, 110, 220, 100),
		snapshot(t, b, "B", season.Winter, 2025, 200, 300, 100),
		snapshot(t, c, "C", season.Winter, 2025, 300, 400, 200),
	}
	got, err := MostImproved(snaps, season.Winter, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, 100.0, got[0].Diff)
	require.NotNil(t, got[0].Percent)
	assert.Equal(t, 20.0, *got[0].Percent)

	assert.Equal(t, "A", got[1].Name)
	assert.Equal(t, 30.0, got[1].Diff)
	assert.Equal(t, 7.5, *got[1].Percent)

	idx, _ := season.Index(season.Summer, 2024)
	assert.Equal(t, idx, got[0].PreviousIndex)
}

func TestMostImprovedNoPreviousSeason(t *testing.T) {
	snaps := []models.SeasonMaxSnapshot{snapshot(t, uuid.New(), "A", season.Summer, 2024, 1, 1, 1)}
	got, err := MostImproved(snaps, season.Summer, 2024)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = MostImproved(snaps, "Monsoon", 2024)
	assert.ErrorIs(t, err, season.ErrUnknownSeason)
}

func TestPercentRoundedToOneDecimal(t *testing.T) {
	prev := models.SeasonMaxSnapshot{Total: 300}
	cur := models.SeasonMaxSnapshot{Total: 301}
	imp := improvement(prev, cur)
	require.NotNil(t, imp.Percent)
	assert.Equal(t, 0.3, *imp.Percent)
}

func TestCompareYearOverYear(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	snaps := []models.SeasonMaxSnapshot{
		snapshot(t, a, "A", season.Fall, 2023, 100, 100, 100),
		snapshot(t, a, "A", season.Fall, 2024, 120, 120, 100),
		snapshot(t, b, "B", season.Fall, 2024, 300, 300, 300),
	}
	rows, err := CompareYearOverYear(snaps, season.Fall, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A", rows[0].Snapshot.AthleteName)
	require.NotNil(t, rows[0].Improvement)
	assert.Equal(t, 40.0, *rows[0].Improvement)
	assert.Nil(t, rows[1].Improvement)
}

func TestCompare(t *testing.T) {
	a := uuid.New()
	snaps := []models.SeasonMaxSnapshot{
		snapshot(t, a, "A", season.Spring, 2024, 100, 200, 100),
		snapshot(t, a, "A", season.Spring, 2025, 120, 220, 110),
	}
	cmp, err := Compare(snaps, a, season.Spring, 2024, 2025)
	require.NoError(t, err)
	require.NotNil(t, cmp.Diff)
	assert.Equal(t, 50.0, *cmp.Diff)

	cmp, err = Compare(snaps, a, season.Spring, 2023, 2025)
	require.NoError(t, err)
	assert.Nil(t, cmp.A)
	assert.Nil(t, cmp.Diff)
}

func TestWeightClass(t *testing.T) {
	tests := []struct {
		bw   *float64
		want string
	}{
		{nil, "Unknown"},
		{ptr(120), "132"},
		{ptr(132), "132"},
		{ptr(132.5), "145"},
		{ptr(219), "220"},
		{ptr(265), "220+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeightClass(tt.bw))
	}

	heavy := snapshot(t, uuid.New(), "H", season.Fall, 2024, 1, 1, 1)
	heavy.Bodyweight = ptr(250)
	light := snapshot(t, uuid.New(), "L", season.Fall, 2024, 1, 1, 1)
	light.Bodyweight = ptr(130)
	got := FilterWeightClass([]models.SeasonMaxSnapshot{heavy, light}, "220+")
	assert.Equal(t, []string{"H"}, names(got))
}

func TestAthleteHistory(t *testing.T) {
	a := uuid.New()
	snaps := []models.SeasonMaxSnapshot{
		snapshot(t, a, "A", season.Winter, 2025, 150, 250, 120),
		snapshot(t, a, "A", season.Summer, 2024, 100, 200, 100),
		snapshot(t, a, "A", season.Fall, 2024, 140, 240, 120),
		snapshot(t, a, "A", season.Spring, 2025, 145, 245, 120),
	}

	h := AthleteHistory(snaps)
	require.Len(t, h.Entries, 4)
	assert.Equal(t, "Summer 2024", h.Entries[0].Label)
	assert.Equal(t, "Spring 2025", h.Entries[3].Label)

	assert.False(t, h.Entries[0].PR)
	assert.True(t, h.Entries[1].PR)
	assert.True(t, h.Entries[2].PR)
	assert.False(t, h.Entries[3].PR)

	require.NotNil(t, h.CareerBest)
	assert.Equal(t, 520.0, h.CareerBest.Total)

	require.NotNil(t, h.BiggestGain)
	assert.Equal(t, 100.0, h.BiggestGain.Amount)
	assert.Equal(t, "Summer 2024", h.BiggestGain.From)
	assert.Equal(t, "Fall 2024", h.BiggestGain.To)

	require.NotNil(t, h.PercentChange)
	// 510 vs 520
	assert.Equal(t, -2, *h.PercentChange)
}

func TestAthleteHistoryEdgeCases(t *testing.T) {
	h := AthleteHistory(nil)
	assert.Empty(t, h.Entries)
	assert.Nil(t, h.Latest)

	a := uuid.New()
	h = AthleteHistory([]models.SeasonMaxSnapshot{
		snapshot(t, a, "A", season.Summer, 2024, 0, 0, 0),
		snapshot(t, a, "A", season.Fall, 2024, 100, 100, 100),
	})
	assert.Nil(t, h.PercentChange, "previous total of zero has no percent change")
	require.NotNil(t, h.BiggestGain)
	assert.Equal(t, 300.0, h.BiggestGain.Amount)
}
