package season

import (
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingYear(t *testing.T) {
	tests := []struct {
		season Season
		year   int
		want   int
	}{
		{Summer, 2024, 2024},
		{Fall, 2024, 2024},
		{Winter, 2025, 2024},
		{Spring, 2025, 2024},
	}
	for _, tt := range tests {
		t.Run(string(tt.season), func(t *testing.T) {
			got, err := TrainingYear(tt.season, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndexChronological(t *testing.T) {
	order := []struct {
		season Season
		year   int
	}{
		{Summer, 2024}, {Fall, 2024}, {Winter, 2025}, {Spring, 2025}, {Summer, 2025}, {Fall, 2025},
	}
	prev := 0
	for _, o := range order {
		idx, err := Index(o.season, o.year)
		require.NoError(t, err)
		assert.Greater(t, idx, prev, "%s %d", o.season, o.year)
		prev = idx
	}

	idx, err := Index(Fall, 2024)
	require.NoError(t, err)
	assert.Equal(t, 20242, idx)
}

func TestIndexMonotonicRandom(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 200; i++ {
		year := faker.IntRange(1990, 2090)
		a := All[faker.IntRange(0, 3)]
		b := All[faker.IntRange(0, 3)]

		ia, err := Index(a, year)
		require.NoError(t, err)
		next, err := Index(b, year+1)
		require.NoError(t, err)

		tyA, _ := TrainingYear(a, year)
		tyB, _ := TrainingYear(b, year+1)
		if tyA < tyB || (tyA == tyB && a.Ordinal() < b.Ordinal()) {
			assert.Less(t, ia, next)
		}
	}
}

func TestUnknownSeason(t *testing.T) {
	_, err := Index(Season("Monsoon"), 2024)
	assert.True(t, errors.Is(err, ErrUnknownSeason))

	_, err = Parse("autumn")
	assert.ErrorIs(t, err, ErrUnknownSeason)
}

func TestParse(t *testing.T) {
	s, err := Parse("  winter ")
	require.NoError(t, err)
	assert.Equal(t, Winter, s)
}

func TestFromIndexRoundTrip(t *testing.T) {
	for _, s := range All {
		idx, err := Index(s, 2026)
		require.NoError(t, err)
		gotSeason, gotYear, err := FromIndex(idx)
		require.NoError(t, err)
		assert.Equal(t, s, gotSeason)
		assert.Equal(t, 2026, gotYear)
	}

	_, _, err := FromIndex(20245)
	assert.ErrorIs(t, err, ErrUnknownSeason)
	assert.Equal(t, "Winter 2025", Label(20243))
}

func TestAt(t *testing.T) {
	tests := []struct {
		date       time.Time
		wantSeason Season
		wantYear   int
	}{
		{time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC), Summer, 2024},
		{time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), Fall, 2024},
		{time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC), Winter, 2025},
		{time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), Winter, 2025},
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), Spring, 2025},
	}
	for _, tt := range tests {
		s, y := At(tt.date)
		assert.Equal(t, tt.wantSeason, s, tt.date.String())
		assert.Equal(t, tt.wantYear, y, tt.date.String())
	}

	// December and the following January share a training year.
	decIdx, _ := Index(At(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)))
	janIdx, _ := Index(At(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, decIdx, janIdx)
}

func TestSortStable(t *testing.T) {
	type snap struct {
		name string
		idx  int
	}
	items := []snap{{"c", 20243}, {"a", 20241}, {"b", 20243}, {"d", 20242}}
	Sort(items, func(s snap) int { return s.idx })
	assert.Equal(t, []snap{{"a", 20241}, {"d", 20242}, {"c", 20243}, {"b", 20243}}, items)
}

func TestPrevious(t *testing.T) {
	// Fall 2024 has no data, so Winter 2025 reaches back to Summer 2024.
	indexes := []int{20241, 20243, 20244}
	prev, ok := Previous(indexes, 20243)
	require.True(t, ok)
	assert.Equal(t, 20241, prev)

	_, ok = Previous(indexes, 20241)
	assert.False(t, ok)
}
