package periodization

import (
	"testing"

	"github.com/claude/teamlift/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTwelveWeeks(t *testing.T) {
	blocks, err := Generate(Params{SeasonLength: 12, Level: Intermediate, Emphasis: models.Squat})
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	lengths := []int{}
	for _, b := range blocks {
		lengths = append(lengths, len(b.Weeks))
	}
	assert.Equal(t, []int{3, 3, 3, 3}, lengths)

	assert.Equal(t, "Volume", blocks[0].Name)
	assert.Equal(t, 1, blocks[0].StartWeek)
	assert.Equal(t, 3, blocks[0].EndWeek)
	assert.Equal(t, 10, blocks[3].Weeks[0].Week)

	first := blocks[0].Weeks[0].Targets
	assert.Equal(t, 65.0, first[models.Bench])
	assert.Equal(t, 70.0, first[models.Squat], "squat +2 and emphasis +3")
	assert.Equal(t, 63.0, first[models.PowerClean])

	intensity := blocks[2].Weeks[2].Targets
	assert.Equal(t, 88.0, intensity[models.Bench])
}

func TestGenerateCoversEveryWeek(t *testing.T) {
	for length := 1; length <= 30; length++ {
		blocks, err := Generate(Params{SeasonLength: length})
		require.NoError(t, err)
		week := 1
		for _, b := range blocks {
			for _, w := range b.Weeks {
				assert.Equal(t, week, w.Week, "length %d", length)
				week++
			}
		}
		assert.Equal(t, length+1, week)
	}
}

func TestGenerateInvalid(t *testing.T) {
	_, err := Generate(Params{SeasonLength: 0})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = Generate(Params{SeasonLength: 8, Emphasis: "Deadlift"})
	assert.ErrorIs(t, err, models.ErrUnknownExercise)
}
