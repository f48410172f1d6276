package prescription

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/claude/teamlift/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSetsBox2(t *testing.T) {
	lib := DefaultLibrary()
	box2, ok := lib.Template("Box2")
	require.True(t, ok)

	got := CalculateSets(box2, 200)
	want := []Set{
		{Reps: 10, Weight: 95},
		{Reps: 8, Weight: 110},
		{Reps: 8, Weight: 120},
		{Reps: 8, Weight: 135},
		{Reps: 8, Weight: 150},
		{Reps: 8, Weight: 155},
	}
	assert.Equal(t, want, got)
}

func TestCalculateSetsMaxEntry(t *testing.T) {
	maxT, ok := DefaultLibrary().Template("Max")
	require.True(t, ok)

	sets := CalculateSets(maxT, 237)
	require.Len(t, sets, 6)
	last := sets[len(sets)-1]
	assert.Equal(t, 1, last.Reps)
	assert.Equal(t, 237.0, last.Weight, "MAX set uses the base weight unrounded")
}

func TestCalculateSetsEmptyTemplate(t *testing.T) {
	sets := CalculateSets(Template{}, 300)
	assert.NotNil(t, sets)
	assert.Empty(t, sets)
}

func TestCalculateSetsNegativeBase(t *testing.T) {
	sets := CalculateSets(Template{Entries: []SetEntry{{Reps: 5, Percent: Of(0.5)}}}, -100)
	require.Len(t, sets, 1)
	assert.Equal(t, -50.0, sets[0].Weight)
}

func TestCalculateSetsProperties(t *testing.T) {
	lib := DefaultLibrary()
	faker := gofakeit.New(7)
	for i := 0; i < 300; i++ {
		name := lib.Names()[faker.IntRange(0, len(lib.Names())-1)]
		tmpl, _ := lib.Template(name)
		base := float64(faker.IntRange(45, 600))

		sets := CalculateSets(tmpl, base)
		require.Len(t, sets, len(tmpl.Entries))
		for j, s := range sets {
			assert.Equal(t, tmpl.Entries[j].Reps, s.Reps)
			if tmpl.Entries[j].Percent.Max {
				assert.Equal(t, base, s.Weight)
				continue
			}
			assert.Zero(t, math.Mod(s.Weight, RoundingUnit), "%s set %d weight %v", name, j, s.Weight)
		}
	}
}

func TestCalculateSetsDeterministic(t *testing.T) {
	box4, _ := DefaultLibrary().Template("Box4")
	assert.Equal(t, CalculateSets(box4, 315), CalculateSets(box4, 315))
}

func TestLibraryNames(t *testing.T) {
	assert.Equal(t,
		[]string{"Box1", "Box2", "Box3", "Box4", "Box5", "Box6", "Max"},
		DefaultLibrary().Names())
}

func TestLoadLibraryRejectsNonPositiveReps(t *testing.T) {
	_, err := LoadLibrary([]byte("templates:\n  Bad:\n    - {reps: 0, percent: 0.5}\n"))
	assert.Error(t, err)
}

func TestForSelection(t *testing.T) {
	lib := DefaultLibrary()

	tmpl, err := lib.ForSelection(models.BoxSelection(3))
	require.NoError(t, err)
	assert.Equal(t, "Box3", tmpl.Name)

	tmpl, err = lib.ForSelection(models.MaxSelection())
	require.NoError(t, err)
	assert.Equal(t, "Max", tmpl.Name)

	tmpl, err = lib.ForSelection(models.PercentSelection(75))
	require.NoError(t, err)
	assert.Equal(t, "Percentage", tmpl.Name)
	require.Len(t, tmpl.Entries, 1)
	assert.Equal(t, 10, tmpl.Entries[0].Reps)
	assert.InDelta(t, 0.75, tmpl.Entries[0].Percent.Fraction, 1e-9)

	_, err = lib.ForSelection(models.BoxSelection(9))
	assert.ErrorIs(t, err, models.ErrInvalidSelection)
}

func TestRepsForIntensity(t *testing.T) {
	tests := map[int]int{100: 1, 95: 3, 85: 6, 75: 10, 65: 14, 55: 20, 25: 20}
	for pct, want := range tests {
		assert.Equal(t, want, RepsForIntensity(pct), "pct %d", pct)
	}
}

func TestPercentJSON(t *testing.T) {
	data, err := json.Marshal([]SetEntry{{Reps: 1, Percent: MaxPercent}, {Reps: 5, Percent: Of(0.8)}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"reps":1,"percent":"MAX"},{"reps":5,"percent":0.8}]`, string(data))

	var entries []SetEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.True(t, entries[0].Percent.Max)
	assert.Equal(t, 0.8, entries[1].Percent.Fraction)
}

func TestRecommendWorkingWeight(t *testing.T) {
	tests := []struct {
		name    string
		in      LoadInputs
		wantPct float64
		wantW   float64
	}{
		{"standard", LoadInputs{Max: 200, Day: TrainingDay, Risk: models.Stable}, 0.75, 150},
		{"max day", LoadInputs{Max: 200, Day: MaxDay}, 0.90, 180},
		{"deload", LoadInputs{Max: 200, Day: DeloadDay}, 0.60, 120},
		{"warning risk", LoadInputs{Max: 200, Risk: models.Warning}, 0.70, 140},
		{"everything bad", LoadInputs{Max: 200, Day: DeloadDay, Risk: models.Critical, FailRate: 0.6, Declining: true}, 0.50, 100},
		{"critical and declining", LoadInputs{Max: 300, Risk: models.Critical, Declining: true}, 0.60, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := RecommendWorkingWeight(tt.in)
			require.True(t, ok)
			assert.InDelta(t, tt.wantPct, rec.Percent, 1e-9)
			assert.Equal(t, tt.wantW, rec.Weight)
		})
	}

	_, ok := RecommendWorkingWeight(LoadInputs{Max: 0})
	assert.False(t, ok)
}
