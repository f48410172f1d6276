// Package season normalizes (season, year) labels into a single sortable
// index so that season-max snapshots can be ordered and compared across
// training years.
//
// A training year begins in Summer of calendar year Y and runs through
// Spring. Winter and Spring are labelled with the calendar year their
// January falls in, so "Winter 2025" belongs to training year 2024.
package season

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrUnknownSeason is returned for season names outside the four known seasons.
var ErrUnknownSeason = errors.New("unknown season")

// Season is one of the four competitive seasons of a training year.
type Season string

const (
	Summer Season = "Summer"
	Fall   Season = "Fall"
	Winter Season = "Winter"
	Spring Season = "Spring"
)

// All lists the seasons in training-year order.
var All = []Season{Summer, Fall, Winter, Spring}

// ordinals is the position of each season within its training year.
var ordinals = map[Season]int{
	Summer: 1,
	Fall:   2,
	Winter: 3,
	Spring: 4,
}

// Parse resolves a season name, ignoring case and surrounding whitespace.
func Parse(name string) (Season, error) {
	trimmed := strings.TrimSpace(name)
	for _, s := range All {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSeason, name)
}

// Ordinal returns the 1-based position of s within a training year, or 0
// when s is not a known season.
func (s Season) Ordinal() int {
	return ordinals[s]
}

// Valid reports whether s is a known season.
func (s Season) Valid() bool {
	_, ok := ordinals[s]
	return ok
}

// TrainingYear returns the training year a labelled season belongs to.
func TrainingYear(s Season, year int) (int, error) {
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSeason, s)
	}
	if s == Winter || s == Spring {
		return year - 1, nil
	}
	return year, nil
}

// Index returns trainingYear*10 + ordinal. Indexes are strictly increasing
// in chronological order.
func Index(s Season, year int) (int, error) {
	ty, err := TrainingYear(s, year)
	if err != nil {
		return 0, err
	}
	return ty*10 + s.Ordinal(), nil
}

// FromIndex inverts Index, returning the season and its labelled calendar year.
func FromIndex(idx int) (Season, int, error) {
	ty, ord := idx/10, idx%10
	if ord < 1 || ord > len(All) {
		return "", 0, fmt.Errorf("%w: index %d", ErrUnknownSeason, idx)
	}
	s := All[ord-1]
	if s == Winter || s == Spring {
		return s, ty + 1, nil
	}
	return s, ty, nil
}

// Label renders an index as "Fall 2024".
func Label(idx int) string {
	s, year, err := FromIndex(idx)
	if err != nil {
		return fmt.Sprintf("season %d", idx)
	}
	return fmt.Sprintf("%s %d", s, year)
}

// At returns the season in progress on t along with its labelled year.
// December opens the Winter season labelled with the following year.
func At(t time.Time) (Season, int) {
	year := t.Year()
	switch t.Month() {
	case time.June, time.July, time.August:
		return Summer, year
	case time.September, time.October, time.November:
		return Fall, year
	case time.December:
		return Winter, year + 1
	case time.January, time.February:
		return Winter, year
	default:
		return Spring, year
	}
}

// Sort orders items by the index returned from key. Equal indexes keep
// their input order.
func Sort[T any](items []T, key func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return key(a) - key(b)
	})
}

// Previous returns the nearest index strictly smaller than current among
// the given indexes. Gaps in the data are skipped over, so the result is
// the closest earlier season that actually has records.
func Previous(indexes []int, current int) (int, bool) {
	best, found := 0, false
	for _, idx := range indexes {
		if idx < current && (!found || idx > best) {
			best, found = idx, true
		}
	}
	return best, found
}
