package leaderboard

import (
	"math"
	"slices"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
)

// Gain is the change in total between two consecutive recorded seasons.
type Gain struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// HistoryEntry is one season in an athlete's history.
type HistoryEntry struct {
	Label    string                   `json:"label"`
	Snapshot models.SeasonMaxSnapshot `json:"snapshot"`
	PR       bool                     `json:"pr"`
}

// History is an athlete's season maxes in chronological order.
type History struct {
	Entries       []HistoryEntry            `json:"entries"`
	Latest        *models.SeasonMaxSnapshot `json:"latest"`
	Previous      *models.SeasonMaxSnapshot `json:"previous"`
	PercentChange *int                      `json:"percent_change"`
	BiggestGain   *Gain                     `json:"biggest_gain"`
	CareerBest    *models.SeasonMaxSnapshot `json:"career_best"`
}

// AthleteHistory orders one athlete's snapshots by season and marks the
// seasons whose total beat every earlier season.
func AthleteHistory(snapshots []models.SeasonMaxSnapshot) *History {
	sorted := slices.Clone(snapshots)
	season.Sort(sorted, func(s models.SeasonMaxSnapshot) int { return s.SeasonIndex })

	h := &History{Entries: make([]HistoryEntry, 0, len(sorted))}
	if len(sorted) == 0 {
		return h
	}

	best := math.Inf(-1)
	for i, s := range sorted {
		entry := HistoryEntry{Label: season.Label(s.SeasonIndex), Snapshot: s}
		if i > 0 && s.Total > best {
			entry.PR = true
		}
		if s.Total > best {
			best = s.Total
			h.CareerBest = &sorted[i]
		}
		h.Entries = append(h.Entries, entry)

		if i > 0 {
			amount := s.Total - sorted[i-1].Total
			if amount > 0 && (h.BiggestGain == nil || amount > h.BiggestGain.Amount) {
				h.BiggestGain = &Gain{
					From:   season.Label(sorted[i-1].SeasonIndex),
					To:     entry.Label,
					Amount: amount,
				}
			}
		}
	}

	h.Latest = &sorted[len(sorted)-1]
	if len(sorted) > 1 {
		h.Previous = &sorted[len(sorted)-2]
		if h.Previous.Total > 0 {
			pct := int(math.Round((h.Latest.Total - h.Previous.Total) / h.Previous.Total * 100))
			h.PercentChange = &pct
		}
	}
	return h
}
