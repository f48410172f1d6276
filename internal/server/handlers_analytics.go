package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/teamlift/internal/analytics"
	"github.com/claude/teamlift/internal/charts"
	"github.com/claude/teamlift/internal/leaderboard"
	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
)

func (s *Server) handleTeamAnalytics(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := intParam(r, "days", s.windowDays)
	if err != nil {
		writeError(w, err)
		return
	}
	if days <= 0 {
		writeError(w, fmt.Errorf("%w: days must be positive", errBadRequest))
		return
	}

	now := s.now()
	roster, err := s.db.ListRoster(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	workouts, err := s.db.ListWorkouts(r.Context(), teamID, nil, now.AddDate(0, 0, -days))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := analytics.AggregateTeam(workouts, roster, days, now)
	if err != nil {
		s.log.Error("team analytics failed", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAthleteAnalytics(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	athleteID, err := uuidParam(r, "athleteID")
	if err != nil {
		writeError(w, err)
		return
	}

	athlete, err := s.db.GetRosterEntry(r.Context(), teamID, athleteID)
	if err != nil {
		writeError(w, err)
		return
	}
	workouts, err := s.db.ListWorkouts(r.Context(), teamID, &athleteID, time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := analytics.AnalyzeAthlete(workouts)
	if err != nil {
		s.log.Error("athlete analytics failed", "athlete_id", athleteID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"athlete":   athlete,
		"analytics": result,
	})
}

func (s *Server) handleAthleteHistory(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	athleteID, err := uuidParam(r, "athleteID")
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := s.db.ListSeasonMaxes(r.Context(), teamID, &athleteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboard.AthleteHistory(snaps))
}

func (s *Server) handleProgressChart(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	athleteID, err := uuidParam(r, "athleteID")
	if err != nil {
		writeError(w, err)
		return
	}
	ex, err := models.ParseExercise(r.URL.Query().Get("exercise"))
	if err != nil {
		writeError(w, err)
		return
	}

	athlete, err := s.db.GetRosterEntry(r.Context(), teamID, athleteID)
	if err != nil {
		writeError(w, err)
		return
	}
	workouts, err := s.db.ListWorkouts(r.Context(), teamID, &athleteID, time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}

	title := fmt.Sprintf("%s: %s", athlete.DisplayName, ex)
	png, err := s.charts.Progress(title, charts.PointsFromWorkouts(workouts, ex))
	if errors.Is(err, charts.ErrNoData) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no graded attempts for " + string(ex)})
		return
	}
	if err != nil {
		s.log.Error("chart render failed", "athlete_id", athleteID, "error", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	athleteID, err := uuidParam(r, "athleteID")
	if err != nil {
		writeError(w, err)
		return
	}
	sn, yearB, err := s.seasonParams(r, "year_b")
	if err != nil {
		writeError(w, err)
		return
	}
	yearA, err := intParam(r, "year_a", yearB-1)
	if err != nil {
		writeError(w, err)
		return
	}

	snaps, err := s.db.ListSeasonMaxes(r.Context(), teamID, &athleteID)
	if err != nil {
		writeError(w, err)
		return
	}
	cmp, err := leaderboard.Compare(snaps, athleteID, sn, yearA, yearB)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

type leaderboardEntry struct {
	Rank        int                      `json:"rank"`
	Value       float64                  `json:"value"`
	WeightClass string                   `json:"weight_class"`
	Snapshot    models.SeasonMaxSnapshot `json:"snapshot"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	sn, year, err := s.seasonParams(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	cat, err := leaderboard.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	snaps, err := s.db.ListSeasonMaxes(r.Context(), teamID, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	current, err := leaderboard.ForSeason(snaps, sn, year)
	if err != nil {
		writeError(w, err)
		return
	}
	if class := r.URL.Query().Get("weight_class"); class != "" {
		current = leaderboard.FilterWeightClass(current, class)
	}

	ranked := leaderboard.Rank(current, cat)
	entries := make([]leaderboardEntry, len(ranked))
	for i, snap := range ranked {
		entries[i] = leaderboardEntry{
			Rank:        i + 1,
			Value:       cat.Value(snap),
			WeightClass: leaderboard.WeightClass(snap.Bodyweight),
			Snapshot:    snap,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"season":   sn,
		"year":     year,
		"category": cat,
		"entries":  entries,
	})
}

func (s *Server) handleMostImproved(w http.ResponseWriter, r *http.Request) {
	s.seasonComparison(w, r, func(snaps []models.SeasonMaxSnapshot, sn season.Season, year int) (any, error) {
		return leaderboard.MostImproved(snaps, sn, year)
	})
}

func (s *Server) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	s.seasonComparison(w, r, func(snaps []models.SeasonMaxSnapshot, sn season.Season, year int) (any, error) {
		return leaderboard.CompareYearOverYear(snaps, sn, year)
	})
}

func (s *Server) seasonComparison(w http.ResponseWriter, r *http.Request, compare func([]models.SeasonMaxSnapshot, season.Season, int) (any, error)) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	sn, year, err := s.seasonParams(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := s.db.ListSeasonMaxes(r.Context(), teamID, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := compare(snaps, sn, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
