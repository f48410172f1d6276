package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
)

func (s *Server) handleListSeasonMaxes(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	athleteID, err := optionalUUID(r, "athlete_id")
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := s.db.ListSeasonMaxes(r.Context(), teamID, athleteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

type seasonMaxRequest struct {
	AthleteID     uuid.UUID `json:"athlete_id"`
	Season        string    `json:"season"`
	Year          int       `json:"year"`
	BenchMax      float64   `json:"bench_max"`
	SquatMax      float64   `json:"squat_max"`
	PowerCleanMax float64   `json:"power_clean_max"`
	Bodyweight    *float64  `json:"bodyweight"`
}

func (s *Server) handleUpsertSeasonMax(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req seasonMaxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sn, err := season.Parse(req.Season)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Year < 1900 {
		writeError(w, fmt.Errorf("%w: invalid year %d", errBadRequest, req.Year))
		return
	}
	if req.BenchMax < 0 || req.SquatMax < 0 || req.PowerCleanMax < 0 {
		writeError(w, fmt.Errorf("%w: maxes must not be negative", errBadRequest))
		return
	}

	athlete, err := s.db.GetRosterEntry(r.Context(), teamID, req.AthleteID)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := models.NewSeasonMaxSnapshot(athlete.ID, athlete.DisplayName, sn, req.Year,
		req.BenchMax, req.SquatMax, req.PowerCleanMax)
	if err != nil {
		writeError(w, err)
		return
	}
	snap.TeamID = teamID
	snap.Bodyweight = req.Bodyweight
	if snap.Bodyweight == nil {
		snap.Bodyweight = athlete.Bodyweight
	}
	snap.CreatedAt = s.now()

	if err := s.db.UpsertSeasonMax(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleImportSeasonMaxes(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	if s.importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "import not configured"})
		return
	}

	result, err := s.importer.Ingest(r.Context(), r.Body, teamID, "http")
	if err != nil {
		s.log.Error("season max import error", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.CounterImportRows.WithLabelValues("imported").Add(float64(result.RowsImported))
		s.metrics.CounterImportRows.WithLabelValues("failed").Add(float64(result.RowsFailed))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRebuildSeasonIndexes(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := s.db.RebuildSeasonIndexes(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.log.Info("season indexes rebuilt", "team_id", teamID, "updated", n)
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	teamID, err := optionalUUID(r, "team_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if teamID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "team_id parameter required"})
		return
	}
	limit := 50
	if l, err := intParam(r, "limit", limit); err == nil && l > 0 {
		limit = l
	}
	logs, err := s.db.QueryImportLogs(r.Context(), *teamID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
