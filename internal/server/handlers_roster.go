package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/claude/teamlift/internal/models"
	"github.com/google/uuid"
)

func (s *Server) handleListRoster(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	roster, err := s.db.ListRoster(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

type rosterRequest struct {
	DisplayName    string   `json:"display_name"`
	Bodyweight     *float64 `json:"bodyweight"`
	GraduationYear *int     `json:"graduation_year"`
}

func (s *Server) handleCreateRosterEntry(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req rosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name is required"})
		return
	}

	entry := models.RosterEntry{
		ID:             uuid.New(),
		TeamID:         teamID,
		DisplayName:    name,
		Bodyweight:     req.Bodyweight,
		GraduationYear: req.GraduationYear,
		CreatedAt:      s.now(),
	}
	if err := s.db.InsertRosterEntry(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleLinkRosterEntry ties a roster entry to the calling user, or to the
// uid in the body when one is given.
func (s *Server) handleLinkRosterEntry(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		UID string `json:"uid"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		uid = userInfoFromContext(r).Login
	}

	if err := s.db.LinkRosterEntry(r.Context(), teamID, athleteID, uid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked", "uid": uid})
}

type nextPrescriptionRequest struct {
	Exercise  string          `json:"exercise"`
	Selection json.RawMessage `json:"selection"`
	Weight    float64         `json:"weight"`
}

func (s *Server) handleSetNextPrescription(w http.ResponseWriter, r *http.Request) {
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
	var req nextPrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	ex, err := models.ParseExercise(req.Exercise)
	if err != nil {
		writeError(w, err)
		return
	}
	sel, err := decodeSelection(ex, req.Selection)
	if err != nil {
		writeError(w, err)
		return
	}
	if sel.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "selection is required"})
		return
	}

	if err := s.db.UpdateNextPrescription(r.Context(), teamID, athleteID, ex, sel, req.Weight); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise":  ex,
		"selection": sel,
		"weight":    req.Weight,
	})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
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
	start, end, err := parseTimeRange(r, s.now(), s.windowDays)
	if err != nil {
		writeError(w, err)
		return
	}

	workouts, err := s.db.ListWorkouts(r.Context(), teamID, athleteID, start)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]models.WorkoutRecord, 0, len(workouts))
	for _, wk := range workouts {
		if wk.CreatedAt.Before(end) {
			out = append(out, wk)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type workoutRequest struct {
	AthleteID      uuid.UUID       `json:"athlete_id"`
	Exercise       string          `json:"exercise"`
	Weight         float64         `json:"weight"`
	Selection      json.RawMessage `json:"selection"`
	Result         string          `json:"result"`
	OverrideReason string          `json:"override_reason"`
	CreatedAt      *time.Time      `json:"created_at"`
}

// handleLogWorkout stores a lift attempt. A passed lift also raises the
// matching max on the athlete's latest season snapshot.
func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "teamID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	rec, err := s.buildWorkout(r, teamID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	inserted, err := s.db.InsertWorkout(r.Context(), rec)
	if err != nil {
		s.log.Error("insert workout failed", "team_id", teamID, "error", err)
		writeError(w, err)
		return
	}
	if s.metrics != nil && inserted {
		s.metrics.CounterWorkoutsLogged.WithLabelValues(string(rec.Exercise), string(rec.Result)).Inc()
	}

	raised := false
	if rec.Result == models.Pass {
		if raised, err = s.db.ApplyPassedLift(r.Context(), rec); err != nil {
			// The workout is stored; a failed max update is logged, not surfaced.
			s.log.Error("season max update failed", "athlete_id", rec.AthleteID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"workout":            rec,
		"season_max_updated": raised,
	})
}

func (s *Server) buildWorkout(r *http.Request, teamID uuid.UUID, req workoutRequest) (models.WorkoutRecord, error) {
	if req.AthleteID == uuid.Nil {
		return models.WorkoutRecord{}, fmt.Errorf("%w: athlete_id is required", errBadRequest)
	}
	ex, err := models.ParseExercise(req.Exercise)
	if err != nil {
		return models.WorkoutRecord{}, err
	}
	res, err := models.ParseResult(req.Result)
	if err != nil {
		return models.WorkoutRecord{}, err
	}
	sel, err := decodeSelection(ex, req.Selection)
	if err != nil {
		return models.WorkoutRecord{}, err
	}
	if req.Weight < 0 {
		return models.WorkoutRecord{}, fmt.Errorf("%w: weight must not be negative", errBadRequest)
	}
	if req.Weight == 0 && res != models.Override {
		return models.WorkoutRecord{}, fmt.Errorf("%w: weight is required for %s", errBadRequest, res)
	}

	athlete, err := s.db.GetRosterEntry(r.Context(), teamID, req.AthleteID)
	if err != nil {
		return models.WorkoutRecord{}, err
	}

	rec := models.WorkoutRecord{
		ID:             uuid.New(),
		TeamID:         teamID,
		AthleteID:      athlete.ID,
		AthleteName:    athlete.DisplayName,
		Exercise:       ex,
		Weight:         req.Weight,
		Selection:      sel,
		Result:         res,
		OverrideReason: strings.TrimSpace(req.OverrideReason),
		CreatedAt:      s.now(),
	}
	if req.CreatedAt != nil {
		rec.CreatedAt = *req.CreatedAt
	}
	return rec, rec.Validate()
}
