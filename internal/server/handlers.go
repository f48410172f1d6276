package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/teamlift/internal/leaderboard"
	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/periodization"
	"github.com/claude/teamlift/internal/prescription"
	"github.com/claude/teamlift/internal/season"
	"github.com/claude/teamlift/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.templates.Templates())
}

type prescriptionRequest struct {
	Exercise   string          `json:"exercise"`
	Selection  json.RawMessage `json:"selection"`
	BaseWeight float64         `json:"base_weight"`
}

func (s *Server) handleCalculateSets(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
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
	tmpl, err := s.templates.ForSelection(sel)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exercise":  ex,
		"selection": sel,
		"template":  tmpl.Name,
		"sets":      prescription.CalculateSets(tmpl, req.BaseWeight),
	})
}

func (s *Server) handleRecommendLoad(w http.ResponseWriter, r *http.Request) {
	var in prescription.LoadInputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	rec, ok := prescription.RecommendWorkingWeight(in)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max must be positive"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCurrentSeason(w http.ResponseWriter, r *http.Request) {
	cur, year := season.At(s.now())
	idx, err := season.Index(cur, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seasonResponse(cur, year, idx))
}

func (s *Server) handleSeasonIndex(w http.ResponseWriter, r *http.Request) {
	sn, year, err := s.seasonParams(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := season.Index(sn, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seasonResponse(sn, year, idx))
}

func seasonResponse(s season.Season, year, idx int) map[string]any {
	ty, _ := season.TrainingYear(s, year)
	return map[string]any{
		"season":        s,
		"year":          year,
		"training_year": ty,
		"season_index":  idx,
		"label":         season.Label(idx),
	}
}

func (s *Server) handleGenerateProgram(w http.ResponseWriter, r *http.Request) {
	var p periodization.Params
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	blocks, err := periodization.Generate(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyLinked):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, models.ErrInvalidRecord),
		errors.Is(err, models.ErrUnknownExercise),
		errors.Is(err, models.ErrUnknownResult),
		errors.Is(err, models.ErrInvalidSelection),
		errors.Is(err, season.ErrUnknownSeason),
		errors.Is(err, leaderboard.ErrUnknownCategory),
		errors.Is(err, periodization.ErrInvalidLength):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeSelection accepts either a selection object or a legacy string
// such as "3", "Box 3", "75%" or "max". An absent selection is zero.
func decodeSelection(ex models.Exercise, raw json.RawMessage) (models.Selection, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return models.Selection{}, nil
	}
	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return models.ParseSelection(ex, legacy)
	}
	var sel models.Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return models.Selection{}, fmt.Errorf("%w: %v", models.ErrInvalidSelection, err)
	}
	if err := sel.Validate(); err != nil {
		return models.Selection{}, err
	}
	return sel, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// optionalUUID parses a query parameter that may be absent.
func optionalUUID(r *http.Request, name string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return &id, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return n, nil
}

// seasonParams reads the season and yearParam query parameters. Missing
// values default to the current season.
func (s *Server) seasonParams(r *http.Request, yearParam string) (season.Season, int, error) {
	cur, curYear := season.At(s.now())

	sn := cur
	if v := r.URL.Query().Get("season"); v != "" {
		parsed, err := season.Parse(v)
		if err != nil {
			return "", 0, err
		}
		sn = parsed
	}
	year, err := intParam(r, yearParam, curYear)
	if err != nil {
		return "", 0, err
	}
	return sn, year, nil
}

// parseTimeRange reads the start and end query parameters as RFC 3339 or
// plain dates. A date-only end covers the whole day. Without a start the
// range spans defaultDays before end.
func parseTimeRange(r *http.Request, now time.Time, defaultDays int) (start, end time.Time, err error) {
	end = now
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = parseTime(v, true); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end %q", errBadRequest, v)
		}
	}
	start = end.AddDate(0, 0, -defaultDays)
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = parseTime(v, false); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start %q", errBadRequest, v)
		}
	}
	return start, end, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}
