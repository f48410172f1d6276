package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/teamlift/internal/analytics"
	"github.com/claude/teamlift/internal/leaderboard"
	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/prescription"
	"github.com/claude/teamlift/internal/season"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

var errNoTeam = errors.New("team_id parameter is required")

// teamID resolves the team from the team_id argument, falling back to the
// session's default team.
func teamID(ctx context.Context, req mcp.CallToolRequest) (uuid.UUID, error) {
	if v := req.GetString("team_id", ""); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid team_id: %w", err)
		}
		return id, nil
	}
	if id, ok := TeamIDFromContext(ctx); ok {
		return id, nil
	}
	return uuid.Nil, errNoTeam
}

// seasonArgs reads the season and year arguments, defaulting to the
// current season.
func (h *handlers) seasonArgs(req mcp.CallToolRequest) (season.Season, int, error) {
	cur, year := season.At(h.now())
	if v := req.GetString("season", ""); v != "" {
		s, err := season.Parse(v)
		if err != nil {
			return "", 0, err
		}
		cur = s
	}
	return cur, req.GetInt("year", year), nil
}

func toolResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var teamIDArg = mcp.WithString("team_id", mcp.Description("Team UUID. Defaults to the session's team."))

var toolGetTeamAnalytics = mcp.NewTool("get_team_analytics",
	mcp.WithDescription("Team training summary over a rolling window: pass rate, volume, improving and declining athletes, consecutive-fail alerts, fatigue status, top performer and most improved."),
	teamIDArg,
	mcp.WithNumber("days", mcp.Description("Window size in days. Defaults to 30.")),
)

var toolGetAthleteAnalytics = mcp.NewTool("get_athlete_analytics",
	mcp.WithDescription("Deep dive for one athlete: per-lift progress, fail rate, plateau and volume-spike flags, risk level, readiness score and grade, insights and recommendations."),
	teamIDArg,
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete UUID")),
)

var toolGetLeaderboard = mcp.NewTool("get_leaderboard",
	mcp.WithDescription("Rank the team's season max snapshots for one season by total or a single lift."),
	teamIDArg,
	mcp.WithString("season", mcp.Description("Summer, Fall, Winter or Spring. Defaults to the current season."), mcp.Enum("Summer", "Fall", "Winter", "Spring")),
	mcp.WithNumber("year", mcp.Description("Labelled calendar year. Defaults to the current season's year.")),
	mcp.WithString("category", mcp.Description("Ranking value. Defaults to Total."), mcp.Enum("Total", "Bench", "Squat", "PowerClean")),
	mcp.WithString("weight_class", mcp.Description("Only include this weight class: an upper bound such as '200', '220+', or 'Unknown'.")),
)

var toolGetMostImproved = mcp.NewTool("get_most_improved",
	mcp.WithDescription("Athletes ranked by total gain from their previous recorded season to the given season."),
	teamIDArg,
	mcp.WithString("season", mcp.Description("Defaults to the current season."), mcp.Enum("Summer", "Fall", "Winter", "Spring")),
	mcp.WithNumber("year", mcp.Description("Defaults to the current season's year.")),
)

var toolCalculateSets = mcp.NewTool("calculate_sets",
	mcp.WithDescription("Prescribe sets for a lift: reps and weight per set from a box, percentage or max selection applied to a base weight."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Bench, Squat or PowerClean")),
	mcp.WithString("selection", mcp.Required(), mcp.Description("Box number ('3' or 'Box 3'), percentage ('75%'), or 'max'. Bare numbers are percentages for Squat and boxes otherwise.")),
	mcp.WithNumber("base_weight", mcp.Required(), mcp.Description("Athlete's max for the lift")),
)

var toolGetSeasonIndex = mcp.NewTool("get_season_index",
	mcp.WithDescription("Training year and sortable season index for a labelled season. Summer through Spring form one training year; Winter and Spring are labelled with the following calendar year."),
	mcp.WithString("season", mcp.Required(), mcp.Enum("Summer", "Fall", "Winter", "Spring")),
	mcp.WithNumber("year", mcp.Required(), mcp.Description("Labelled calendar year")),
)

// --- Tool handlers ---

func (h *handlers) getTeamAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, err := teamID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days := req.GetInt("days", analytics.DefaultWindowDays)
	if days <= 0 {
		return mcp.NewToolResultError("days must be positive"), nil
	}

	now := h.now()
	roster, err := h.ds.ListRoster(ctx, team)
	if err != nil {
		h.log.Error("mcp get_team_analytics roster", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	workouts, err := h.ds.ListWorkouts(ctx, team, nil, now.AddDate(0, 0, -days))
	if err != nil {
		h.log.Error("mcp get_team_analytics workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	res, err := analytics.AggregateTeam(workouts, roster, days, now)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(res)
}

func (h *handlers) getAthleteAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, err := teamID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}
	athleteID, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid athlete_id: " + err.Error()), nil
	}

	workouts, err := h.ds.ListWorkouts(ctx, team, &athleteID, time.Time{})
	if err != nil {
		h.log.Error("mcp get_athlete_analytics", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	res, err := analytics.AnalyzeAthlete(workouts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(res)
}

type rankedSnapshot struct {
	Rank        int     `json:"rank"`
	AthleteID   string  `json:"athlete_id"`
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Total       float64 `json:"total"`
	WeightClass string  `json:"weight_class"`
}

func (h *handlers) getLeaderboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, err := teamID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sn, year, err := h.seasonArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cat, err := leaderboard.ParseCategory(req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snaps, err := h.ds.ListSeasonMaxes(ctx, team, nil)
	if err != nil {
		h.log.Error("mcp get_leaderboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	current, err := leaderboard.ForSeason(snaps, sn, year)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if class := req.GetString("weight_class", ""); class != "" {
		current = leaderboard.FilterWeightClass(current, class)
	}

	ranked := leaderboard.Rank(current, cat)
	out := make([]rankedSnapshot, len(ranked))
	for i, s := range ranked {
		out[i] = rankedSnapshot{
			Rank:        i + 1,
			AthleteID:   s.AthleteID.String(),
			Name:        s.AthleteName,
			Value:       cat.Value(s),
			Total:       s.Total,
			WeightClass: leaderboard.WeightClass(s.Bodyweight),
		}
	}
	return toolResult(map[string]any{
		"season":   sn,
		"year":     year,
		"category": cat,
		"entries":  out,
	})
}

func (h *handlers) getMostImproved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, err := teamID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sn, year, err := h.seasonArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snaps, err := h.ds.ListSeasonMaxes(ctx, team, nil)
	if err != nil {
		h.log.Error("mcp get_most_improved", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	improved, err := leaderboard.MostImproved(snaps, sn, year)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(improved)
}

func (h *handlers) calculateSets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawEx, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	rawSel, err := req.RequireString("selection")
	if err != nil {
		return mcp.NewToolResultError("selection parameter is required"), nil
	}
	base, err := req.RequireFloat("base_weight")
	if err != nil {
		return mcp.NewToolResultError("base_weight parameter is required"), nil
	}

	ex, err := models.ParseExercise(rawEx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := models.ParseSelection(ex, rawSel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tmpl, err := h.templates.ForSelection(sel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return toolResult(map[string]any{
		"exercise":  ex,
		"selection": sel.String(),
		"template":  tmpl.Name,
		"sets":      prescription.CalculateSets(tmpl, base),
	})
}

func (h *handlers) getSeasonIndex(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("season")
	if err != nil {
		return mcp.NewToolResultError("season parameter is required"), nil
	}
	year, err := req.RequireInt("year")
	if err != nil {
		return mcp.NewToolResultError("year parameter is required"), nil
	}
	sn, err := season.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ty, err := season.TrainingYear(sn, year)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := season.Index(sn, year)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(map[string]any{
		"season":        sn,
		"year":          year,
		"training_year": ty,
		"season_index":  idx,
		"label":         season.Label(idx),
	})
}
