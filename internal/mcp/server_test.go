package mcp

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// TestTeamIDFromContextDefault verifies no team is reported when the
// transport did not set one.
func TestTeamIDFromContextDefault(t *testing.T) {
	if id, ok := TeamIDFromContext(context.Background()); ok {
		t.Errorf("TeamIDFromContext(empty) = %s, want none", id)
	}
}

// TestTeamIDFromContextSet verifies the team ID is extracted from context
// after being set by WithTeamID.
func TestTeamIDFromContextSet(t *testing.T) {
	want := uuid.New()
	id, ok := TeamIDFromContext(WithTeamID(context.Background(), want))
	if !ok || id != want {
		t.Errorf("TeamIDFromContext = %s, %v, want %s", id, ok, want)
	}
}

// TestTeamIDFromContextNil verifies the nil UUID does not count as a team.
func TestTeamIDFromContextNil(t *testing.T) {
	if _, ok := TeamIDFromContext(WithTeamID(context.Background(), uuid.Nil)); ok {
		t.Error("nil team should not be reported")
	}
}

// TestNewRegistersTools verifies the server exposes every tool.
func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeSource{}, nil, "test", discardLogger())
	for _, name := range []string{
		"get_team_analytics", "get_athlete_analytics", "get_leaderboard",
		"get_most_improved", "calculate_sets", "get_season_index",
	} {
		if s.GetTool(name) == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
}
