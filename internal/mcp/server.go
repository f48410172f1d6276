package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/teamlift/internal/prescription"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const teamIDKey contextKey = iota

// TeamIDFromContext extracts the default team injected by the transport layer.
func TeamIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(teamIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// WithTeamID returns a context scoped to the given team.
func WithTeamID(ctx context.Context, teamID uuid.UUID) context.Context {
	return context.WithValue(ctx, teamIDKey, teamID)
}

// New creates an MCP server with all tools and resources registered.
// A nil library uses the built-in templates.
func New(ds DataSource, templates *prescription.Library, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("TeamLift", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("TeamLift team weightlifting server. Query team analytics, athlete deep dives, leaderboards, and set prescriptions. Team tools use team_id or the session's default team."),
	)

	if templates == nil {
		templates = prescription.DefaultLibrary()
	}
	h := &handlers{ds: ds, templates: templates, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetTeamAnalytics, Handler: h.getTeamAnalytics},
		server.ServerTool{Tool: toolGetAthleteAnalytics, Handler: h.getAthleteAnalytics},
		server.ServerTool{Tool: toolGetLeaderboard, Handler: h.getLeaderboard},
		server.ServerTool{Tool: toolGetMostImproved, Handler: h.getMostImproved},
		server.ServerTool{Tool: toolCalculateSets, Handler: h.calculateSets},
		server.ServerTool{Tool: toolGetSeasonIndex, Handler: h.getSeasonIndex},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resTemplates, Handler: h.templateCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds        DataSource
	templates *prescription.Library
	log       *slog.Logger
	now       func() time.Time
}

// --- Resource definitions ---

var resTemplates = mcp.NewResource(
	"teamlift://templates",
	"Loading Templates",
	mcp.WithResourceDescription("Box and max loading templates with reps and percent of max per set"),
	mcp.WithMIMEType("application/json"),
)
