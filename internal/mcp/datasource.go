package mcp

import (
	"context"
	"time"

	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListRoster(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error)
	ListWorkouts(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID, since time.Time) ([]models.WorkoutRecord, error)
	ListSeasonMaxes(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID) ([]models.SeasonMaxSnapshot, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
