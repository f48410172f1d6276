package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/teamlift/internal/models"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the TeamLift REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func teamPath(teamID uuid.UUID, suffix string) string {
	return "/api/v1/teams/" + teamID.String() + suffix
}

func athleteParams(athleteID *uuid.UUID) url.Values {
	v := url.Values{}
	if athleteID != nil {
		v.Set("athlete_id", athleteID.String())
	}
	return v
}

func (c *HTTPClient) ListRoster(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error) {
	var roster []models.RosterEntry
	if err := c.get(ctx, teamPath(teamID, "/roster"), nil, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// ListWorkouts sends since as the range start. A zero since asks for the
// full history.
func (c *HTTPClient) ListWorkouts(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID, since time.Time) ([]models.WorkoutRecord, error) {
	params := athleteParams(athleteID)
	if since.IsZero() {
		since = time.Unix(0, 0).UTC()
	}
	params.Set("start", since.Format(time.RFC3339))

	var workouts []models.WorkoutRecord
	if err := c.get(ctx, teamPath(teamID, "/workouts"), params, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) ListSeasonMaxes(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID) ([]models.SeasonMaxSnapshot, error) {
	var snaps []models.SeasonMaxSnapshot
	if err := c.get(ctx, teamPath(teamID, "/season-maxes"), athleteParams(athleteID), &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}
