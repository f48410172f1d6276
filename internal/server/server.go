package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/teamlift/internal/analytics"
	"github.com/claude/teamlift/internal/charts"
	"github.com/claude/teamlift/internal/ingest"
	"github.com/claude/teamlift/internal/metrics"
	"github.com/claude/teamlift/internal/models"
	"github.com/claude/teamlift/internal/prescription"
	"github.com/claude/teamlift/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the persistence the HTTP API needs. *storage.DB implements it.
type Store interface {
	InsertRosterEntry(ctx context.Context, e models.RosterEntry) error
	ListRoster(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error)
	GetRosterEntry(ctx context.Context, teamID, id uuid.UUID) (*models.RosterEntry, error)
	LinkRosterEntry(ctx context.Context, teamID, id uuid.UUID, uid string) error
	UpdateNextPrescription(ctx context.Context, teamID, id uuid.UUID, ex models.Exercise, sel models.Selection, weight float64) error

	InsertWorkout(ctx context.Context, w models.WorkoutRecord) (bool, error)
	ListWorkouts(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID, since time.Time) ([]models.WorkoutRecord, error)

	UpsertSeasonMax(ctx context.Context, s models.SeasonMaxSnapshot) error
	ListSeasonMaxes(ctx context.Context, teamID uuid.UUID, athleteID *uuid.UUID) ([]models.SeasonMaxSnapshot, error)
	ApplyPassedLift(ctx context.Context, w models.WorkoutRecord) (bool, error)
	RebuildSeasonIndexes(ctx context.Context, teamID uuid.UUID) (int, error)

	QueryImportLogs(ctx context.Context, teamID uuid.UUID, limit int) ([]storage.ImportLog, error)
}

// Importer ingests a season-max CSV export for a team.
type Importer interface {
	Ingest(ctx context.Context, r io.Reader, teamID uuid.UUID, source string) (*ingest.Result, error)
}

// Options carries the optional collaborators of a Server.
type Options struct {
	APIKey     string
	WindowDays int
	Templates  *prescription.Library
	Charts     *charts.Cache
	Metrics    *metrics.Manager
	Gatherer   prometheus.Gatherer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db         Store
	importer   Importer
	log        *slog.Logger
	apiKey     string
	windowDays int
	templates  *prescription.Library
	charts     *charts.Cache
	metrics    *metrics.Manager
	gatherer   prometheus.Gatherer
	now        func() time.Time
	whois      WhoIsClient
	router     chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, importer Importer, opts Options, log *slog.Logger) *Server {
	s := &Server{
		db:         db,
		importer:   importer,
		log:        log,
		apiKey:     opts.APIKey,
		windowDays: opts.WindowDays,
		templates:  opts.Templates,
		charts:     opts.Charts,
		metrics:    opts.Metrics,
		gatherer:   opts.Gatherer,
		now:        opts.Now,
		router:     chi.NewRouter(),
	}
	if s.windowDays <= 0 {
		s.windowDays = analytics.DefaultWindowDays
	}
	if s.templates == nil {
		s.templates = prescription.DefaultLibrary()
	}
	if s.charts == nil {
		s.charts = charts.NewCache(64)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.charts.OnLookup == nil && s.metrics != nil {
		s.charts.OnLookup = func(hit bool) {
			result := "miss"
			if hit {
				result = "hit"
			}
			s.metrics.CounterChartCache.WithLabelValues(result).Inc()
		}
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale resolves caller identities through tailnet WhoIs lookups
// instead of the local dev identity.
func (s *Server) SetTailscale(wc WhoIsClient) {
	s.whois = wc
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(CORS)
	s.router.Use(s.identify)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)
		r.Get("/templates", s.handleTemplates)
		r.Post("/prescriptions", s.handleCalculateSets)
		r.Post("/recommendations/load", s.handleRecommendLoad)
		r.Get("/seasons/current", s.handleCurrentSeason)
		r.Get("/seasons/index", s.handleSeasonIndex)
		r.Post("/programs", s.handleGenerateProgram)
		r.Get("/imports", s.handleImportLogs)

		r.Route("/teams/{teamID}", func(r chi.Router) {
			r.Get("/roster", s.handleListRoster)
			r.Get("/workouts", s.handleListWorkouts)
			r.Get("/season-maxes", s.handleListSeasonMaxes)
			r.Get("/analytics", s.handleTeamAnalytics)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/leaderboard/most-improved", s.handleMostImproved)
			r.Get("/leaderboard/year-over-year", s.handleYearOverYear)

			r.Route("/athletes/{athleteID}", func(r chi.Router) {
				r.Get("/analytics", s.handleAthleteAnalytics)
				r.Get("/history", s.handleAthleteHistory)
				r.Get("/progress.png", s.handleProgressChart)
				r.Get("/compare", s.handleCompare)
			})

			// Writes (API key required)
			r.Group(func(r chi.Router) {
				r.Use(APIKeyAuth(s.apiKey))
				r.Post("/roster", s.handleCreateRosterEntry)
				r.Post("/roster/{athleteID}/link", s.handleLinkRosterEntry)
				r.Post("/roster/{athleteID}/next", s.handleSetNextPrescription)
				r.Post("/workouts", s.handleLogWorkout)
				r.Post("/season-maxes", s.handleUpsertSeasonMax)
				r.Post("/season-maxes/import", s.handleImportSeasonMaxes)
				r.Post("/season-maxes/rebuild", s.handleRebuildSeasonIndexes)
			})
		})
	})
}
