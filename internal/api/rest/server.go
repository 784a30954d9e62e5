package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/livescore/internal/backfill"
	"github.com/fortuna/livescore/internal/ingest"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/metrics"
	"github.com/fortuna/livescore/internal/scheduler"
	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

// Ingester runs league-scoped ingestion. *ingest.Agent implements it.
type Ingester interface {
	Run(ctx context.Context, req ingest.Request) scores.RunSummary
	BoxScore(ctx context.Context, league, externalID string) (*scores.BoxScore, error)
	Resolver() ingest.Resolver
}

// UserIngester runs user-scoped ingestion. *ingest.UserAgent implements it.
type UserIngester interface {
	Run(ctx context.Context, req ingest.UserRequest) (scores.RunSummary, error)
}

// GameReader serves stored games.
type GameReader interface {
	GetGame(ctx context.Context, gameID string) (*scores.Game, error)
	ListByTeam(ctx context.Context, teamID string, limit int) ([]scores.Game, error)
}

// TeamDirectory serves and updates the team catalog.
type TeamDirectory interface {
	GetTeamsByLeague(ctx context.Context, league string) ([]store.Team, error)
	SetTracked(ctx context.Context, teamID string, tracked bool) error
}

// FavoritesWriter replaces a user's favorite teams.
type FavoritesWriter interface {
	SetFavoriteTeams(ctx context.Context, userID string, teamIDs []string) error
}

// Scheduler exposes the job orchestrator. *scheduler.Orchestrator implements it.
type Scheduler interface {
	Enabled() bool
	Status(ctx context.Context) scheduler.Status
	ScheduleAll(ctx context.Context) (int, error)
	Reconcile(ctx context.Context) (scheduler.ReconcileReport, error)
}

// Backfiller queues historical schedule runs. *backfill.Service implements it.
type Backfiller interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
	GetStatus(ctx context.Context) (*backfill.StatusSummary, error)
}

// Deps are the collaborators behind the HTTP surface. Nil optional
// collaborators answer 503.
type Deps struct {
	Ingest    Ingester
	Users     UserIngester
	Games     GameReader
	Teams     TeamDirectory
	Favorites FavoritesWriter
	Scheduler Scheduler
	Backfill  Backfiller
	// Health checks run on GET /health keyed by component name.
	Health map[string]func(context.Context) error
	Logger *slog.Logger
}

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	router *mux.Router
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps) *Server {
	logger := logging.OrDiscard(deps.Logger).With(logging.FieldComponent, "rest")
	handler := NewHandler(deps, logger)
	backfillHandler := NewBackfillHandler(deps.Backfill)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Ingestion
	api.HandleFunc("/ingest", handler.RunIngest).Methods("POST")
	api.HandleFunc("/users/{userID}/ingest", handler.RunUserIngest).Methods("POST")
	api.HandleFunc("/users/{userID}/favorites", handler.SetFavorites).Methods("PUT")

	// Games
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/leagues/{league}/boxscores/{externalID}", handler.GetBoxScore).Methods("GET")

	// Teams
	api.HandleFunc("/leagues/{league}/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/teams/{teamID}/games", handler.GetTeamGames).Methods("GET")
	api.HandleFunc("/teams/{teamID}/tracked", handler.SetTracked).Methods("PUT")

	// Scheduler
	api.HandleFunc("/scheduler/status", handler.SchedulerStatus).Methods("GET")
	api.HandleFunc("/scheduler/schedule", handler.ScheduleAll).Methods("POST")
	api.HandleFunc("/scheduler/reconcile", handler.Reconcile).Methods("POST")

	// Backfill operations
	api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
	api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")

	return &Server{
		port:   port,
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
