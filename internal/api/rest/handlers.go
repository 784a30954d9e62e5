package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/livescore/internal/ingest"
	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

const (
	healthCheckTimeout = 2 * time.Second
	defaultGamesLimit  = 20
	maxGamesLimit      = 200
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	deps   Deps
	logger *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{deps: deps, logger: logging.OrDiscard(logger)}
}

// HealthCheck runs every registered check. Any failure answers 503.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.deps.Health))
	healthy := true
	for name, check := range h.deps.Health {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			healthy = false
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "livescore",
		"checks":  checks,
	})
}

type ingestRequest struct {
	League string   `json:"league"`
	Mode   string   `json:"mode"`
	Teams  []string `json:"teams"`
	Limit  int      `json:"limit"`
	From   string   `json:"from"`
	To     string   `json:"to"`
}

// RunIngest handles POST /api/v1/ingest
func (h *Handler) RunIngest(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ingest == nil {
		respondError(w, http.StatusServiceUnavailable, "Ingestion is not configured", nil)
		return
	}

	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mode := scores.ModeLive
	if req.Mode != "" {
		var ok bool
		if mode, ok = scores.ParseMode(req.Mode); !ok {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown mode %q", req.Mode), nil)
			return
		}
	}

	teamIDs := scores.SanitizeTeamIDs(req.Teams)
	league := adapter.Normalize(req.League)
	if league == "" && len(teamIDs) > 0 {
		league = scores.TeamLeague(teamIDs[0])
	}
	switch {
	case league == "":
		respondError(w, http.StatusBadRequest, "A league or at least one team is required", nil)
		return
	case !h.deps.Ingest.Resolver().IsKnown(league):
		respondCodedError(w, http.StatusUnprocessableEntity, ingest.CodeInvalidSport, fmt.Sprintf("Unknown league %q", league), nil)
		return
	case mode == scores.ModeLive && len(teamIDs) == 0:
		respondError(w, http.StatusBadRequest, "Live mode needs at least one valid team", nil)
		return
	}

	window, err := scores.ParseDays(req.From, req.To)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date (YYYY-MM-DD)", err)
		return
	}

	summary := h.deps.Ingest.Run(r.Context(), ingest.Request{
		TeamIDs: teamIDs,
		League:  league,
		Mode:    mode,
		Limit:   req.Limit,
		Window:  window,
	})
	if summary.Errored > 0 && len(summary.Games) == 0 {
		respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   "No scores could be fetched",
			"status":  http.StatusBadGateway,
			"code":    ingest.CodeFetchFailed,
			"summary": summary,
		})
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

type userIngestRequest struct {
	Sport string `json:"sport"`
	Mode  string `json:"mode"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// RunUserIngest handles POST /api/v1/users/{userID}/ingest
func (h *Handler) RunUserIngest(w http.ResponseWriter, r *http.Request) {
	if h.deps.Users == nil {
		respondError(w, http.StatusServiceUnavailable, "User ingestion is not configured", nil)
		return
	}

	var req userIngestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mode := scores.ModeLive
	if req.Mode != "" {
		var ok bool
		if mode, ok = scores.ParseMode(req.Mode); !ok {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown mode %q", req.Mode), nil)
			return
		}
	}

	window, err := scores.ParseDays(req.From, req.To)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date (YYYY-MM-DD)", err)
		return
	}

	userID := mux.Vars(r)["userID"]
	summary, err := h.deps.Users.Run(r.Context(), ingest.UserRequest{
		UserID: userID,
		Sport:  req.Sport,
		Mode:   mode,
		Window: window,
	})
	if err != nil {
		var uerr *ingest.UserError
		if !errors.As(err, &uerr) {
			h.logger.Error("user ingest failed", logging.FieldUserID, userID, logging.FieldError, err)
			respondError(w, http.StatusInternalServerError, "User ingestion failed", err)
			return
		}
		respondCodedError(w, userErrorStatus(uerr.Code), uerr.Code, uerr.Message, uerr.Err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func userErrorStatus(code string) int {
	switch code {
	case ingest.CodeUserNotFound:
		return http.StatusNotFound
	case ingest.CodeNoFavoriteTeams, ingest.CodeInvalidSport:
		return http.StatusUnprocessableEntity
	case ingest.CodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type favoritesRequest struct {
	Teams []string `json:"teams"`
}

// SetFavorites handles PUT /api/v1/users/{userID}/favorites
func (h *Handler) SetFavorites(w http.ResponseWriter, r *http.Request) {
	if h.deps.Favorites == nil {
		respondError(w, http.StatusServiceUnavailable, "User profiles are not configured", nil)
		return
	}

	var req favoritesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	teams := scores.SanitizeTeamIDs(req.Teams)
	if len(teams) != len(req.Teams) {
		respondError(w, http.StatusBadRequest, "Team IDs must look like LEAGUE_CODE and be unique", nil)
		return
	}

	userID := mux.Vars(r)["userID"]
	if err := h.deps.Favorites.SetFavoriteTeams(r.Context(), userID, teams); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save favorites", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        userID,
		"favorite_teams": teams,
	})
}

// GetGame handles GET /api/v1/games/{gameID}
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	if h.deps.Games == nil {
		respondError(w, http.StatusServiceUnavailable, "Game storage is not configured", nil)
		return
	}

	game, err := h.deps.Games.GetGame(r.Context(), mux.Vars(r)["gameID"])
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Game not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch game", err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

// GetBoxScore handles GET /api/v1/leagues/{league}/boxscores/{externalID}
func (h *Handler) GetBoxScore(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ingest == nil {
		respondError(w, http.StatusServiceUnavailable, "Ingestion is not configured", nil)
		return
	}

	vars := mux.Vars(r)
	box, err := h.deps.Ingest.BoxScore(r.Context(), adapter.Normalize(vars["league"]), vars["externalID"])
	if errors.Is(err, adapter.ErrBoxScoreUnavailable) {
		respondError(w, http.StatusNotFound, "Box score unavailable", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch box score", err)
		return
	}
	respondJSON(w, http.StatusOK, box)
}

// GetTeams handles GET /api/v1/leagues/{league}/teams
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	if h.deps.Teams == nil {
		respondError(w, http.StatusServiceUnavailable, "Team storage is not configured", nil)
		return
	}

	teams, err := h.deps.Teams.GetTeamsByLeague(r.Context(), adapter.Normalize(mux.Vars(r)["league"]))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch teams", err)
		return
	}
	if teams == nil {
		teams = []store.Team{}
	}
	respondJSON(w, http.StatusOK, teams)
}

// GetTeamGames handles GET /api/v1/teams/{teamID}/games
func (h *Handler) GetTeamGames(w http.ResponseWriter, r *http.Request) {
	if h.deps.Games == nil {
		respondError(w, http.StatusServiceUnavailable, "Game storage is not configured", nil)
		return
	}

	teamID, ok := teamParam(w, r)
	if !ok {
		return
	}

	limit := defaultGamesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = min(n, maxGamesLimit)
	}

	games, err := h.deps.Games.ListByTeam(r.Context(), teamID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}
	if games == nil {
		games = []scores.Game{}
	}
	respondJSON(w, http.StatusOK, games)
}

type trackedRequest struct {
	Tracked bool `json:"tracked"`
}

// SetTracked handles PUT /api/v1/teams/{teamID}/tracked
func (h *Handler) SetTracked(w http.ResponseWriter, r *http.Request) {
	if h.deps.Teams == nil {
		respondError(w, http.StatusServiceUnavailable, "Team storage is not configured", nil)
		return
	}

	teamID, ok := teamParam(w, r)
	if !ok {
		return
	}
	var req trackedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.deps.Teams.SetTracked(r.Context(), teamID, req.Tracked)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Team not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update team", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team_id": teamID,
		"tracked": req.Tracked,
	})
}

// SchedulerStatus handles GET /api/v1/scheduler/status
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Scheduler == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"enabled": false})
		return
	}
	respondJSON(w, http.StatusOK, h.deps.Scheduler.Status(r.Context()))
}

// ScheduleAll handles POST /api/v1/scheduler/schedule
func (h *Handler) ScheduleAll(w http.ResponseWriter, r *http.Request) {
	if !h.schedulerReady(w) {
		return
	}
	n, err := h.deps.Scheduler.ScheduleAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to schedule jobs", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"scheduled": n})
}

// Reconcile handles POST /api/v1/scheduler/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if !h.schedulerReady(w) {
		return
	}
	report, err := h.deps.Scheduler.Reconcile(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reconcile jobs", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) schedulerReady(w http.ResponseWriter) bool {
	if h.deps.Scheduler == nil || !h.deps.Scheduler.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "Scheduler is disabled", nil)
		return false
	}
	return true
}

func teamParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ids := scores.SanitizeTeamIDs([]string{mux.Vars(r)["teamID"]})
	if len(ids) == 0 {
		respondError(w, http.StatusBadRequest, "Team IDs look like LEAGUE_CODE", nil)
		return "", false
	}
	return ids[0], true
}

// decodeBody reads an optional JSON body. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	respondError(w, http.StatusBadRequest, "Invalid request body", err)
	return false
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	respondCodedError(w, status, "", message, err)
}

func respondCodedError(w http.ResponseWriter, status int, code, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if code != "" {
		response["code"] = code
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
