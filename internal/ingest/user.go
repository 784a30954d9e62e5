package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/livescore/internal/cache"
	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/publisher"
	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

// User-scoped error codes.
const (
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeNoFavoriteTeams = "NO_FAVORITE_TEAMS"
	CodeInvalidSport    = "INVALID_SPORT"
	CodeFetchFailed     = "FETCH_FAILED"
)

// UserError is a caller-correctable failure of a user-scoped run.
type UserError struct {
	Code    string
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// ProfileStore resolves user profiles.
type ProfileStore interface {
	GetUserProfile(ctx context.Context, userID string) (*store.UserProfile, error)
}

// UserRequest is a run scoped to one user's favorite teams in one sport.
type UserRequest struct {
	UserID string
	Sport  string
	// Mode is live or schedule. Featured is unscoped by definition and runs
	// as live against the user's teams.
	Mode   scores.Mode
	Window scores.DateRange
}

// Change classifies an incoming game against its stored predecessor.
type Change string

const (
	ChangeNone   Change = ""
	ChangeScore  Change = "score"
	ChangeStatus Change = "status"
)

// DetectChange compares cur with the last stored record. A failed lookup
// counts as a change so real updates are never dropped; a missing record is
// a new game and counts as a status change.
func DetectChange(prev *scores.Game, lookupErr error, cur scores.Game) Change {
	if lookupErr != nil || prev == nil {
		return ChangeStatus
	}
	if prev.HomePoints != cur.HomePoints || prev.AwayPoints != cur.AwayPoints {
		return ChangeScore
	}
	if prev.Status != cur.Status || prev.Period != cur.Period {
		return ChangeStatus
	}
	return ChangeNone
}

// UserAgent runs the ingestion pipeline for a user's favorite teams under a
// per-user cache namespace and publishes team-directed change events.
type UserAgent struct {
	agent    *Agent
	profiles ProfileStore
}

// NewUserAgent wraps agent with profile resolution.
func NewUserAgent(agent *Agent, profiles ProfileStore) *UserAgent {
	return &UserAgent{agent: agent, profiles: profiles}
}

// Run resolves the user's teams for the sport and ingests them. Lookup
// problems come back as *UserError; infrastructure problems do not, except
// a fetch that errored and produced nothing, which is FETCH_FAILED.
func (u *UserAgent) Run(ctx context.Context, req UserRequest) (scores.RunSummary, error) {
	sport := adapter.Normalize(req.Sport)
	if sport == "" || !u.agent.resolver.IsKnown(sport) {
		return scores.RunSummary{}, &UserError{Code: CodeInvalidSport, Message: fmt.Sprintf("unknown sport %q", req.Sport)}
	}

	userID := strings.TrimSpace(req.UserID)
	profile, err := u.profiles.GetUserProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return scores.RunSummary{}, &UserError{Code: CodeUserNotFound, Message: fmt.Sprintf("user %q does not exist", userID)}
	case err != nil:
		return scores.RunSummary{}, &UserError{Code: CodeFetchFailed, Message: "loading user profile", Err: err}
	}

	favorites := scores.SanitizeTeamIDs(profile.FavoriteTeams)
	if len(favorites) == 0 {
		return scores.RunSummary{}, &UserError{Code: CodeNoFavoriteTeams, Message: fmt.Sprintf("user %q has no favorite teams", userID)}
	}
	teamIDs := make([]string, 0, len(favorites))
	for _, id := range favorites {
		if scores.TeamLeague(id) == sport {
			teamIDs = append(teamIDs, id)
		}
	}
	if len(teamIDs) == 0 {
		return scores.RunSummary{}, &UserError{Code: CodeNoFavoriteTeams, Message: fmt.Sprintf("user %q has no favorite %s teams", userID, sport)}
	}

	mode := req.Mode
	if mode != scores.ModeSchedule {
		mode = scores.ModeLive
	}

	p := u.agent.planFor(Request{TeamIDs: teamIDs, League: sport, Mode: mode, Window: req.Window})
	if mode != scores.ModeSchedule {
		p.cacheKey = cache.UserKey(userID, sport, mode)
	}
	p.trackChanges = true
	followed := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		followed[id] = struct{}{}
	}
	p.notify = func(ctx context.Context, saved savedGame) {
		u.notify(ctx, userID, followed, saved)
	}

	summary := u.agent.execute(ctx, p)
	if summary.Errored > 0 && len(summary.Games) == 0 {
		return summary, &UserError{Code: CodeFetchFailed, Message: fmt.Sprintf("no %s scores could be fetched", sport)}
	}
	return summary, nil
}

// notify publishes a change event to each followed team's topic.
func (u *UserAgent) notify(ctx context.Context, userID string, followed map[string]struct{}, saved savedGame) {
	change := DetectChange(saved.prev, saved.prevErr, saved.game)
	if change == ChangeNone {
		return
	}
	if saved.prevErr != nil && !errors.Is(saved.prevErr, store.ErrNotFound) {
		u.agent.logger.Warn("prior state lookup failed, treating as changed",
			logging.FieldGameID, saved.game.GameID, logging.FieldError, saved.prevErr)
	}

	eventType := publisher.EventStatusChanged
	if change == ChangeScore {
		eventType = publisher.EventScoreChanged
	}

	for _, teamID := range saved.game.TeamIDs() {
		if _, ok := followed[teamID]; !ok {
			continue
		}
		event := publisher.NewEvent(eventType, publisher.TeamTopic(teamID), saved.game)
		event.UserID = userID
		if saved.prevErr == nil {
			event.Previous = saved.prev
		}
		u.agent.publish(ctx, event)
	}
}
