package scores

import (
	"strings"
	"time"
)

// Status is the normalized lifecycle state every source funnels into.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinal      Status = "final"
)

// Valid reports whether s is one of the three canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinal:
		return true
	}
	return false
}

// Mode selects how an ingestion run talks to its adapter.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeSchedule Mode = "schedule"
	ModeFeatured Mode = "featured"
)

// ParseMode maps a case-insensitive token to a Mode. Unknown input yields
// ModeLive and false.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive:
		return ModeLive, true
	case ModeSchedule:
		return ModeSchedule, true
	case ModeFeatured:
		return ModeFeatured, true
	}
	return ModeLive, false
}

// GameScore is an in-flight score report produced by one source fetch. It is
// never mutated once built; every fetch cycle creates new values.
type GameScore struct {
	GameID      string    `json:"gameId"`
	League      string    `json:"league"`
	ExternalID  string    `json:"externalId,omitempty"`
	HomeTeamID  string    `json:"homeTeamId"`
	AwayTeamID  string    `json:"awayTeamId"`
	HomePoints  int       `json:"homePoints"`
	AwayPoints  int       `json:"awayPoints"`
	Status      Status    `json:"status"`
	Period      int       `json:"period,omitempty"`
	PeriodLabel string    `json:"periodLabel,omitempty"`
	Clock       string    `json:"clock,omitempty"`
	StartTime   time.Time `json:"startTime"`
	Source      string    `json:"source"`
}

// Involves reports whether either side of the game is in teamIDs.
func (g GameScore) Involves(teamIDs map[string]struct{}) bool {
	_, home := teamIDs[g.HomeTeamID]
	_, away := teamIDs[g.AwayTeamID]
	return home || away
}

// ScheduleGame is a lighter record for games that have not started.
type ScheduleGame struct {
	GameID     string    `json:"gameId"`
	League     string    `json:"league"`
	ExternalID string    `json:"externalId,omitempty"`
	HomeTeamID string    `json:"homeTeamId"`
	AwayTeamID string    `json:"awayTeamId"`
	StartTime  time.Time `json:"startTime"`
	Status     Status    `json:"status"`
	Source     string    `json:"source"`
}

// BoxScore holds final team totals for a finished game.
type BoxScore struct {
	GameID       string    `json:"gameId"`
	ExternalID   string    `json:"externalId"`
	HomeTeamID   string    `json:"homeTeamId"`
	AwayTeamID   string    `json:"awayTeamId"`
	HomePoints   int       `json:"homePoints"`
	AwayPoints   int       `json:"awayPoints"`
	HomeByPeriod []int     `json:"homeByPeriod,omitempty"`
	AwayByPeriod []int     `json:"awayByPeriod,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Source       string    `json:"source"`
}

// Game is the durable record. Identity is GameID.
type Game struct {
	GameID      string    `json:"gameId"`
	League      string    `json:"league"`
	ExternalID  string    `json:"externalId,omitempty"`
	HomeTeamID  string    `json:"homeTeamId"`
	AwayTeamID  string    `json:"awayTeamId"`
	HomePoints  int       `json:"homePoints"`
	AwayPoints  int       `json:"awayPoints"`
	Status      Status    `json:"status"`
	Period      int       `json:"period,omitempty"`
	PeriodLabel string    `json:"periodLabel,omitempty"`
	Clock       string    `json:"clock,omitempty"`
	StartTime   time.Time `json:"startTime"`
	Source      string    `json:"source"`
	CachedAt    time.Time `json:"cachedAt"`
}

// TeamIDs returns home then away.
func (g Game) TeamIDs() []string {
	return []string{g.HomeTeamID, g.AwayTeamID}
}

// ToGame converts a score report into the persisted shape stamped with at.
func (g GameScore) ToGame(at time.Time) Game {
	return Game{
		GameID:      g.GameID,
		League:      g.League,
		ExternalID:  g.ExternalID,
		HomeTeamID:  g.HomeTeamID,
		AwayTeamID:  g.AwayTeamID,
		HomePoints:  g.HomePoints,
		AwayPoints:  g.AwayPoints,
		Status:      g.Status,
		Period:      g.Period,
		PeriodLabel: g.PeriodLabel,
		Clock:       g.Clock,
		StartTime:   g.StartTime,
		Source:      g.Source,
		CachedAt:    at,
	}
}

// ToGame converts a schedule entry into the persisted shape. Scores are zero
// and the source's reported status is kept.
func (s ScheduleGame) ToGame(at time.Time) Game {
	status := s.Status
	if !status.Valid() {
		status = StatusScheduled
	}
	return Game{
		GameID:     s.GameID,
		League:     s.League,
		ExternalID: s.ExternalID,
		HomeTeamID: s.HomeTeamID,
		AwayTeamID: s.AwayTeamID,
		Status:     status,
		StartTime:  s.StartTime,
		Source:     s.Source,
		CachedAt:   at,
	}
}

// DateRange is a half-open [From, To) window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DefaultWindow is now through now+24h.
func DefaultWindow(now time.Time) DateRange {
	return DateRange{From: now, To: now.Add(24 * time.Hour)}
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// RunSummary is the ephemeral result of one ingestion cycle.
type RunSummary struct {
	RunID     string        `json:"runId"`
	League    string        `json:"league"`
	Mode      Mode          `json:"mode"`
	Persisted int           `json:"persisted"`
	Skipped   int           `json:"skipped"`
	Errored   int           `json:"errored"`
	FromCache bool          `json:"fromCache"`
	Sources   []string      `json:"sources,omitempty"`
	Unanimity *float64      `json:"unanimity,omitempty"`
	Duration  time.Duration `json:"duration"`
	Games     []Game        `json:"games"`
}

// Empty reports whether the run touched nothing.
func (s RunSummary) Empty() bool {
	return s.Persisted == 0 && s.Skipped == 0 && s.Errored == 0 && len(s.Games) == 0
}
