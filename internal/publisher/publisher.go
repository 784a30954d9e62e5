// Package publisher fans saved and changed games out to subscribers.
package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/livescore/internal/scores"
)

// Event types.
const (
	EventGameSaved     = "game.saved"
	EventScoreChanged  = "game.score_changed"
	EventStatusChanged = "game.status_changed"
)

// Event is the payload every broadcaster delivers.
type Event struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Topic     string       `json:"topic"`
	TeamIDs   []string     `json:"teamIds"`
	UserID    string       `json:"userId,omitempty"`
	Game      scores.Game  `json:"game"`
	Previous  *scores.Game `json:"previous,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent stamps a fresh event for topic.
func NewEvent(eventType, topic string, game scores.Game) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Topic:     topic,
		TeamIDs:   game.TeamIDs(),
		Game:      game,
		Timestamp: time.Now().UTC(),
	}
}

// LeagueTopic is the league-wide channel the generic ingest path publishes to.
func LeagueTopic(league string) string {
	return "scores:league:" + league
}

// TeamTopic is the team-directed channel the user-scoped path publishes to.
func TeamTopic(teamID string) string {
	return "scores:team:" + teamID
}

// Broadcaster delivers an event on a topic. Callers treat failures as
// fire-and-forget: they log and move on.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// Multi publishes to every broadcaster and joins their errors.
type Multi []Broadcaster

// Publish implements Broadcaster.
func (m Multi) Publish(ctx context.Context, topic string, event Event) error {
	var errs []error
	for _, b := range m {
		if b == nil {
			continue
		}
		if err := b.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop drops every event.
type Noop struct{}

// Publish implements Broadcaster.
func (Noop) Publish(context.Context, string, Event) error {
	return nil
}
