package espn

import (
	"context"
	"time"

	"github.com/fortuna/livescore/internal/ingest/teams"
	"github.com/fortuna/livescore/internal/scores"
)

// Source is the ESPN API bound to one league.
type Source struct {
	client *Client
	parser Parser
	now    func() time.Time
}

// NewSource binds client to league.
func NewSource(client *Client, league string, dir *teams.Directory) *Source {
	if dir == nil {
		dir = teams.Default()
	}
	return &Source{
		client: client,
		parser: Parser{League: league, Teams: dir},
		now:    time.Now,
	}
}

// Name is the provenance tag.
func (s *Source) Name() string {
	return SourceName
}

// Scoreboard returns today's games.
func (s *Source) Scoreboard(ctx context.Context) (scores.Listing, error) {
	data, err := s.client.FetchScoreboard(ctx, s.parser.League, scores.DateRange{})
	if err != nil {
		return scores.Listing{}, err
	}
	return scores.Collect(s.parser.ParseScoreboard(data)), nil
}

// Schedule returns games on every day the window touches. Callers trim to
// the exact window.
func (s *Source) Schedule(ctx context.Context, window scores.DateRange) (scores.Listing, error) {
	data, err := s.client.FetchScoreboard(ctx, s.parser.League, window)
	if err != nil {
		return scores.Listing{}, err
	}
	return scores.Collect(s.parser.ParseScoreboard(data)), nil
}

// BoxScore fetches the final team totals for an event.
func (s *Source) BoxScore(ctx context.Context, externalID string) (*scores.BoxScore, error) {
	data, err := s.client.FetchSummary(ctx, s.parser.League, externalID)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseSummary(externalID, data, s.now().UTC())
}
