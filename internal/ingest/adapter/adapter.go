// Package adapter normalizes per-league score sources behind one contract
// and chains a primary source with fallbacks.
package adapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/metrics"
	"github.com/fortuna/livescore/internal/scores"
)

// ErrBoxScoreUnavailable means no source could supply the box score.
var ErrBoxScoreUnavailable = errors.New("adapter: box score unavailable")

// ErrSourcesExhausted wraps the last source error when every source failed.
var ErrSourcesExhausted = errors.New("adapter: all sources failed")

// Source is one upstream feed bound to a league.
type Source interface {
	Name() string
	// Scoreboard returns the source's current listing.
	Scoreboard(ctx context.Context) (scores.Listing, error)
	// Schedule returns games for the days the window touches.
	Schedule(ctx context.Context, window scores.DateRange) (scores.Listing, error)
}

// BoxScoreSource is implemented by sources that expose final box scores.
type BoxScoreSource interface {
	BoxScore(ctx context.Context, externalID string) (*scores.BoxScore, error)
}

// Adapter is the per-league contract the ingestion agent calls.
type Adapter interface {
	League() string
	// FetchFeatured returns up to limit unscoped games.
	FetchFeatured(ctx context.Context, limit int) ([]scores.ScheduleGame, error)
	// FetchSchedule returns games for the given team codes inside window.
	FetchSchedule(ctx context.Context, codes []string, window scores.DateRange) ([]scores.ScheduleGame, error)
	FetchBoxScore(ctx context.Context, externalID string) (*scores.BoxScore, error)
}

// LiveFetcher is implemented by adapters with a live scoreboard. It never
// fails: an unavailable source yields an empty slice.
type LiveFetcher interface {
	FetchLive(ctx context.Context, codes []string) []scores.GameScore
}

// RecentFetcher is the older "recent games" call used when an adapter has
// no live support.
type RecentFetcher interface {
	FetchRecent(ctx context.Context, codes []string) ([]scores.GameScore, error)
}

// LeagueAdapter tries its sources in order until one yields games.
type LeagueAdapter struct {
	league  string
	sources []Source
	logger  *slog.Logger
}

// NewLeagueAdapter chains sources, primary first.
func NewLeagueAdapter(league string, logger *slog.Logger, sources ...Source) *LeagueAdapter {
	return &LeagueAdapter{
		league:  strings.ToUpper(league),
		sources: sources,
		logger:  logging.OrDiscard(logger).With(logging.FieldComponent, "adapter", logging.FieldLeague, strings.ToUpper(league)),
	}
}

// League returns the league code.
func (a *LeagueAdapter) League() string {
	return a.league
}

// Sources lists source names in fallback order.
func (a *LeagueAdapter) Sources() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}

// FetchLive returns in-flight scores for games involving codes, or every
// game when codes is empty. Source failures are logged and swallowed.
func (a *LeagueAdapter) FetchLive(ctx context.Context, codes []string) []scores.GameScore {
	games, err := a.firstNonEmpty(ctx, "live", func(src Source) ([]scores.GameScore, error) {
		listing, err := src.Scoreboard(ctx)
		if err != nil {
			return nil, err
		}
		a.recordSkips(src.Name(), listing)
		return filterByCodes(listing.Games, codes), nil
	})
	if err != nil {
		a.logger.Warn("live fetch found nothing", logging.FieldError, err)
	}
	return games
}

// FetchFeatured returns the first limit games of the current scoreboard.
func (a *LeagueAdapter) FetchFeatured(ctx context.Context, limit int) ([]scores.ScheduleGame, error) {
	games, err := a.firstNonEmpty(ctx, "featured", func(src Source) ([]scores.GameScore, error) {
		listing, err := src.Scoreboard(ctx)
		if err != nil {
			return nil, err
		}
		a.recordSkips(src.Name(), listing)
		return listing.Games, nil
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return scores.Listing{Games: games}.ScheduleGames(), err
}

// FetchSchedule returns games for codes whose start falls inside window.
func (a *LeagueAdapter) FetchSchedule(ctx context.Context, codes []string, window scores.DateRange) ([]scores.ScheduleGame, error) {
	games, err := a.firstNonEmpty(ctx, "schedule", func(src Source) ([]scores.GameScore, error) {
		listing, err := src.Schedule(ctx, window)
		if err != nil {
			return nil, err
		}
		a.recordSkips(src.Name(), listing)
		return filterByWindow(filterByCodes(listing.Games, codes), window), nil
	})
	return scores.Listing{Games: games}.ScheduleGames(), err
}

// FetchBoxScore asks each box-score-capable source in order.
func (a *LeagueAdapter) FetchBoxScore(ctx context.Context, externalID string) (*scores.BoxScore, error) {
	for _, src := range a.sources {
		bs, ok := src.(BoxScoreSource)
		if !ok {
			continue
		}
		box, err := bs.BoxScore(ctx, externalID)
		if err != nil {
			metrics.RecordFetch(src.Name(), metrics.FetchError)
			a.logger.Warn("box score fetch failed", logging.FieldSource, src.Name(), "external_id", externalID, logging.FieldError, err)
			continue
		}
		metrics.RecordFetch(src.Name(), metrics.FetchOK)
		return box, nil
	}
	return nil, ErrBoxScoreUnavailable
}

// firstNonEmpty runs fetch against each source until one returns games. It
// returns ErrSourcesExhausted only when every source errored; an empty
// answer from a healthy source is not an error.
func (a *LeagueAdapter) firstNonEmpty(ctx context.Context, op string, fetch func(Source) ([]scores.GameScore, error)) ([]scores.GameScore, error) {
	var lastErr error
	failures := 0
	for _, src := range a.sources {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			failures = len(a.sources)
			break
		}
		start := time.Now()
		games, err := fetch(src)
		if err != nil {
			failures++
			lastErr = err
			metrics.RecordFetch(src.Name(), metrics.FetchError)
			a.logger.Warn("source unavailable",
				"op", op,
				logging.FieldSource, src.Name(),
				logging.FieldDurationMS, time.Since(start).Milliseconds(),
				logging.FieldError, err,
			)
			continue
		}
		if len(games) == 0 {
			metrics.RecordFetch(src.Name(), metrics.FetchEmpty)
			a.logger.Debug("source returned no games", "op", op, logging.FieldSource, src.Name())
			continue
		}
		metrics.RecordFetch(src.Name(), metrics.FetchOK)
		a.logger.Debug("source answered",
			"op", op,
			logging.FieldSource, src.Name(),
			logging.FieldCount, len(games),
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
		return games, nil
	}
	if failures > 0 && failures == len(a.sources) {
		return nil, errors.Join(ErrSourcesExhausted, lastErr)
	}
	return nil, nil
}

func (a *LeagueAdapter) recordSkips(source string, listing scores.Listing) {
	for reason, n := range listing.Reasons {
		metrics.RecordSkipped(source, string(reason), n)
	}
	if listing.Skipped > 0 {
		a.logger.Debug("skipped malformed items", logging.FieldSource, source, logging.FieldCount, listing.Skipped)
	}
}

// filterByCodes keeps games where either side's code is in codes. Each item
// is checked on its own since the feeds cannot filter server-side.
func filterByCodes(games []scores.GameScore, codes []string) []scores.GameScore {
	if len(codes) == 0 {
		return games
	}
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		wanted[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	out := make([]scores.GameScore, 0, len(games))
	for _, g := range games {
		_, home := wanted[scores.TeamCode(g.HomeTeamID)]
		_, away := wanted[scores.TeamCode(g.AwayTeamID)]
		if home || away {
			out = append(out, g)
		}
	}
	return out
}

func filterByWindow(games []scores.GameScore, window scores.DateRange) []scores.GameScore {
	if window.IsZero() {
		return games
	}
	out := make([]scores.GameScore, 0, len(games))
	for _, g := range games {
		if !g.StartTime.IsZero() && window.Contains(g.StartTime) {
			out = append(out, g)
		}
	}
	return out
}
