// Package ingest turns an ingestion request into a validated, persisted,
// cached and broadcast batch of games.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/fortuna/livescore/internal/cache"
	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/metrics"
	"github.com/fortuna/livescore/internal/publisher"
	"github.com/fortuna/livescore/internal/reconciliation"
	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

// DefaultFeaturedLimit caps featured fetches when a request gives no limit.
const DefaultFeaturedLimit = 10

// sharedFetchTimeout bounds a coalesced fetch, which outlives the caller
// that started it.
const sharedFetchTimeout = 30 * time.Second

// GameStore is the persistence surface the agent writes through.
type GameStore interface {
	// CreateGame returns an error wrapping store.ErrDuplicate when the game
	// already exists.
	CreateGame(ctx context.Context, g scores.Game) error
	GetGame(ctx context.Context, gameID string) (*scores.Game, error)
	UpdateGame(ctx context.Context, g scores.Game) error
}

// Resolver maps league tokens to adapters. *adapter.Factory implements it.
type Resolver interface {
	For(token string) adapter.Adapter
	IsKnown(token string) bool
}

// Request describes one ingestion run.
type Request struct {
	TeamIDs []string
	League  string
	Mode    scores.Mode
	Limit   int
	// Window applies to schedule mode. Zero means now through now+24h.
	Window scores.DateRange
}

// Options wires an Agent. Cache and Broadcaster may be nil.
type Options struct {
	Resolver      Resolver
	Merger        *reconciliation.Engine
	Store         GameStore
	Cache         cache.Cache
	Broadcaster   publisher.Broadcaster
	Logger        *slog.Logger
	FeaturedLimit int
	Now           func() time.Time
}

// Agent orchestrates fetch, merge, persist, broadcast and cache write-back.
type Agent struct {
	resolver      Resolver
	merger        *reconciliation.Engine
	store         GameStore
	cache         cache.Cache
	broadcaster   publisher.Broadcaster
	logger        *slog.Logger
	featuredLimit int
	now           func() time.Time

	inflight singleflight.Group
}

// NewAgent builds an agent. A nil cache is treated as disabled and a nil
// broadcaster drops events.
func NewAgent(opts Options) *Agent {
	a := &Agent{
		resolver:      opts.Resolver,
		merger:        opts.Merger,
		store:         opts.Store,
		cache:         opts.Cache,
		broadcaster:   opts.Broadcaster,
		logger:        logging.OrDiscard(opts.Logger).With(logging.FieldComponent, "ingest_agent"),
		featuredLimit: opts.FeaturedLimit,
		now:           opts.Now,
	}
	if a.merger == nil {
		a.merger = reconciliation.NewEngine()
	}
	if a.cache == nil {
		a.cache = cache.Disabled{}
	}
	if a.broadcaster == nil {
		a.broadcaster = publisher.Noop{}
	}
	if a.featuredLimit <= 0 {
		a.featuredLimit = DefaultFeaturedLimit
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Resolver returns the adapter resolver the agent fetches through.
func (a *Agent) Resolver() Resolver {
	return a.resolver
}

// plan is a resolved request: what to fetch, where to cache it and how to
// announce what was saved.
type plan struct {
	runID    string
	league   string
	mode     scores.Mode
	teamIDs  []string
	limit    int
	window   scores.DateRange
	cacheKey string
	ttl      time.Duration
	// trackChanges loads the stored record before each write so notify can
	// compare.
	trackChanges bool
	notify       func(ctx context.Context, saved savedGame)
}

// savedGame is one item that reached the store.
type savedGame struct {
	game    scores.Game
	created bool
	prev    *scores.Game
	prevErr error
}

// batch is what one fetch produced, shared between coalesced callers.
type batch struct {
	games     []scores.Game
	sources   []string
	unanimity *float64
	errored   int
}

// Run executes one ingestion cycle. It never fails: source, cache, store and
// broadcast problems are logged and surface only as counts.
func (a *Agent) Run(ctx context.Context, req Request) scores.RunSummary {
	p := a.planFor(req)
	p.notify = a.announce
	return a.execute(ctx, p)
}

func (a *Agent) planFor(req Request) plan {
	mode := req.Mode
	if mode == "" {
		mode = scores.ModeLive
	}
	ids := scores.SanitizeTeamIDs(req.TeamIDs)

	league := adapter.Normalize(req.League)
	if league == "" && len(ids) > 0 {
		league = scores.TeamLeague(ids[0])
	}

	p := plan{
		runID:   uuid.NewString(),
		league:  league,
		mode:    mode,
		teamIDs: ids,
		limit:   req.Limit,
		ttl:     cache.TTLFor(mode),
	}
	if p.limit <= 0 {
		p.limit = a.featuredLimit
	}

	switch mode {
	case scores.ModeSchedule:
		p.window = req.Window
		if p.window.IsZero() {
			p.window = scores.DefaultWindow(a.now())
		}
	case scores.ModeFeatured:
		p.cacheKey = cache.FeaturedKey(league)
	default:
		p.cacheKey = cache.TeamsKey(ids)
	}
	return p
}

func (a *Agent) execute(ctx context.Context, p plan) scores.RunSummary {
	start := a.now()
	summary := scores.RunSummary{RunID: p.runID, League: p.league, Mode: p.mode, Games: []scores.Game{}}
	log := a.logger.With(logging.FieldRunID, p.runID, logging.FieldLeague, p.league, logging.FieldMode, string(p.mode))

	defer func() {
		summary.Duration = a.now().Sub(start)
		metrics.RecordRun(p.league, string(p.mode), summary.FromCache, summary.Persisted, summary.Skipped, summary.Errored, summary.Duration)
	}()

	// A caller who asked for teams must never receive unscoped data.
	if p.mode == scores.ModeLive && len(p.teamIDs) == 0 {
		log.Warn("live run without valid team IDs, nothing to do")
		return summary
	}

	if p.cacheKey != "" {
		if games, ok := a.readCache(ctx, p.cacheKey, log); ok {
			summary.FromCache = true
			summary.Games = games
			log.Debug("served from cache", logging.FieldCount, len(games))
			return summary
		}
	}

	b := a.fetchCoalesced(ctx, p, log)
	summary.Sources = b.sources
	summary.Unanimity = b.unanimity
	summary.Errored = b.errored

	seen := make(map[string]struct{}, len(b.games))
	for _, g := range b.games {
		if _, dup := seen[g.GameID]; dup {
			summary.Skipped++
			continue
		}
		seen[g.GameID] = struct{}{}

		saved, err := a.save(ctx, g, p)
		if err != nil {
			summary.Errored++
			log.Warn("persisting game failed", logging.FieldGameID, g.GameID, logging.FieldError, err)
			continue
		}
		if saved.created {
			summary.Persisted++
		} else {
			summary.Skipped++
		}
		summary.Games = append(summary.Games, g)
		p.notify(ctx, saved)
	}

	if p.cacheKey != "" && b.errored == 0 && len(summary.Games) > 0 {
		a.writeCache(ctx, p.cacheKey, summary.Games, p.ttl, log)
	}

	log.Info("ingest run complete",
		"persisted", summary.Persisted,
		"skipped", summary.Skipped,
		"errored", summary.Errored,
		logging.FieldDurationMS, a.now().Sub(start).Milliseconds(),
	)
	return summary
}

// fetchCoalesced shares one upstream fetch between concurrent runs that
// missed the same cache key. Schedule runs are never coalesced.
//
// The shared fetch is detached from the caller that started it, so one
// caller going away does not empty the batch for the others. A cancelled
// caller stops waiting and gets an empty batch.
func (a *Agent) fetchCoalesced(ctx context.Context, p plan, log *slog.Logger) batch {
	if p.cacheKey == "" {
		return a.fetch(ctx, p, log)
	}
	ch := a.inflight.DoChan(p.cacheKey, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return a.fetch(shared, p, log), nil
	})
	select {
	case res := <-ch:
		return res.Val.(batch)
	case <-ctx.Done():
		log.Debug("caller left before the shared fetch finished", logging.FieldError, ctx.Err())
		return batch{}
	}
}

func (a *Agent) fetch(ctx context.Context, p plan, log *slog.Logger) batch {
	at := a.now().UTC()
	switch p.mode {
	case scores.ModeSchedule:
		return a.fetchSchedule(ctx, p, at, log)
	case scores.ModeFeatured:
		return a.fetchFeatured(ctx, p, at, log)
	default:
		return a.fetchLive(ctx, p, at, log)
	}
}

func (a *Agent) fetchLive(ctx context.Context, p plan, at time.Time, log *slog.Logger) batch {
	var (
		reports []scores.GameScore
		b       batch
	)
	for _, group := range groupByLeague(p.teamIDs) {
		ad := a.resolver.For(group.league)
		codes := scores.TeamCodes(group.ids)

		switch f := ad.(type) {
		case adapter.LiveFetcher:
			reports = append(reports, f.FetchLive(ctx, codes)...)
		case adapter.RecentFetcher:
			recent, err := f.FetchRecent(ctx, codes)
			if err != nil {
				b.errored++
				log.Warn("recent games fetch failed", logging.FieldLeague, group.league, logging.FieldError, err)
				continue
			}
			reports = append(reports, recent...)
		default:
			log.Warn("adapter supports neither live nor recent fetch", logging.FieldLeague, group.league)
		}
	}

	merged := a.merger.Merge(reports, p.teamIDs)
	if merged.Unanimity != nil {
		metrics.RecordUnanimity(p.league, *merged.Unanimity)
	}
	b.sources = merged.Sources
	b.unanimity = merged.Unanimity
	for _, g := range merged.Games {
		b.games = append(b.games, g.ToGame(at))
	}
	return b
}

func (a *Agent) fetchFeatured(ctx context.Context, p plan, at time.Time, log *slog.Logger) batch {
	var b batch
	games, err := a.resolver.For(p.league).FetchFeatured(ctx, p.limit)
	if err != nil {
		b.errored++
		log.Warn("featured fetch failed", logging.FieldError, err)
		return b
	}
	b.games, b.sources = scheduleToGames(games, at)
	return b
}

func (a *Agent) fetchSchedule(ctx context.Context, p plan, at time.Time, log *slog.Logger) batch {
	var b batch
	groups := groupByLeague(p.teamIDs)
	if len(groups) == 0 {
		groups = []leagueGroup{{league: p.league}}
	}

	var all []scores.ScheduleGame
	for _, group := range groups {
		games, err := a.resolver.For(group.league).FetchSchedule(ctx, scores.TeamCodes(group.ids), p.window)
		if err != nil {
			b.errored++
			log.Warn("schedule fetch failed", logging.FieldLeague, group.league, logging.FieldError, err)
			continue
		}
		all = append(all, games...)
	}
	b.games, b.sources = scheduleToGames(all, at)
	return b
}

// save creates g. When the game already exists only a live batch refreshes
// the stored row; featured and schedule listings carry no score, so their
// duplicates are skipped untouched.
func (a *Agent) save(ctx context.Context, g scores.Game, p plan) (savedGame, error) {
	saved := savedGame{game: g}
	if p.trackChanges {
		saved.prev, saved.prevErr = a.store.GetGame(ctx, g.GameID)
	}

	err := a.store.CreateGame(ctx, g)
	switch {
	case err == nil:
		saved.created = true
		return saved, nil
	case errors.Is(err, store.ErrDuplicate):
		if p.mode != scores.ModeLive {
			return saved, nil
		}
		// Last writer wins across concurrent live runs.
		if uerr := a.store.UpdateGame(ctx, g); uerr != nil {
			a.logger.Warn("refreshing existing game failed", logging.FieldGameID, g.GameID, logging.FieldError, uerr)
		}
		return saved, nil
	default:
		return saved, err
	}
}

// announce publishes newly created games on their league topic.
func (a *Agent) announce(ctx context.Context, saved savedGame) {
	if !saved.created {
		return
	}
	g := saved.game
	event := publisher.NewEvent(publisher.EventGameSaved, publisher.LeagueTopic(g.League), g)
	a.publish(ctx, event)
}

func (a *Agent) publish(ctx context.Context, event publisher.Event) {
	if err := a.broadcaster.Publish(ctx, event.Topic, event); err != nil {
		metrics.RecordBroadcastFailure(event.Type)
		a.logger.Warn("broadcast failed",
			"topic", event.Topic,
			logging.FieldGameID, event.Game.GameID,
			logging.FieldError, err,
		)
	}
}

func (a *Agent) readCache(ctx context.Context, key string, log *slog.Logger) ([]scores.Game, bool) {
	if !a.cache.Enabled() {
		return nil, false
	}
	raw, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed", "key", key, logging.FieldError, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	games, err := cache.DecodeGames(raw)
	if err != nil {
		log.Warn("discarding unreadable cache entry", "key", key, logging.FieldError, err)
		return nil, false
	}
	return games, true
}

func (a *Agent) writeCache(ctx context.Context, key string, games []scores.Game, ttl time.Duration, log *slog.Logger) {
	if !a.cache.Enabled() {
		return
	}
	raw, err := cache.EncodeGames(games)
	if err == nil {
		err = a.cache.Set(ctx, key, raw, ttl)
	}
	if err != nil {
		log.Warn("cache write failed", "key", key, logging.FieldError, err)
	}
}

// BoxScore fetches a finished game's box score through the league adapter.
func (a *Agent) BoxScore(ctx context.Context, league, externalID string) (*scores.BoxScore, error) {
	if !a.resolver.IsKnown(league) {
		return nil, fmt.Errorf("box score for %q: %w", league, adapter.ErrBoxScoreUnavailable)
	}
	return a.resolver.For(league).FetchBoxScore(ctx, externalID)
}

type leagueGroup struct {
	league string
	ids    []string
}

// groupByLeague splits sanitized team IDs by league, in league order.
func groupByLeague(ids []string) []leagueGroup {
	byLeague := map[string][]string{}
	for _, id := range ids {
		league := scores.TeamLeague(id)
		byLeague[league] = append(byLeague[league], id)
	}
	groups := make([]leagueGroup, 0, len(byLeague))
	for league, members := range byLeague {
		groups = append(groups, leagueGroup{league: league, ids: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].league < groups[j].league })
	return groups
}

// scheduleToGames maps schedule entries to the persisted shape with zero
// scores, and lists distinct source tags in first-seen order.
func scheduleToGames(in []scores.ScheduleGame, at time.Time) ([]scores.Game, []string) {
	games := make([]scores.Game, 0, len(in))
	var sources []string
	seen := map[string]struct{}{}
	for _, s := range in {
		games = append(games, s.ToGame(at))
		if _, ok := seen[s.Source]; !ok {
			seen[s.Source] = struct{}{}
			sources = append(sources, s.Source)
		}
	}
	return games, sources
}
