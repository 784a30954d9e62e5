package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/publisher"
	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

var t0 = time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC)

func report(league, away, home string, awayPts, homePts int, status scores.Status, source string) scores.GameScore {
	start := t0
	return scores.GameScore{
		GameID:     scores.GameID(league, source, away, home, start),
		League:     league,
		HomeTeamID: scores.TeamID(league, home),
		AwayTeamID: scores.TeamID(league, away),
		HomePoints: homePts,
		AwayPoints: awayPts,
		Status:     status,
		StartTime:  start,
		Source:     source,
	}
}

func schedule(g scores.GameScore) scores.ScheduleGame {
	return scores.Listing{Games: []scores.GameScore{g}}.ScheduleGames()[0]
}

// fakeAdapter is a live-capable adapter with scripted responses.
type fakeAdapter struct {
	league string

	mu            sync.Mutex
	live          []scores.GameScore
	featured      []scores.ScheduleGame
	featuredErr   error
	sched         []scores.ScheduleGame
	schedErr      error
	liveCalls     int
	featuredCalls int
	schedCalls    int
	lastLimit     int
	lastCodes     []string
	lastWindow    scores.DateRange

	// block, when set, holds FetchLive until closed and signals started.
	started chan struct{}
	block   chan struct{}
}

func (f *fakeAdapter) League() string { return f.league }

func (f *fakeAdapter) FetchLive(ctx context.Context, codes []string) []scores.GameScore {
	f.mu.Lock()
	f.liveCalls++
	f.lastCodes = codes
	f.mu.Unlock()
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	// Real adapters swallow context errors and report nothing.
	if ctx.Err() != nil {
		return nil
	}
	return f.live
}

func (f *fakeAdapter) FetchFeatured(_ context.Context, limit int) ([]scores.ScheduleGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.featuredCalls++
	f.lastLimit = limit
	return f.featured, f.featuredErr
}

func (f *fakeAdapter) FetchSchedule(_ context.Context, codes []string, window scores.DateRange) ([]scores.ScheduleGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedCalls++
	f.lastCodes = codes
	f.lastWindow = window
	return f.sched, f.schedErr
}

func (f *fakeAdapter) FetchBoxScore(context.Context, string) (*scores.BoxScore, error) {
	return nil, adapter.ErrBoxScoreUnavailable
}

func (f *fakeAdapter) calls() (live, featured, sched int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveCalls, f.featuredCalls, f.schedCalls
}

// recentAdapter only supports the older recent-games call.
type recentAdapter struct {
	league string
	games  []scores.GameScore
	err    error
}

func (r *recentAdapter) League() string { return r.league }
func (r *recentAdapter) FetchFeatured(context.Context, int) ([]scores.ScheduleGame, error) {
	return nil, errors.New("unsupported")
}
func (r *recentAdapter) FetchSchedule(context.Context, []string, scores.DateRange) ([]scores.ScheduleGame, error) {
	return nil, errors.New("unsupported")
}
func (r *recentAdapter) FetchBoxScore(context.Context, string) (*scores.BoxScore, error) {
	return nil, adapter.ErrBoxScoreUnavailable
}
func (r *recentAdapter) FetchRecent(context.Context, []string) ([]scores.GameScore, error) {
	return r.games, r.err
}

// memStore is an in-memory GameStore and ProfileStore.
type memStore struct {
	mu        sync.Mutex
	games     map[string]scores.Game
	profiles  map[string]*store.UserProfile
	createErr error
	getErr    error
	creates   int
	updates   int
}

func newMemStore() *memStore {
	return &memStore{games: map[string]scores.Game{}, profiles: map[string]*store.UserProfile{}}
}

func (m *memStore) CreateGame(_ context.Context, g scores.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.games[g.GameID]; ok {
		return fmt.Errorf("creating game %s: %w", g.GameID, store.ErrDuplicate)
	}
	m.games[g.GameID] = g
	return nil
}

func (m *memStore) GetGame(_ context.Context, id string) (*scores.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, store.ErrNotFound)
	}
	return &g, nil
}

func (m *memStore) UpdateGame(_ context.Context, g scores.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.games[g.GameID] = g
	return nil
}

func (m *memStore) GetUserProfile(_ context.Context, id string) (*store.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return p, nil
}

// countingCache is an in-memory cache that counts every call.
type countingCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	gets    int
	sets    int
	setErr  error
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *countingCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *countingCache) DeleteMatching(context.Context, string) (int, error) { return 0, nil }
func (c *countingCache) Enabled() bool                                      { return true }

func (c *countingCache) counts() (gets, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets, c.sets
}

// recordingBroadcaster keeps every event.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publisher.Event
	err    error
}

func (r *recordingBroadcaster) Publish(_ context.Context, topic string, ev publisher.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Topic = topic
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingBroadcaster) all() []publisher.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publisher.Event(nil), r.events...)
}
