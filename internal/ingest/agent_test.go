package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/livescore/internal/cache"
	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/publisher"
	"github.com/fortuna/livescore/internal/scores"
)

type harness struct {
	agent       *Agent
	adapter     *fakeAdapter
	store       *memStore
	cache       *countingCache
	broadcaster *recordingBroadcaster
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		adapter:     &fakeAdapter{league: "NBA"},
		store:       newMemStore(),
		cache:       newCountingCache(),
		broadcaster: &recordingBroadcaster{},
	}
	h.agent = NewAgent(Options{
		Resolver:    adapter.NewFactory(h.adapter),
		Store:       h.store,
		Cache:       h.cache,
		Broadcaster: h.broadcaster,
		Now:         func() time.Time { return t0 },
	})
	return h
}

func TestLiveRunWithoutValidTeamsIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.adapter.featured = []scores.ScheduleGame{schedule(report("NBA", "LAL", "BOS", 0, 0, scores.StatusScheduled, "ESPN API"))}

	summary := h.agent.Run(context.Background(), Request{
		TeamIDs: []string{"lakers", "nba-lal", "", "NBA_"},
		League:  "NBA",
		Mode:    scores.ModeLive,
	})

	assert.True(t, summary.Empty())
	assert.Empty(t, summary.Games)
	live, featured, sched := h.adapter.calls()
	assert.Zero(t, live)
	assert.Zero(t, featured, "featured path must not be used as a fallback")
	assert.Zero(t, sched)
	gets, sets := h.cache.counts()
	assert.Zero(t, gets)
	assert.Zero(t, sets)
}

func TestLiveRunPersistsBroadcastsAndCaches(t *testing.T) {
	h := newHarness(t)
	h.adapter.live = []scores.GameScore{
		report("NBA", "LAL", "BOS", 68, 70, scores.StatusInProgress, "ESPN API"),
		report("NBA", "LAL", "PHX", 90, 88, scores.StatusFinal, "ESPN API"),
	}

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{" nba_lal ", "NBA_LAL"}, Mode: scores.ModeLive})

	assert.Equal(t, 2, summary.Persisted)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Errored)
	assert.False(t, summary.FromCache)
	assert.Equal(t, "NBA", summary.League)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, []string{"ESPN API"}, summary.Sources)
	require.Len(t, summary.Games, 2)
	assert.Equal(t, t0, summary.Games[0].CachedAt)
	assert.Equal(t, []string{"LAL"}, h.adapter.lastCodes)

	events := h.broadcaster.all()
	require.Len(t, events, 2)
	assert.Equal(t, "scores:league:NBA", events[0].Topic)
	assert.Equal(t, publisher.EventGameSaved, events[0].Type)
	assert.ElementsMatch(t, []string{"NBA_BOS", "NBA_LAL"}, events[0].TeamIDs)

	key := cache.TeamsKey([]string{"NBA_LAL"})
	require.Contains(t, h.cache.entries, key)
	assert.Equal(t, cache.LiveTTL, h.cache.ttls[key])
	cached, err := cache.DecodeGames(h.cache.entries[key])
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestLiveRunMergesDuplicateReports(t *testing.T) {
	h := newHarness(t)
	a := report("NBA", "LAL", "BOS", 68, 70, scores.StatusInProgress, "ESPN API")
	b := a
	b.HomePoints = 72
	b.StartTime = a.StartTime.Add(time.Minute)
	h.adapter.live = []scores.GameScore{a, b}

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})

	require.Len(t, summary.Games, 1)
	assert.Equal(t, 72, summary.Games[0].HomePoints)
	require.NotNil(t, summary.Unanimity)
	assert.Equal(t, 1.0, *summary.Unanimity)
}

func TestRepeatedLiveRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.agent.cache = cache.Disabled{}
	h.adapter.live = []scores.GameScore{
		report("NBA", "LAL", "BOS", 68, 70, scores.StatusInProgress, "ESPN API"),
		report("NBA", "LAL", "PHX", 90, 88, scores.StatusFinal, "ESPN API"),
	}
	req := Request{TeamIDs: []string{"NBA_LAL"}, Mode: scores.ModeLive}

	first := h.agent.Run(context.Background(), req)
	second := h.agent.Run(context.Background(), req)

	assert.Equal(t, 2, first.Persisted)
	assert.Zero(t, second.Persisted)
	assert.Equal(t, 2, second.Skipped)
	assert.Zero(t, second.Errored)
	assert.Len(t, second.Games, 2)
	assert.Len(t, h.broadcaster.all(), 2, "only newly persisted games are broadcast")
	assert.Equal(t, 2, h.store.updates, "duplicates refresh the stored row")
}

func TestCacheHitSkipsAdapter(t *testing.T) {
	h := newHarness(t)
	stored := []scores.Game{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API").ToGame(t0)}
	raw, err := cache.EncodeGames(stored)
	require.NoError(t, err)
	h.cache.entries[cache.TeamsKey([]string{"NBA_BOS"})] = raw

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})

	assert.True(t, summary.FromCache)
	require.Len(t, summary.Games, 1)
	assert.True(t, stored[0].StartTime.Equal(summary.Games[0].StartTime))
	live, _, _ := h.adapter.calls()
	assert.Zero(t, live)
	assert.Zero(t, h.store.creates)
}

func TestUnreadableCacheEntryIsAMiss(t *testing.T) {
	h := newHarness(t)
	h.cache.entries[cache.TeamsKey([]string{"NBA_BOS"})] = "not json"
	h.adapter.live = []scores.GameScore{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API")}

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})

	assert.False(t, summary.FromCache)
	assert.Equal(t, 1, summary.Persisted)
}

func TestScheduleRunsNeverTouchCache(t *testing.T) {
	h := newHarness(t)
	g := report("NBA", "LAL", "BOS", 0, 0, scores.StatusScheduled, "ESPN API")
	h.adapter.live = []scores.GameScore{g}
	h.adapter.sched = []scores.ScheduleGame{schedule(g)}

	h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_LAL"}, Mode: scores.ModeLive})
	gets, sets := h.cache.counts()
	require.Equal(t, 1, gets)
	require.Equal(t, 1, sets)

	for i := 0; i < 2; i++ {
		summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_LAL"}, Mode: scores.ModeSchedule})
		assert.False(t, summary.FromCache)
		assert.Len(t, summary.Games, 1)
	}

	afterGets, afterSets := h.cache.counts()
	assert.Equal(t, gets, afterGets)
	assert.Equal(t, sets, afterSets)
	_, _, sched := h.adapter.calls()
	assert.Equal(t, 2, sched)
}

func TestScheduleDefaultWindowAndZeroScores(t *testing.T) {
	h := newHarness(t)
	g := report("NBA", "LAL", "BOS", 10, 12, scores.StatusScheduled, "CBS Sports")
	h.adapter.sched = []scores.ScheduleGame{schedule(g)}

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_LAL"}, Mode: scores.ModeSchedule})

	assert.Equal(t, scores.DateRange{From: t0, To: t0.Add(24 * time.Hour)}, h.adapter.lastWindow)
	require.Len(t, summary.Games, 1)
	assert.Zero(t, summary.Games[0].HomePoints)
	assert.Equal(t, scores.StatusScheduled, summary.Games[0].Status)
	assert.Equal(t, []string{"CBS Sports"}, summary.Sources)
}

func TestScheduleExplicitWindowWithoutTeams(t *testing.T) {
	h := newHarness(t)
	window := scores.DateRange{From: t0.Add(48 * time.Hour), To: t0.Add(72 * time.Hour)}

	h.agent.Run(context.Background(), Request{League: "basketball", Mode: scores.ModeSchedule, Window: window})

	assert.Equal(t, window, h.adapter.lastWindow)
	assert.Empty(t, h.adapter.lastCodes)
}

func TestFeaturedRunUsesLimitAndFeaturedKey(t *testing.T) {
	h := newHarness(t)
	h.adapter.featured = []scores.ScheduleGame{
		schedule(report("NBA", "LAL", "BOS", 0, 0, scores.StatusScheduled, "ESPN API")),
		schedule(report("NBA", "NYK", "MIA", 0, 0, scores.StatusInProgress, "ESPN API")),
	}

	summary := h.agent.Run(context.Background(), Request{League: "nba", Mode: scores.ModeFeatured, TeamIDs: []string{"NBA_LAL"}})

	assert.Equal(t, DefaultFeaturedLimit, h.adapter.lastLimit)
	assert.Equal(t, 2, summary.Persisted)
	assert.Equal(t, scores.StatusInProgress, summary.Games[1].Status, "featured keeps the reported status")
	key := cache.FeaturedKey("NBA")
	require.Contains(t, h.cache.entries, key)
	assert.Equal(t, cache.FeaturedTTL, h.cache.ttls[key])

	h.agent.Run(context.Background(), Request{League: "NBA", Mode: scores.ModeFeatured, Limit: 3})
	_, featured, _ := h.adapter.calls()
	assert.Equal(t, 1, featured, "second featured run is served from cache")
}

func TestFeaturedFetchErrorCountsAndSkipsCache(t *testing.T) {
	h := newHarness(t)
	h.adapter.featuredErr = adapter.ErrSourcesExhausted

	summary := h.agent.Run(context.Background(), Request{League: "NBA", Mode: scores.ModeFeatured})

	assert.Equal(t, 1, summary.Errored)
	assert.Empty(t, summary.Games)
	_, sets := h.cache.counts()
	assert.Zero(t, sets)
}

type scriptedSource struct {
	name    string
	listing scores.Listing
	err     error
}

func (s *scriptedSource) Name() string { return s.name }
func (s *scriptedSource) Scoreboard(context.Context) (scores.Listing, error) {
	return s.listing, s.err
}
func (s *scriptedSource) Schedule(context.Context, scores.DateRange) (scores.Listing, error) {
	return s.listing, s.err
}

func TestFallbackToSecondarySource(t *testing.T) {
	primary := &scriptedSource{name: "ESPN API", err: errors.New("503 from upstream")}
	secondary := &scriptedSource{name: "CBS Sports", listing: scores.Listing{Games: []scores.GameScore{
		report("NBA", "LAL", "BOS", 50, 48, scores.StatusInProgress, "CBS Sports"),
	}}}
	agent := NewAgent(Options{
		Resolver: adapter.NewFactory(adapter.NewLeagueAdapter("NBA", nil, primary, secondary)),
		Store:    newMemStore(),
		Now:      func() time.Time { return t0 },
	})

	summary := agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})

	require.Len(t, summary.Games, 1)
	assert.Equal(t, "CBS Sports", summary.Games[0].Source)
	assert.Zero(t, summary.Errored)
}

func TestRecentFetchUsedWithoutLiveSupport(t *testing.T) {
	recent := &recentAdapter{league: "NHL", games: []scores.GameScore{
		report("NHL", "BOS", "TOR", 3, 2, scores.StatusFinal, "ESPN API"),
	}}
	agent := NewAgent(Options{Resolver: adapter.NewFactory(recent), Store: newMemStore()})

	summary := agent.Run(context.Background(), Request{TeamIDs: []string{"NHL_TOR"}})
	assert.Equal(t, 1, summary.Persisted)

	recent.err = errors.New("boom")
	agent.cache = cache.Disabled{}
	summary = agent.Run(context.Background(), Request{TeamIDs: []string{"NHL_BOS"}})
	assert.Equal(t, 1, summary.Errored)
	assert.Empty(t, summary.Games)
}

func TestMultiLeagueTeamsResolveEachAdapter(t *testing.T) {
	nba := &fakeAdapter{league: "NBA", live: []scores.GameScore{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API")}}
	nhl := &fakeAdapter{league: "NHL", live: []scores.GameScore{report("NHL", "BOS", "TOR", 1, 0, scores.StatusInProgress, "ESPN API")}}
	agent := NewAgent(Options{Resolver: adapter.NewFactory(nba, nhl), Store: newMemStore()})

	summary := agent.Run(context.Background(), Request{TeamIDs: []string{"NHL_BOS", "NBA_BOS"}})

	assert.Equal(t, 2, summary.Persisted)
	assert.Equal(t, []string{"BOS"}, nba.lastCodes)
	assert.Equal(t, []string{"BOS"}, nhl.lastCodes)
}

func TestFailuresNeverAbortTheRun(t *testing.T) {
	h := newHarness(t)
	h.broadcaster.err = errors.New("broker down")
	h.cache.setErr = errors.New("redis down")
	h.adapter.live = []scores.GameScore{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API")}

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})

	assert.Equal(t, 1, summary.Persisted)
	assert.Zero(t, summary.Errored)
	assert.Len(t, summary.Games, 1)
}

func TestStoreErrorCountsAsErrored(t *testing.T) {
	h := newHarness(t)
	h.store.createErr = errors.New("connection refused")
	h.adapter.live = []scores.GameScore{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API")}

	summary := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})

	assert.Equal(t, 1, summary.Errored)
	assert.Empty(t, summary.Games)
	assert.Empty(t, h.broadcaster.all())
}

func TestDuplicateWithinBatchIsSkipped(t *testing.T) {
	h := newHarness(t)
	g := schedule(report("NBA", "LAL", "BOS", 0, 0, scores.StatusScheduled, "ESPN API"))
	h.adapter.sched = []scores.ScheduleGame{g, g}

	summary := h.agent.Run(context.Background(), Request{League: "NBA", Mode: scores.ModeSchedule})

	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, h.store.creates)
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	h := newHarness(t)
	h.agent.cache = cache.Disabled{}
	h.adapter.live = []scores.GameScore{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API")}
	h.adapter.started = make(chan struct{})
	h.adapter.block = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]scores.RunSummary, 2)
	run := func(i int) {
		defer wg.Done()
		results[i] = h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}})
	}

	wg.Add(2)
	go run(0)
	<-h.adapter.started
	go run(1)
	time.Sleep(50 * time.Millisecond)
	close(h.adapter.block)
	wg.Wait()

	live, _, _ := h.adapter.calls()
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, results[0].Persisted+results[1].Persisted)
	assert.Equal(t, 1, results[0].Skipped+results[1].Skipped)
}

func TestCancelledCallerDoesNotEmptySharedFetch(t *testing.T) {
	h := newHarness(t)
	h.agent.cache = cache.Disabled{}
	h.adapter.live = []scores.GameScore{report("NBA", "LAL", "BOS", 1, 2, scores.StatusInProgress, "ESPN API")}
	h.adapter.started = make(chan struct{})
	h.adapter.block = make(chan struct{})
	req := Request{TeamIDs: []string{"NBA_BOS"}}

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan scores.RunSummary, 1)
	go func() { doneA <- h.agent.Run(ctxA, req) }()
	<-h.adapter.started

	doneB := make(chan scores.RunSummary, 1)
	go func() { doneB <- h.agent.Run(context.Background(), req) }()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	first := <-doneA
	assert.Empty(t, first.Games)
	assert.Zero(t, first.Persisted)

	close(h.adapter.block)
	second := <-doneB
	assert.Len(t, second.Games, 1)
	assert.Equal(t, 1, second.Persisted)

	live, _, _ := h.adapter.calls()
	assert.Equal(t, 1, live)
}

func TestFeaturedRunKeepsStoredLiveScore(t *testing.T) {
	h := newHarness(t)
	g := report("NBA", "LAL", "BOS", 68, 70, scores.StatusInProgress, "ESPN API")
	h.adapter.live = []scores.GameScore{g}
	h.adapter.featured = []scores.ScheduleGame{schedule(g)}

	live := h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_BOS"}, Mode: scores.ModeLive})
	require.Equal(t, 1, live.Persisted)

	featured := h.agent.Run(context.Background(), Request{League: "NBA", Mode: scores.ModeFeatured})
	assert.Zero(t, featured.Persisted)
	assert.Equal(t, 1, featured.Skipped)

	stored, err := h.store.GetGame(context.Background(), g.GameID)
	require.NoError(t, err)
	assert.Equal(t, 70, stored.HomePoints)
	assert.Equal(t, 68, stored.AwayPoints)
	assert.Zero(t, h.store.updates)
}

func TestScheduleRunKeepsStoredFinalScore(t *testing.T) {
	h := newHarness(t)
	h.agent.cache = cache.Disabled{}
	g := report("NBA", "LAL", "PHX", 90, 88, scores.StatusFinal, "ESPN API")
	h.adapter.live = []scores.GameScore{g}
	h.adapter.sched = []scores.ScheduleGame{schedule(g)}

	h.agent.Run(context.Background(), Request{TeamIDs: []string{"NBA_LAL"}, Mode: scores.ModeLive})
	summary := h.agent.Run(context.Background(), Request{League: "NBA", Mode: scores.ModeSchedule})
	assert.Equal(t, 1, summary.Skipped)

	stored, err := h.store.GetGame(context.Background(), g.GameID)
	require.NoError(t, err)
	assert.Equal(t, 88, stored.HomePoints)
	assert.Equal(t, 90, stored.AwayPoints)
	assert.Equal(t, scores.StatusFinal, stored.Status)
}

func TestBoxScore(t *testing.T) {
	h := newHarness(t)

	_, err := h.agent.BoxScore(context.Background(), "NBA", "401")
	assert.ErrorIs(t, err, adapter.ErrBoxScoreUnavailable)

	_, err = h.agent.BoxScore(context.Background(), "CRICKET", "401")
	assert.ErrorIs(t, err, adapter.ErrBoxScoreUnavailable)
}
