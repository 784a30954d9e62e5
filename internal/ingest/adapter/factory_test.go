package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/livescore/internal/scores"
)

func testFactory() *Factory {
	return NewFactory(
		NewLeagueAdapter("NBA", nil),
		NewLeagueAdapter("NHL", nil),
		NewLeagueAdapter("MLB", nil),
	)
}

func TestFactoryResolvesAliases(t *testing.T) {
	f := testFactory()
	for _, token := range []string{"NBA", "nba", " Nba ", "basketball", "Basketball"} {
		assert.Equal(t, "NBA", f.For(token).League(), token)
		assert.True(t, f.IsKnown(token), token)
	}
	assert.Equal(t, "NHL", f.For("hockey").League())
}

func TestFactoryUnknownReturnsNoop(t *testing.T) {
	f := testFactory()
	for _, token := range []string{"", "cricket", "NFL"} {
		a := f.For(token)
		require.NotNil(t, a)
		_, isNoop := a.(*Noop)
		assert.True(t, isNoop, token)
		assert.False(t, f.IsKnown(token))
	}
	assert.Equal(t, "UNK", f.For("cricket").League())
	assert.Equal(t, "NFL", f.For("football").League())
}

func TestFactoryKnownAndBatch(t *testing.T) {
	f := testFactory()
	assert.Equal(t, []string{"MLB", "NBA", "NHL"}, f.Known())

	batch := f.Batch([]string{"basketball", "hockey", "curling", ""})
	assert.Len(t, batch, 3)
	assert.Equal(t, "NBA", batch["NBA"].League())
	_, isNoop := batch["CURLING"].(*Noop)
	assert.True(t, isNoop)

	assert.Len(t, f.Batch(nil), 3)
}

func TestNoopFabricatesValidGames(t *testing.T) {
	n := NewNoop("xyz")
	featured, err := n.FetchFeatured(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	for _, g := range featured {
		assert.True(t, scores.ValidTeamID(g.HomeTeamID), g.HomeTeamID)
		assert.Equal(t, NoopSource, g.Source)
	}

	recent, err := n.FetchRecent(context.Background(), []string{"abc"})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "XYZ_ABC", recent[0].HomeTeamID)
	assert.Equal(t, scores.StatusFinal, recent[0].Status)

	_, isLive := interface{}(n).(LiveFetcher)
	assert.False(t, isLive)
}

func TestDefaultFactoryCoversSupportedLeagues(t *testing.T) {
	f := NewDefaultFactory(SourceConfig{Leagues: []string{"nba", "hockey", "cricket"}})
	assert.Equal(t, []string{"NBA", "NHL"}, f.Known())

	a, ok := f.Lookup("NBA")
	require.True(t, ok)
	assert.Equal(t, []string{"ESPN API", "CBS Sports"}, a.(*LeagueAdapter).Sources())
}
