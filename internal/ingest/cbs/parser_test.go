package cbs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/livescore/internal/extract"
	"github.com/fortuna/livescore/internal/fetch"
	"github.com/fortuna/livescore/internal/scores"
)

const scoreboardPage = `<html><body>
<div class="single-score-card" data-game-id="NBA_20261015_LAL@BOS">
  <div class="game-status">3rd 5:32</div>
  <table><tbody>
    <tr><td class="team"><a class="team-name-link">Lakers</a></td><td class="total">68</td></tr>
    <tr><td class="team"><a class="team-name-link">Celtics</a></td><td class="total">70</td></tr>
  </tbody></table>
</div>
<div class="single-score-card">
  <div class="game-status pregame">7:30 pm ET</div>
  <table><tbody>
    <tr><td class="team"><a class="team-name-link">Golden St.</a></td><td class="total"></td></tr>
    <tr><td class="team"><a class="team-name-link">New York</a></td><td class="total"></td></tr>
  </tbody></table>
</div>
<div class="single-score-card">
  <table><tbody>
    <tr><td class="team"><a class="team-name-link">Heat</a></td></tr>
  </tbody></table>
</div>
<div class="single-score-card">
  <div class="game-status">Final</div>
  <table><tbody>
    <tr><td class="team"><a class="team-name-link">Heat</a></td><td class="total">80</td></tr>
    <tr><td class="team"><a class="team-name-link">Team USA</a></td><td class="total">90</td></tr>
  </tbody></table>
</div>
</body></html>`

func TestParseScoreboard(t *testing.T) {
	doc, err := extract.Document([]byte(scoreboardPage))
	require.NoError(t, err)

	src := NewSource(nil, "", "nba", nil)
	day := scores.ScheduleDay(time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC))
	listing := scores.Collect(src.parser.ParseScoreboard(doc, day))

	require.Len(t, listing.Games, 1, "New York is ambiguous to the NBA table and is synthesized")
	assert.Equal(t, 3, listing.Skipped)

	g := listing.Games[0]
	assert.Equal(t, "NBA_CBSSPORTS_LAL_BOS_20261015", g.GameID)
	assert.Equal(t, "NBA_BOS", g.HomeTeamID)
	assert.Equal(t, 70, g.HomePoints)
	assert.Equal(t, 68, g.AwayPoints)
	assert.Equal(t, scores.StatusInProgress, g.Status)
	assert.Equal(t, 3, g.Period)
	assert.Equal(t, "5:32", g.Clock)
	assert.Equal(t, "NBA_20261015_LAL@BOS", g.ExternalID)
	assert.Equal(t, SourceName, g.Source)
}

func TestStartTimeFromPrintedTime(t *testing.T) {
	p := Parser{Zone: scores.ScheduleZone()}
	day := scores.ScheduleDay(time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC), p.startTime(day, "7:30 pm ET"))
	assert.Equal(t, time.Date(2026, 10, 15, 16, 5, 0, 0, time.UTC), p.startTime(day, "12:05 PM ET"))
	assert.True(t, p.startTime(time.Time{}, "7:30 pm ET").IsZero())
	assert.Equal(t, "20261015", scores.CalendarDate(p.startTime(day, "Final")))
}

func TestUndatedPageOmitsDateFromID(t *testing.T) {
	doc, err := extract.Document([]byte(scoreboardPage))
	require.NoError(t, err)

	src := NewSource(nil, "", "NBA", nil)
	listing := scores.Collect(src.parser.ParseScoreboard(doc, time.Time{}))
	require.NotEmpty(t, listing.Games)
	assert.Equal(t, "NBA_CBSSPORTS_LAL_BOS", listing.Games[0].GameID)
}

func TestScheduleFetchesOnePagePerDayWithCap(t *testing.T) {
	var pages atomic.Int32
	var lastPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		pages.Add(1)
		lastPath.Store(r.URL.Path)
		_, _ = w.Write([]byte(scoreboardPage))
	}))
	defer srv.Close()

	src := NewSource(fetch.NewHTTP(fetch.Options{}), srv.URL, "NBA", nil)
	from := time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)
	listing, err := src.Schedule(context.Background(), scores.DateRange{From: from, To: from.AddDate(0, 0, 10)})
	require.NoError(t, err)

	assert.Equal(t, int32(MaxScheduleDays), pages.Load())
	assert.Len(t, listing.Games, MaxScheduleDays)
	assert.Equal(t, "/nba/scoreboard/20261021/", lastPath.Load())
}

func TestScheduleDays(t *testing.T) {
	from := time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)
	days := scheduleDays(scores.DefaultWindow(from))
	require.Len(t, days, 2)
	assert.Equal(t, "20261015", scores.CalendarDate(days[0]))
	assert.Equal(t, "20261016", scores.CalendarDate(days[1]))
}

func TestScheduleFailsWhenEveryDayFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "robots.txt") {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewSource(fetch.NewHTTP(fetch.Options{}), srv.URL, "NBA", nil)
	_, err := src.Schedule(context.Background(), scores.DefaultWindow(time.Now()))
	assert.Error(t, err)
}
