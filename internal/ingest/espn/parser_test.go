package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/livescore/internal/extract"
	"github.com/fortuna/livescore/internal/fetch"
	"github.com/fortuna/livescore/internal/ingest/status"
	"github.com/fortuna/livescore/internal/scores"
)

const scoreboardFixture = `{
  "events": [
    {
      "id": "401",
      "date": "2026-10-15T23:30Z",
      "status": {"period": 3, "displayClock": "3:45",
        "type": {"state": "in", "completed": false, "shortDetail": "3:45 - 3rd"}},
      "competitions": [{"competitors": [
        {"homeAway": "home", "score": "70", "team": {"abbreviation": "BOS"}},
        {"homeAway": "away", "score": "68", "team": {"abbreviation": "LAL"}}
      ]}]
    },
    {
      "id": "402",
      "date": "2026-10-16T23:30Z",
      "status": {"type": {"state": "pre", "shortDetail": "10/16 - 7:30 PM EDT"}},
      "competitions": [{"competitors": [
        {"homeAway": "home", "score": "0", "team": {"abbreviation": "GS"}},
        {"homeAway": "away", "score": "0", "team": {"abbreviation": "NY"}}
      ]}]
    },
    {
      "id": "403",
      "competitions": [{"competitors": [
        {"homeAway": "home", "team": {"abbreviation": "MIA"}}
      ]}]
    },
    {
      "id": "404",
      "date": "2026-10-15T20:00Z",
      "status": {"type": {"state": "post", "completed": true, "shortDetail": "Final"}},
      "competitions": [{"competitors": [
        {"homeAway": "home", "score": "90", "team": {"displayName": "Team USA"}},
        {"homeAway": "away", "score": "80", "team": {"abbreviation": "MIA"}}
      ]}]
    },
    "garbage"
  ]
}`

func TestParseScoreboard(t *testing.T) {
	p := NewSource(nil, "NBA", nil).parser

	data := mustDecode(t, scoreboardFixture)
	listing := scores.Collect(p.ParseScoreboard(data))

	require.Len(t, listing.Games, 2)
	assert.Equal(t, 3, listing.Skipped)
	assert.Equal(t, 2, listing.Reasons[scores.SkipMalformed])
	assert.Equal(t, 1, listing.Reasons[scores.SkipInvalidTeam])

	live := listing.Games[0]
	assert.Equal(t, "NBA_ESPNAPI_LAL_BOS_20261015", live.GameID)
	assert.Equal(t, "NBA_BOS", live.HomeTeamID)
	assert.Equal(t, "NBA_LAL", live.AwayTeamID)
	assert.Equal(t, 70, live.HomePoints)
	assert.Equal(t, 68, live.AwayPoints)
	assert.Equal(t, scores.StatusInProgress, live.Status)
	assert.Equal(t, 3, live.Period)
	assert.Equal(t, "3:45", live.Clock)
	assert.Equal(t, "401", live.ExternalID)
	assert.Equal(t, SourceName, live.Source)

	upcoming := listing.Games[1]
	assert.Equal(t, scores.StatusScheduled, upcoming.Status)
	assert.Equal(t, "NBA_GSW", upcoming.HomeTeamID)
	assert.Equal(t, "NBA_NYK", upcoming.AwayTeamID)
}

func TestClassifyFallsBackToState(t *testing.T) {
	p := Parser{League: "NHL"}
	d := p.classify(mustDecode(t, `{"period": 2, "displayClock": "8:12", "type": {"state": "in"}}`))
	assert.Equal(t, scores.StatusInProgress, d.Status)
	assert.Equal(t, 2, d.Period)
	assert.Equal(t, "8:12", d.Clock)

	d = p.classify(mustDecode(t, `{"type": {"state": "post", "completed": true, "shortDetail": "Final/SO"}}`))
	assert.Equal(t, scores.StatusFinal, d.Status)
	assert.Equal(t, status.LabelShootout, d.PeriodLabel)

	d = p.classify(mustDecode(t, `{"type": {"state": "post", "completed": true, "shortDetail": "Postponed"}}`))
	assert.Equal(t, scores.StatusScheduled, d.Status)
}

func TestParseSummary(t *testing.T) {
	p := NewSource(nil, "NBA", nil).parser
	at := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	data := mustDecode(t, `{"header": {"competitions": [{"date": "2026-10-15T23:30Z", "competitors": [
		{"homeAway": "home", "score": "112", "team": {"abbreviation": "BOS"},
		 "linescores": [{"displayValue": "30"}, {"displayValue": "28"}, {"displayValue": "27"}, {"displayValue": "27"}]},
		{"homeAway": "away", "score": "104", "team": {"abbreviation": "LAL"},
		 "linescores": [{"value": 25}, {"value": 26}, {"value": 30}, {"value": 23}]}
	]}]}}`)

	box, err := p.ParseSummary("401", data, at)
	require.NoError(t, err)
	assert.Equal(t, "NBA_ESPNAPI_LAL_BOS_20261015", box.GameID)
	assert.Equal(t, 112, box.HomePoints)
	assert.Equal(t, []int{30, 28, 27, 27}, box.HomeByPeriod)
	assert.Equal(t, []int{25, 26, 30, 23}, box.AwayByPeriod)
	assert.Equal(t, at, box.UpdatedAt)

	_, err = p.ParseSummary("401", mustDecode(t, `{"header": {}}`), at)
	assert.Error(t, err)
}

func TestDateParam(t *testing.T) {
	from := time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, "20261015-20261016", dateParam(scores.DefaultWindow(from)))

	day := scores.ScheduleDay(from)
	assert.Equal(t, "20261015", dateParam(scores.DateRange{From: day, To: day.AddDate(0, 0, 1)}))
}

func TestSourceScheduleRequestsDateRange(t *testing.T) {
	var gotPath, gotDates string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		gotPath = r.URL.Path
		gotDates = r.URL.Query().Get("dates")
		_, _ = w.Write([]byte(scoreboardFixture))
	}))
	defer srv.Close()

	src := NewSource(New(srv.URL, fetch.NewHTTP(fetch.Options{})), "NBA", nil)
	from := time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)
	listing, err := src.Schedule(context.Background(), scores.DefaultWindow(from))
	require.NoError(t, err)

	assert.Equal(t, "/basketball/nba/scoreboard", gotPath)
	assert.Equal(t, "20261015-20261016", gotDates)
	assert.Len(t, listing.Games, 2)
}

func TestSourceSurfacesFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	src := NewSource(New(srv.URL, fetch.NewHTTP(fetch.Options{})), "NBA", nil)
	_, err := src.Scoreboard(context.Background())
	assert.Error(t, err)
}

func mustDecode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	obj, err := extract.DecodeObject([]byte(s))
	require.NoError(t, err)
	return obj
}
