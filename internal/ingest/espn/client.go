package espn

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fortuna/livescore/internal/extract"
	"github.com/fortuna/livescore/internal/fetch"
	"github.com/fortuna/livescore/internal/scores"
)

const BaseURL = "https://site.api.espn.com/apis/site/v2/sports"

var sportPaths = map[string]string{
	"NBA":  "basketball/nba",
	"WNBA": "basketball/wnba",
	"NFL":  "football/nfl",
	"MLB":  "baseball/mlb",
	"NHL":  "hockey/nhl",
}

// SportPath returns the API path segment for a league.
func SportPath(league string) (string, bool) {
	p, ok := sportPaths[strings.ToUpper(league)]
	return p, ok
}

// Client handles ESPN API requests.
type Client struct {
	baseURL string
	fetcher fetch.Fetcher
}

// New creates a client. An empty baseURL uses the public API.
func New(baseURL string, fetcher fetch.Fetcher) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// FetchScoreboard fetches the scoreboard for a league. A zero window fetches
// ESPN's "today"; otherwise every schedule day the window touches.
func (c *Client) FetchScoreboard(ctx context.Context, league string, window scores.DateRange) (extract.Object, error) {
	path, ok := SportPath(league)
	if !ok {
		return nil, fmt.Errorf("espn: unsupported league %q", league)
	}

	endpoint := fmt.Sprintf("%s/%s/scoreboard", c.baseURL, path)
	if !window.IsZero() {
		q := url.Values{}
		q.Set("dates", dateParam(window))
		q.Set("limit", "500")
		endpoint += "?" + q.Encode()
	}
	return c.get(ctx, endpoint)
}

// FetchSummary fetches the game summary holding the box score.
func (c *Client) FetchSummary(ctx context.Context, league, eventID string) (extract.Object, error) {
	path, ok := SportPath(league)
	if !ok {
		return nil, fmt.Errorf("espn: unsupported league %q", league)
	}
	endpoint := fmt.Sprintf("%s/%s/summary?event=%s", c.baseURL, path, url.QueryEscape(eventID))
	return c.get(ctx, endpoint)
}

func (c *Client) get(ctx context.Context, endpoint string) (extract.Object, error) {
	body, err := c.fetcher.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return extract.DecodeObject(body)
}

// dateParam renders a window as "YYYYMMDD" or "YYYYMMDD-YYYYMMDD". The window
// end is exclusive.
func dateParam(window scores.DateRange) string {
	from := scores.CalendarDate(window.From)
	end := window.To
	if end.After(window.From) {
		end = end.Add(-time.Nanosecond)
	} else {
		end = window.From
	}
	to := scores.CalendarDate(end)
	if from == to {
		return from
	}
	return from + "-" + to
}
