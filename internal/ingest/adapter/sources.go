package adapter

import (
	"log/slog"
	"strings"

	"github.com/fortuna/livescore/internal/fetch"
	"github.com/fortuna/livescore/internal/ingest/cbs"
	"github.com/fortuna/livescore/internal/ingest/espn"
	"github.com/fortuna/livescore/internal/ingest/teams"
)

// DefaultLeagues are served when no league list is configured.
var DefaultLeagues = []string{"NBA", "WNBA", "NFL", "MLB", "NHL"}

// SourceConfig wires the built-in sources.
type SourceConfig struct {
	Leagues     []string
	ESPNBaseURL string
	CBSBaseURL  string
	// Fetcher serves the JSON API and, unless Renderer is set, the HTML pages.
	Fetcher fetch.Fetcher
	// Renderer optionally renders secondary pages in a browser.
	Renderer fetch.Fetcher
	Teams    *teams.Directory
	Logger   *slog.Logger
}

// NewDefaultFactory builds one adapter per league with ESPN as primary and
// CBS Sports as fallback.
func NewDefaultFactory(cfg SourceConfig) *Factory {
	leagues := cfg.Leagues
	if len(leagues) == 0 {
		leagues = DefaultLeagues
	}
	dir := cfg.Teams
	if dir == nil {
		dir = teams.Default()
	}
	pageFetcher := cfg.Renderer
	if pageFetcher == nil {
		pageFetcher = cfg.Fetcher
	}

	espnClient := espn.New(cfg.ESPNBaseURL, cfg.Fetcher)
	adapters := make([]Adapter, 0, len(leagues))
	for _, raw := range leagues {
		league := Normalize(raw)
		if _, ok := espn.SportPath(league); !ok {
			if cfg.Logger != nil {
				cfg.Logger.Warn("skipping unsupported league", "league", strings.TrimSpace(raw))
			}
			continue
		}
		adapters = append(adapters, NewLeagueAdapter(league, cfg.Logger,
			espn.NewSource(espnClient, league, dir),
			cbs.NewSource(pageFetcher, cfg.CBSBaseURL, league, dir),
		))
	}
	return NewFactory(adapters...)
}
