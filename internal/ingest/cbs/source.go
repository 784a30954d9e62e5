package cbs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/livescore/internal/extract"
	"github.com/fortuna/livescore/internal/fetch"
	"github.com/fortuna/livescore/internal/ingest/teams"
	"github.com/fortuna/livescore/internal/scores"
)

const (
	BaseURL = "https://www.cbssports.com"

	// MaxScheduleDays caps per-day page fetches for one schedule window.
	MaxScheduleDays = 7
)

var sportPaths = map[string]string{
	"NBA":  "nba",
	"WNBA": "wnba",
	"NFL":  "nfl",
	"MLB":  "mlb",
	"NHL":  "nhl",
}

// Source is the CBS Sports scoreboard bound to one league.
type Source struct {
	baseURL string
	fetcher fetch.Fetcher
	parser  Parser
}

// NewSource binds fetcher to league. An empty baseURL uses the public site.
func NewSource(fetcher fetch.Fetcher, baseURL, league string, dir *teams.Directory) *Source {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if dir == nil {
		dir = teams.Default()
	}
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		parser:  Parser{League: strings.ToUpper(league), Teams: dir, Zone: scores.ScheduleZone()},
	}
}

// Name is the provenance tag.
func (s *Source) Name() string {
	return SourceName
}

func (s *Source) pageURL(day time.Time) (string, error) {
	path, ok := sportPaths[s.parser.League]
	if !ok {
		return "", fmt.Errorf("cbs: unsupported league %q", s.parser.League)
	}
	if day.IsZero() {
		return fmt.Sprintf("%s/%s/scoreboard/", s.baseURL, path), nil
	}
	return fmt.Sprintf("%s/%s/scoreboard/%s/", s.baseURL, path, scores.CalendarDate(day)), nil
}

func (s *Source) page(ctx context.Context, day time.Time) (scores.Listing, error) {
	u, err := s.pageURL(day)
	if err != nil {
		return scores.Listing{}, err
	}
	body, err := s.fetcher.Get(ctx, u)
	if err != nil {
		return scores.Listing{}, err
	}
	doc, err := extract.Document(body)
	if err != nil {
		return scores.Listing{}, err
	}
	return scores.Collect(s.parser.ParseScoreboard(doc, day)), nil
}

// Scoreboard returns the current scoreboard page.
func (s *Source) Scoreboard(ctx context.Context) (scores.Listing, error) {
	return s.page(ctx, time.Time{})
}

// Schedule fetches one page per schedule day in the window, at most
// MaxScheduleDays. A failed day is returned only when no day succeeded.
func (s *Source) Schedule(ctx context.Context, window scores.DateRange) (scores.Listing, error) {
	merged := scores.Listing{Reasons: map[scores.SkipReason]int{}}
	var firstErr error
	ok := 0

	for i, day := range scheduleDays(window) {
		if i >= MaxScheduleDays {
			break
		}
		listing, err := s.page(ctx, day)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		ok++
		merged.Games = append(merged.Games, listing.Games...)
		merged.Skipped += listing.Skipped
		for r, n := range listing.Reasons {
			merged.Reasons[r] += n
		}
	}

	if ok == 0 && firstErr != nil {
		return scores.Listing{}, firstErr
	}
	return merged, nil
}

// scheduleDays lists the schedule days touched by the half-open window.
func scheduleDays(window scores.DateRange) []time.Time {
	if !window.To.After(window.From) {
		return []time.Time{scores.ScheduleDay(window.From)}
	}
	var days []time.Time
	last := scores.ScheduleDay(window.To.Add(-time.Nanosecond))
	for d := scores.ScheduleDay(window.From); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
