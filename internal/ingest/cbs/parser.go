// Package cbs scrapes the CBS Sports HTML scoreboard. It is the secondary
// source behind the ESPN API.
package cbs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/livescore/internal/extract"
	"github.com/fortuna/livescore/internal/ingest/status"
	"github.com/fortuna/livescore/internal/ingest/teams"
	"github.com/fortuna/livescore/internal/scores"
)

// SourceName tags every record scraped from CBS Sports.
const SourceName = "CBS Sports"

const (
	cardSelector   = "div.single-score-card"
	rowSelector    = "table tbody tr"
	teamSelector   = "a.team-name-link, td.team a, .team-name"
	scoreSelector  = "td.total"
	statusSelector = ".game-status"
)

var startTimePattern = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*([ap])\.?m`)

// Parser maps a scoreboard page onto the canonical schema for one league.
type Parser struct {
	League string
	Teams  *teams.Directory
	// Zone is the page's local time zone for printed start times.
	Zone *time.Location
}

// ParseScoreboard maps each score card to a Result. day is the page's
// schedule day, or zero for the undated "today" page.
func (p Parser) ParseScoreboard(doc *goquery.Document, day time.Time) []scores.Result {
	var results []scores.Result
	doc.Find(cardSelector).Each(func(i int, card *goquery.Selection) {
		results = append(results, p.parseCard(i, card, day))
	})
	return results
}

func (p Parser) parseCard(i int, card *goquery.Selection, day time.Time) scores.Result {
	rows := card.Find(rowSelector)
	if rows.Length() < 2 {
		return scores.Skip(scores.SkipMalformed, fmt.Sprintf("card %d: %d team rows", i, rows.Length()))
	}

	// CBS lists the visitor first.
	awayRow, homeRow := rows.Eq(0), rows.Eq(1)
	awayName, homeName := extract.Text(awayRow, teamSelector), extract.Text(homeRow, teamSelector)
	if awayName == "" || homeName == "" {
		return scores.Skip(scores.SkipMalformed, fmt.Sprintf("card %d: missing team name", i))
	}

	awayID := p.Teams.Resolve(p.League, awayName)
	homeID := p.Teams.Resolve(p.League, homeName)
	for _, id := range []string{awayID, homeID} {
		if !scores.ValidTeamID(id) {
			return scores.Skip(scores.SkipInvalidTeam, fmt.Sprintf("card %d: %s", i, id))
		}
	}

	awayPoints, _ := extract.Number(awayRow, scoreSelector)
	homePoints, _ := extract.Number(homeRow, scoreSelector)

	rawStatus := extract.Text(card, statusSelector)
	detail := status.Classify(status.SportFor(p.League), rawStatus)
	start := p.startTime(day, rawStatus)

	externalID, _ := card.Attr("data-game-id")

	return scores.Keep(scores.GameScore{
		GameID:      scores.GameID(p.League, SourceName, scores.TeamCode(awayID), scores.TeamCode(homeID), start),
		League:      strings.ToUpper(p.League),
		ExternalID:  strings.TrimSpace(externalID),
		HomeTeamID:  homeID,
		AwayTeamID:  awayID,
		HomePoints:  homePoints,
		AwayPoints:  awayPoints,
		Status:      detail.Status,
		Period:      detail.Period,
		PeriodLabel: detail.PeriodLabel,
		Clock:       detail.Clock,
		StartTime:   start,
		Source:      SourceName,
	})
}

// startTime combines the page day with a printed "7:30 pm ET" when both are
// known. A dated page without a printed time pins the game to that day; the
// undated page yields zero.
func (p Parser) startTime(day time.Time, rawStatus string) time.Time {
	if day.IsZero() {
		return time.Time{}
	}
	zone := p.Zone
	if zone == nil {
		zone = day.Location()
	}
	day = day.In(zone)

	m := startTimePattern.FindStringSubmatch(strings.ToLower(rawStatus))
	if m == nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, zone).UTC()
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	hour %= 12
	if m[3] == "p" {
		hour += 12
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, zone).UTC()
}
