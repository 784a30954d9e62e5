package espn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/livescore/internal/extract"
	"github.com/fortuna/livescore/internal/ingest/status"
	"github.com/fortuna/livescore/internal/ingest/teams"
	"github.com/fortuna/livescore/internal/scores"
)

// SourceName tags every record parsed from the ESPN API.
const SourceName = "ESPN API"

// Parser maps ESPN payloads onto the canonical schema for one league.
type Parser struct {
	League string
	Teams  *teams.Directory
}

// ParseScoreboard maps each event to a Result. A bad event never aborts the
// listing.
func (p Parser) ParseScoreboard(data extract.Object) []scores.Result {
	events := extract.Array(data, "events")
	results := make([]scores.Result, 0, len(events))
	for _, raw := range events {
		event, ok := raw.(map[string]interface{})
		if !ok {
			results = append(results, scores.Skip(scores.SkipMalformed, "event is not an object"))
			continue
		}
		results = append(results, p.parseEvent(event))
	}
	return results
}

type side struct {
	teamID string
	points int
	lines  []int
}

func (p Parser) parseEvent(event extract.Object) scores.Result {
	externalID := extract.String(event, "id")

	competitions := extract.Objects(event, "competitions")
	if len(competitions) == 0 {
		return scores.Skip(scores.SkipMalformed, fmt.Sprintf("event %s: no competitions", externalID))
	}
	comp := competitions[0]

	home, away, err := p.competitors(comp)
	if err != nil {
		return scores.Skip(scores.SkipMalformed, fmt.Sprintf("event %s: %v", externalID, err))
	}
	for _, id := range []string{home.teamID, away.teamID} {
		if !scores.ValidTeamID(id) {
			return scores.Skip(scores.SkipInvalidTeam, fmt.Sprintf("event %s: %s", externalID, id))
		}
	}

	start := parseTime(extract.FirstString(extract.String(event, "date"), extract.String(comp, "date")))
	detail := p.classify(extract.Map(event, "status"))

	return scores.Keep(scores.GameScore{
		GameID:      scores.GameID(p.League, SourceName, scores.TeamCode(away.teamID), scores.TeamCode(home.teamID), start),
		League:      strings.ToUpper(p.League),
		ExternalID:  externalID,
		HomeTeamID:  home.teamID,
		AwayTeamID:  away.teamID,
		HomePoints:  home.points,
		AwayPoints:  away.points,
		Status:      detail.Status,
		Period:      detail.Period,
		PeriodLabel: detail.PeriodLabel,
		Clock:       detail.Clock,
		StartTime:   start,
		Source:      SourceName,
	})
}

func (p Parser) competitors(comp extract.Object) (home, away side, err error) {
	var haveHome, haveAway bool
	for _, c := range extract.Objects(comp, "competitors") {
		team := extract.Map(c, "team")
		name := extract.FirstString(
			extract.String(team, "abbreviation"),
			extract.String(team, "displayName"),
			extract.String(team, "name"),
		)
		if name == "" {
			continue
		}
		s := side{
			teamID: p.Teams.Resolve(p.League, name),
			points: extract.Int(c, "score"),
			lines:  lineScores(c),
		}
		switch extract.String(c, "homeAway") {
		case "home":
			home, haveHome = s, true
		case "away":
			away, haveAway = s, true
		}
	}
	if !haveHome || !haveAway {
		return side{}, side{}, fmt.Errorf("missing home or away competitor")
	}
	return home, away, nil
}

// classify prefers the free-text detail and falls back to ESPN's coarse
// state when the text is absent.
func (p Parser) classify(st extract.Object) status.Detail {
	sport := status.SportFor(p.League)
	typ := extract.Map(st, "type")
	text := extract.FirstString(
		extract.String(typ, "shortDetail"),
		extract.String(typ, "detail"),
		extract.String(typ, "description"),
	)

	var d status.Detail
	if text != "" {
		d = status.Classify(sport, text)
	}

	state := extract.String(typ, "state")
	switch {
	case text == "" && state == "in":
		d.Status = scores.StatusInProgress
	case text == "" && state == "post":
		d.Status = scores.StatusFinal
	case text == "":
		d.Status = scores.StatusScheduled
	case extract.Bool(typ, "completed") && d.PeriodLabel != status.LabelPostponed:
		d.Status = scores.StatusFinal
	}

	if d.Status == scores.StatusInProgress {
		if d.Period == 0 {
			d.Period = extract.Int(st, "period")
		}
		if d.Clock == "" && sport != status.Baseball {
			d.Clock = extract.String(st, "displayClock")
		}
	}
	return d
}

func lineScores(competitor extract.Object) []int {
	lines := extract.Objects(competitor, "linescores")
	if len(lines) == 0 {
		return nil
	}
	out := make([]int, 0, len(lines))
	for _, l := range lines {
		if v, ok := l["value"]; ok {
			out = append(out, extract.ToInt(v))
			continue
		}
		n, _ := strconv.Atoi(extract.String(l, "displayValue"))
		out = append(out, n)
	}
	return out
}

// ParseSummary builds a box score from a summary payload. The summary header
// carries the same competitor shape as the scoreboard.
func (p Parser) ParseSummary(eventID string, data extract.Object, at time.Time) (*scores.BoxScore, error) {
	header := extract.Map(data, "header")
	competitions := extract.Objects(header, "competitions")
	if len(competitions) == 0 {
		return nil, fmt.Errorf("espn summary %s: no competitions in header", eventID)
	}
	comp := competitions[0]

	home, away, err := p.competitors(comp)
	if err != nil {
		return nil, fmt.Errorf("espn summary %s: %w", eventID, err)
	}
	if !scores.ValidTeamID(home.teamID) || !scores.ValidTeamID(away.teamID) {
		return nil, fmt.Errorf("espn summary %s: invalid team %s/%s", eventID, away.teamID, home.teamID)
	}

	start := parseTime(extract.String(comp, "date"))
	return &scores.BoxScore{
		GameID:       scores.GameID(p.League, SourceName, scores.TeamCode(away.teamID), scores.TeamCode(home.teamID), start),
		ExternalID:   eventID,
		HomeTeamID:   home.teamID,
		AwayTeamID:   away.teamID,
		HomePoints:   home.points,
		AwayPoints:   away.points,
		HomeByPeriod: home.lines,
		AwayByPeriod: away.lines,
		UpdatedAt:    at,
		Source:       SourceName,
	}, nil
}

// parseTime accepts RFC 3339 and ESPN's minute-precision "2025-11-15T01:00Z".
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02T15:04Z", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
