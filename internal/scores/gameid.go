package scores

import (
	"fmt"
	"strings"
	"time"
)

// scheduleZone anchors the calendar date in a game ID. North American leagues
// publish schedules in Eastern time, so a 10:30 PM ET tip stays on its date.
var scheduleZone = loadZone("America/New_York")

func loadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GameID derives a stable identifier from league, source, both team codes and
// the calendar date of the scheduled start, so repeated polls of the same game
// land on the same row.
//
// Without a known start the date is omitted. That variant is less stable: two
// meetings of the same teams collapse into one ID, and a source that starts
// reporting a start time later produces a second ID for the same game.
func GameID(league, source, awayCode, homeCode string, start time.Time) string {
	parts := []string{
		strings.ToUpper(league),
		sourceSlug(source),
		strings.ToUpper(awayCode),
		strings.ToUpper(homeCode),
	}
	if !start.IsZero() {
		parts = append(parts, CalendarDate(start))
	}
	return strings.Join(parts, "_")
}

// ScheduleZone is the zone schedule calendars are kept in.
func ScheduleZone() *time.Location {
	return scheduleZone
}

// CalendarDate formats t as YYYYMMDD on the schedule calendar.
func CalendarDate(t time.Time) string {
	return t.In(scheduleZone).Format("20060102")
}

// ScheduleDay returns midnight of t's schedule-calendar day.
func ScheduleDay(t time.Time) time.Time {
	t = t.In(scheduleZone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, scheduleZone)
}

// DayLayout is the wire form of a calendar date.
const DayLayout = "2006-01-02"

// ParseDay reads a YYYY-MM-DD date as midnight on the schedule calendar.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(s), scheduleZone)
}

// ParseDays turns inclusive calendar dates into a half-open range. A lone
// date covers that day; neither leaves the range zero.
func ParseDays(from, to string) (DateRange, error) {
	if from == "" && to == "" {
		return DateRange{}, nil
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	start, err := ParseDay(from)
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDay(to)
	if err != nil {
		return DateRange{}, err
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	return DateRange{From: start, To: end.AddDate(0, 0, 1)}, nil
}

// sourceSlug reduces a provenance tag like "ESPN API" to "ESPNAPI".
func sourceSlug(source string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(source) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "UNKNOWN"
	}
	return b.String()
}
