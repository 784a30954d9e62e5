// Package status maps free-text game status strings from any source onto the
// three canonical statuses plus a sport-specific sub-state.
//
// Rules apply in precedence order:
//
//  1. postponement keywords  -> scheduled
//  2. final keywords (including "F/OT", "F/10") -> final
//  3. delay keywords -> in_progress
//  4. sport-specific in-progress markers -> in_progress
//  5. anything else -> scheduled
package status

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fortuna/livescore/internal/scores"
)

// Sport selects the sub-state extractor.
type Sport string

const (
	Basketball Sport = "basketball"
	Football   Sport = "football"
	Baseball   Sport = "baseball"
	Hockey     Sport = "hockey"
)

// Sub-state labels.
const (
	LabelPostponed    = "PPD"
	LabelDelay        = "DELAY"
	LabelHalf         = "HALF"
	LabelOvertime     = "OT"
	LabelShootout     = "SO"
	LabelIntermission = "INT"
	LabelTop          = "TOP"
	LabelBottom       = "BOT"
	LabelMiddle       = "MID"
	LabelEnd          = "END"
)

// Detail is the classification of one status string.
type Detail struct {
	Status      scores.Status
	Period      int
	PeriodLabel string
	Clock       string
}

var (
	postponedPattern = regexp.MustCompile(`\b(ppd|postponed|canceled|cancelled|suspended|susp)\b`)
	finalPattern     = regexp.MustCompile(`\bfinal\b|^f$|(^|\s)f/\w+|\bgame over\b|\bcompleted\b`)
	finalExtraSuffix = regexp.MustCompile(`(?:final|f)\s*/\s*(?:(\d*)\s*(ot|so)|(\d+))\b`)
	delayPattern     = regexp.MustCompile(`\b(delay|delayed)\b`)
	livePattern      = regexp.MustCompile(`\b(live|in progress)\b`)

	// clockPattern captures H:MM with an optional AM/PM suffix. A suffix marks
	// a scheduled time of day, not a countdown.
	clockPattern   = regexp.MustCompile(`\b(\d{1,2}:\d{2})(\s*[ap]\.?m\b\.?)?`)
	ordinalPattern = regexp.MustCompile(`(?:^|[\s\-,(])(\d{1,2})(?:st|nd|rd|th)\b`)
)

// Classify normalizes raw for the given sport.
func Classify(sport Sport, raw string) Detail {
	text := normalize(raw)
	if text == "" {
		return Detail{Status: scores.StatusScheduled}
	}

	if postponedPattern.MatchString(text) {
		return Detail{Status: scores.StatusScheduled, PeriodLabel: LabelPostponed}
	}

	if finalPattern.MatchString(text) {
		return classifyFinal(sport, text)
	}

	if delayPattern.MatchString(text) {
		d, _ := extract(sport, text)
		d.Status = scores.StatusInProgress
		if d.PeriodLabel == "" {
			d.PeriodLabel = LabelDelay
		}
		return d
	}

	if d, ok := extract(sport, text); ok {
		d.Status = scores.StatusInProgress
		return d
	}

	return Detail{Status: scores.StatusScheduled}
}

func classifyFinal(sport Sport, text string) Detail {
	d := Detail{Status: scores.StatusFinal}
	m := finalExtraSuffix.FindStringSubmatch(text)
	if m == nil {
		return d
	}
	mult, suffix := m[1], m[2]
	switch suffix {
	case "":
		// Extra innings, e.g. "F/10".
		if n, err := strconv.Atoi(m[3]); err == nil {
			d.Period = n
		}
	case "ot":
		d.PeriodLabel = mult + "OT"
		n := 1
		if mult != "" {
			n, _ = strconv.Atoi(mult)
		}
		d.Period = regulationPeriods(sport) + n
	case "so":
		d.PeriodLabel = LabelShootout
		d.Period = regulationPeriods(sport) + 2
	}
	return d
}

// extract runs the sport's in-progress marker detection. The bool reports
// whether any marker was found.
func extract(sport Sport, text string) (Detail, bool) {
	var (
		d     Detail
		found bool
	)
	switch sport {
	case Baseball:
		d, found = extractBaseball(text)
	case Hockey:
		d, found = extractHockey(text)
	default:
		d, found = extractTimed(sport, text)
	}

	if clock, ok := countdown(text); ok {
		if d.Clock == "" {
			d.Clock = clock
		}
		found = true
	}
	if livePattern.MatchString(text) {
		found = true
	}
	return d, found
}

func normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// countdown returns the first H:MM token that is not a time of day.
func countdown(text string) (string, bool) {
	for _, m := range clockPattern.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			return m[1], true
		}
	}
	return "", false
}

// hasTimeOfDay reports whether text carries a 12-hour start time such as
// "7:05 pm". Ordinal period markers are ignored in that case so a date like
// "oct 4th at 7:05 pm" stays scheduled.
func hasTimeOfDay(text string) bool {
	for _, m := range clockPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			return true
		}
	}
	return false
}

func ordinal(text string) (int, bool) {
	if hasTimeOfDay(text) {
		return 0, false
	}
	m := ordinalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func regulationPeriods(sport Sport) int {
	switch sport {
	case Hockey:
		return 3
	case Baseball:
		return 9
	default:
		return 4
	}
}
