package status

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	quarterPattern   = regexp.MustCompile(`\bq([1-4])\b`)
	halfPattern      = regexp.MustCompile(`\bhalf(time)?\b`)
	overtimePattern  = regexp.MustCompile(`\b(\d)?\s?ot\b|\bovertime\b`)
	endOfPattern     = regexp.MustCompile(`\bend of (?:the )?(\d{1,2})(?:st|nd|rd|th)\b`)
	inningPattern    = regexp.MustCompile(`\b(top|bot|bottom|mid|middle|end)\b\.?\s*(?:of\s+(?:the\s+)?)?(\d{1,2})(?:st|nd|rd|th)?\b`)
	outsPattern      = regexp.MustCompile(`\b([0-3])\s*outs?\b`)
	inningWord       = regexp.MustCompile(`\binning\b`)
	hockeyPeriod     = regexp.MustCompile(`\bp([1-3])\b`)
	shootoutPattern  = regexp.MustCompile(`\b(so|shootout)\b`)
	intermissionWord = regexp.MustCompile(`\b(intermission|int)\b`)
)

// extractTimed handles quarter-based sports (basketball, football).
func extractTimed(sport Sport, text string) (Detail, bool) {
	var d Detail

	if halfPattern.MatchString(text) {
		d.Period = 2
		d.PeriodLabel = LabelHalf
		return d, true
	}

	if m := overtimePattern.FindStringSubmatch(text); m != nil {
		n := 1
		if m[1] != "" {
			n, _ = strconv.Atoi(m[1])
		}
		d.Period = regulationPeriods(sport) + n
		d.PeriodLabel = LabelOvertime
		if n > 1 {
			d.PeriodLabel = strconv.Itoa(n) + LabelOvertime
		}
		return d, true
	}

	if m := endOfPattern.FindStringSubmatch(text); m != nil {
		d.Period, _ = strconv.Atoi(m[1])
		d.PeriodLabel = LabelEnd
		return d, true
	}

	if m := quarterPattern.FindStringSubmatch(text); m != nil {
		d.Period, _ = strconv.Atoi(m[1])
		return d, true
	}

	if n, ok := ordinal(text); ok && n >= 1 && n <= 4 {
		d.Period = n
		return d, true
	}

	return d, false
}

// extractBaseball reads inning half and outs: "Top 4th", "Bot 9th, 2 Outs",
// "Mid 7th".
func extractBaseball(text string) (Detail, bool) {
	var d Detail
	found := false

	if m := inningPattern.FindStringSubmatch(text); m != nil {
		d.Period, _ = strconv.Atoi(m[2])
		d.PeriodLabel = inningHalf(m[1])
		found = true
	} else if inningWord.MatchString(text) {
		if n, ok := ordinal(text); ok {
			d.Period = n
		}
		found = true
	}

	if m := outsPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		d.Clock = outsLabel(n)
		found = true
	}

	return d, found
}

func inningHalf(word string) string {
	switch word {
	case "top":
		return LabelTop
	case "bot", "bottom":
		return LabelBottom
	case "mid", "middle":
		return LabelMiddle
	default:
		return LabelEnd
	}
}

func outsLabel(n int) string {
	if n == 1 {
		return "1 Out"
	}
	return strconv.Itoa(n) + " Outs"
}

// extractHockey reads periods, intermissions, overtime and shootouts.
func extractHockey(text string) (Detail, bool) {
	var d Detail

	if shootoutPattern.MatchString(text) {
		d.Period = regulationPeriods(Hockey) + 2
		d.PeriodLabel = LabelShootout
		return d, true
	}

	if m := overtimePattern.FindStringSubmatch(text); m != nil {
		n := 1
		if m[1] != "" {
			n, _ = strconv.Atoi(m[1])
		}
		d.Period = regulationPeriods(Hockey) + n
		d.PeriodLabel = LabelOvertime
		if n > 1 {
			d.PeriodLabel = strconv.Itoa(n) + LabelOvertime
		}
		return d, true
	}

	if m := endOfPattern.FindStringSubmatch(text); m != nil {
		d.Period, _ = strconv.Atoi(m[1])
		d.PeriodLabel = LabelIntermission
		return d, true
	}

	if intermissionWord.MatchString(text) {
		if n, ok := ordinal(text); ok {
			d.Period = n
		}
		d.PeriodLabel = LabelIntermission
		return d, true
	}

	if m := hockeyPeriod.FindStringSubmatch(text); m != nil {
		d.Period, _ = strconv.Atoi(m[1])
		return d, true
	}

	if n, ok := ordinal(text); ok && n >= 1 && n <= 3 {
		d.Period = n
		return d, true
	}

	return d, false
}

// SportFor maps a league code to its sport. Unknown leagues classify as
// basketball, the most permissive quarter-based extractor.
func SportFor(league string) Sport {
	switch strings.ToUpper(league) {
	case "NFL", "NCAAF":
		return Football
	case "MLB":
		return Baseball
	case "NHL":
		return Hockey
	default:
		return Basketball
	}
}
