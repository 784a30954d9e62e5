package scores

import (
	"regexp"
	"sort"
	"strings"
)

var teamIDPattern = regexp.MustCompile(`^[A-Z]{2,4}_[A-Z0-9]+$`)

// ValidTeamID reports whether id has the "{LEAGUE}_{CODE}" shape. Anything
// else must be dropped before it reaches persistence.
func ValidTeamID(id string) bool {
	return teamIDPattern.MatchString(id)
}

// TeamID joins a league and a team code into a team ID. The result is not
// validated.
func TeamID(league, code string) string {
	return strings.ToUpper(league) + "_" + strings.ToUpper(code)
}

// TeamCode returns the code half of a team ID ("NBA_LAL" -> "LAL").
func TeamCode(id string) string {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// TeamLeague returns the league half of a team ID ("NBA_LAL" -> "NBA").
func TeamLeague(id string) string {
	league, _, found := strings.Cut(id, "_")
	if !found {
		return ""
	}
	return league
}

// SanitizeTeamIDs uppercases, trims and de-duplicates ids, drops anything that
// is not a valid team ID and sorts the rest so the result can key a cache.
func SanitizeTeamIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.ToUpper(strings.TrimSpace(raw))
		if !ValidTeamID(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TeamCodes maps team IDs to their codes, preserving order.
func TeamCodes(ids []string) []string {
	codes := make([]string, 0, len(ids))
	for _, id := range ids {
		if code := TeamCode(id); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
