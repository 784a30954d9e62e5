// Package teams resolves the names sources print for a team into canonical
// team IDs.
package teams

import (
	"sort"
	"strings"
	"unicode"

	"github.com/fortuna/livescore/internal/scores"
)

// Team is one franchise entry in a league table.
type Team struct {
	Code     string
	Name     string
	Nickname string
	Aliases  []string
}

// ID returns the canonical team ID for t in league.
func (t Team) ID(league string) string {
	return scores.TeamID(league, t.Code)
}

// Directory indexes league tables by full name, nickname, code and aliases.
type Directory struct {
	leagues map[string][]Team
	index   map[string]map[string]string
}

// NewDirectory builds a directory from per-league tables. Later entries do
// not override earlier keys.
func NewDirectory(tables map[string][]Team) *Directory {
	d := &Directory{
		leagues: make(map[string][]Team, len(tables)),
		index:   make(map[string]map[string]string, len(tables)),
	}
	for league, list := range tables {
		league = strings.ToUpper(league)
		idx := make(map[string]string, len(list)*4)
		for _, t := range list {
			for _, key := range append([]string{t.Code, t.Name, t.Nickname}, t.Aliases...) {
				k := normalizeKey(key)
				if k == "" {
					continue
				}
				if _, taken := idx[k]; !taken {
					idx[k] = t.Code
				}
			}
		}
		d.leagues[league] = list
		d.index[league] = idx
	}
	return d
}

// Default is the built-in directory for every supported league.
func Default() *Directory {
	return defaultDirectory
}

var defaultDirectory = NewDirectory(map[string][]Team{
	"NBA":  nba,
	"WNBA": wnba,
	"NFL":  nfl,
	"MLB":  mlb,
	"NHL":  nhl,
})

// Lookup returns the canonical code for text, if the league table knows it.
func (d *Directory) Lookup(league, text string) (string, bool) {
	idx, ok := d.index[strings.ToUpper(league)]
	if !ok {
		return "", false
	}
	code, ok := idx[normalizeKey(text)]
	return code, ok
}

// Resolve maps text to a team ID. Unknown names are synthesized from the
// literal text ("Team USA" -> "NBA_TEAM_USA"); the result may fail
// scores.ValidTeamID and callers must check it.
func (d *Directory) Resolve(league, text string) string {
	if code, ok := d.Lookup(league, text); ok {
		return scores.TeamID(league, code)
	}
	return scores.TeamID(league, synthesize(text))
}

// Teams lists a league's table sorted by code.
func (d *Directory) Teams(league string) []Team {
	list := append([]Team(nil), d.leagues[strings.ToUpper(league)]...)
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// Leagues lists the leagues with a table.
func (d *Directory) Leagues() []string {
	out := make([]string, 0, len(d.leagues))
	for league := range d.leagues {
		out = append(out, league)
	}
	sort.Strings(out)
	return out
}

func normalizeKey(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			space = true
		}
	}
	return b.String()
}

func synthesize(text string) string {
	return strings.ToUpper(strings.Join(strings.Fields(text), "_"))
}
