package adapter

import (
	"sort"
	"strings"
)

var aliases = map[string]string{
	"basketball":        "NBA",
	"womens-basketball": "WNBA",
	"football":          "NFL",
	"american-football": "NFL",
	"baseball":          "MLB",
	"hockey":            "NHL",
	"ice-hockey":        "NHL",
}

// Normalize maps a league or sport token to an uppercase league code. It
// does not check that an adapter exists.
func Normalize(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	if league, ok := aliases[t]; ok {
		return league
	}
	return strings.ToUpper(t)
}

// Factory maps league tokens to adapters.
type Factory struct {
	adapters map[string]Adapter
}

// NewFactory indexes adapters by their league code.
func NewFactory(adapters ...Adapter) *Factory {
	f := &Factory{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		f.adapters[strings.ToUpper(a.League())] = a
	}
	return f
}

// For resolves token case-insensitively, through aliases. Unknown or empty
// tokens get a Noop adapter, never nil.
func (f *Factory) For(token string) Adapter {
	if a, ok := f.Lookup(token); ok {
		return a
	}
	return NewNoop(Normalize(token))
}

// Lookup is For without the Noop fallback.
func (f *Factory) Lookup(token string) (Adapter, bool) {
	a, ok := f.adapters[Normalize(token)]
	return a, ok
}

// Known lists the league codes with a real adapter, sorted.
func (f *Factory) Known() []string {
	out := make([]string, 0, len(f.adapters))
	for league := range f.adapters {
		out = append(out, league)
	}
	sort.Strings(out)
	return out
}

// IsKnown reports whether token resolves to a real adapter.
func (f *Factory) IsKnown(token string) bool {
	_, ok := f.Lookup(token)
	return ok
}

// Batch resolves several tokens at once, keyed by normalized code. An empty
// list means every known league.
func (f *Factory) Batch(tokens []string) map[string]Adapter {
	if len(tokens) == 0 {
		tokens = f.Known()
	}
	out := make(map[string]Adapter, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out[Normalize(t)] = f.For(t)
	}
	return out
}
