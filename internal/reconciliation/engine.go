// Package reconciliation merges score reports for the same game from
// several sources into one record per game.
package reconciliation

import (
	"sort"
	"sync"
	"time"

	"github.com/fortuna/livescore/internal/scores"
)

// Result is the outcome of one merge.
type Result struct {
	Games []scores.GameScore
	// Sources lists distinct provenance tags in first-seen order.
	Sources []string
	// Unanimity is the fraction of games whose reports all agreed on status.
	// Nil when no game survived filtering.
	Unanimity *float64
}

// Metrics tracks reconciliation statistics.
type Metrics struct {
	TotalReconciliations int       `json:"totalReconciliations"`
	GamesMerged          int       `json:"gamesMerged"`
	Conflicts            int       `json:"conflicts"`
	LastReconciliation   time.Time `json:"lastReconciliation"`
}

// Engine reconciles batches of score reports.
type Engine struct {
	mu      sync.Mutex
	metrics Metrics
	now     func() time.Time
}

// NewEngine creates a new reconciliation engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Merge filters batch to games involving teamIDs (all games when teamIDs is
// empty), groups reports by game ID and reduces each group to one record.
//
// Points, period, clock and start come from the member with the latest
// StartTime (first seen on equal times). That snapshot is re-tagged with the
// group's majority status. A tied vote goes to the snapshot's own status when
// it is among the leaders, otherwise to the leader seen first.
func (e *Engine) Merge(batch []scores.GameScore, teamIDs []string) Result {
	wanted := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = struct{}{}
	}

	var (
		order   []string
		groups  = make(map[string][]scores.GameScore)
		sources []string
		seenSrc = make(map[string]struct{})
	)
	for _, g := range batch {
		if len(wanted) > 0 && !g.Involves(wanted) {
			continue
		}
		if _, ok := groups[g.GameID]; !ok {
			order = append(order, g.GameID)
		}
		groups[g.GameID] = append(groups[g.GameID], g)
		if _, ok := seenSrc[g.Source]; !ok && g.Source != "" {
			seenSrc[g.Source] = struct{}{}
			sources = append(sources, g.Source)
		}
	}

	res := Result{Sources: sources}
	agreed := 0
	for _, id := range order {
		group := groups[id]
		merged := freshest(group)
		merged.Status = majorityStatus(group, merged.Status)
		res.Games = append(res.Games, merged)
		if unanimous(group) {
			agreed++
		}
	}
	if len(order) > 0 {
		ratio := float64(agreed) / float64(len(order))
		res.Unanimity = &ratio
	}

	e.mu.Lock()
	e.metrics.TotalReconciliations++
	e.metrics.GamesMerged += len(order)
	e.metrics.Conflicts += len(order) - agreed
	e.metrics.LastReconciliation = e.now()
	e.mu.Unlock()

	return res
}

func majorityStatus(group []scores.GameScore, preferred scores.Status) scores.Status {
	type tally struct {
		votes int
		first int
	}
	counts := make(map[scores.Status]*tally)
	for i, g := range group {
		t, ok := counts[g.Status]
		if !ok {
			t = &tally{first: i}
			counts[g.Status] = t
		}
		t.votes++
	}

	candidates := make([]scores.Status, 0, len(counts))
	for s := range counts {
		candidates = append(candidates, s)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := counts[candidates[i]], counts[candidates[j]]
		if a.votes != b.votes {
			return a.votes > b.votes
		}
		if (candidates[i] == preferred) != (candidates[j] == preferred) {
			return candidates[i] == preferred
		}
		return a.first < b.first
	})
	return candidates[0]
}

// freshest uses StartTime as the freshness proxy.
func freshest(group []scores.GameScore) scores.GameScore {
	best := group[0]
	for _, g := range group[1:] {
		if g.StartTime.After(best.StartTime) {
			best = g
		}
	}
	return best
}

func unanimous(group []scores.GameScore) bool {
	for _, g := range group[1:] {
		if g.Status != group[0].Status {
			return false
		}
	}
	return true
}

// GetMetrics returns a snapshot of the engine's counters.
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}
