package scores

// SkipReason explains why a raw item did not become a GameScore. The empty
// reason means the item was kept.
type SkipReason string

const (
	SkipMalformed   SkipReason = "malformed"
	SkipInvalidTeam SkipReason = "invalid_team"
	SkipFiltered    SkipReason = "filtered"
	SkipOutOfWindow SkipReason = "out_of_window"
)

// Result is the outcome of mapping one raw listing item.
type Result struct {
	Score  GameScore
	Reason SkipReason
	Detail string
}

// Keep wraps a successfully mapped item.
func Keep(g GameScore) Result {
	return Result{Score: g}
}

// Skip records a dropped item.
func Skip(reason SkipReason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}

// Kept reports whether the item survived mapping.
func (r Result) Kept() bool {
	return r.Reason == ""
}

// Listing aggregates per-item results from one source response.
type Listing struct {
	Games   []GameScore
	Skipped int
	Reasons map[SkipReason]int
}

// Collect folds results into a Listing. Filtered items count as skipped but
// are not malformed; callers that only care about parse failures read Reasons.
func Collect(results []Result) Listing {
	listing := Listing{Reasons: map[SkipReason]int{}}
	for _, r := range results {
		if r.Kept() {
			listing.Games = append(listing.Games, r.Score)
			continue
		}
		listing.Skipped++
		listing.Reasons[r.Reason]++
	}
	return listing
}

// ScheduleGames projects the listing onto schedule records.
func (l Listing) ScheduleGames() []ScheduleGame {
	out := make([]ScheduleGame, 0, len(l.Games))
	for _, g := range l.Games {
		out = append(out, ScheduleGame{
			GameID:     g.GameID,
			League:     g.League,
			ExternalID: g.ExternalID,
			HomeTeamID: g.HomeTeamID,
			AwayTeamID: g.AwayTeamID,
			StartTime:  g.StartTime,
			Status:     g.Status,
			Source:     g.Source,
		})
	}
	return out
}
