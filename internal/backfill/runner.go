// Package backfill walks historical date ranges and ingests each day's
// schedule through the ingestion agent.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/livescore/internal/ingest"
	"github.com/fortuna/livescore/internal/scores"
)

// ErrNoDays is returned when every day of a job failed to fetch.
var ErrNoDays = errors.New("backfill: no day could be fetched")

// Ingester runs one ingestion request. *ingest.Agent implements it.
type Ingester interface {
	Run(ctx context.Context, req ingest.Request) scores.RunSummary
}

// Runner executes backfill specs one schedule day at a time.
type Runner struct {
	ingester Ingester
}

// NewRunner constructs a runner on top of an ingester.
func NewRunner(ingester Ingester) *Runner {
	return &Runner{ingester: ingester}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// A day whose fetch errored and produced nothing is reported and skipped; the
// job fails only if no day succeeded.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (Totals, error) {
	var totals Totals
	if reporter != nil {
		reporter.OnJobStart(spec)
	}

	dates := enumerateDates(spec.Start, spec.End)
	if spec.DryRun {
		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Dry-run mode: %d days, nothing written", len(dates)), 0, len(dates), totals)
			reporter.OnJobComplete(totals)
		}
		return totals, nil
	}

	switch spec.Type {
	case JobTypeSeason, JobTypeDateRange:
	default:
		err := fmt.Errorf("unsupported job type %s", spec.Type)
		if reporter != nil {
			reporter.OnJobError(err)
		}
		return totals, err
	}

	if len(dates) == 0 {
		if reporter != nil {
			reporter.OnProgress("No dates to process", 0, 0, totals)
			reporter.OnJobComplete(totals)
		}
		return totals, nil
	}

	total := len(dates)
	failedDays := 0
	for idx, date := range dates {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		if reporter != nil {
			reporter.OnDateStart(date, idx, total)
		}

		summary := r.ingester.Run(ctx, ingest.Request{
			TeamIDs: spec.TeamIDs,
			League:  spec.League,
			Mode:    scores.ModeSchedule,
			Window:  scores.DateRange{From: date, To: date.AddDate(0, 0, 1)},
		})
		totals.Persisted += summary.Persisted
		totals.Skipped += summary.Skipped
		totals.Errored += summary.Errored

		if summary.Errored > 0 && len(summary.Games) == 0 {
			failedDays++
			if reporter != nil {
				reporter.OnJobError(fmt.Errorf("%s %s: %d errored", spec.League, date.Format("2006-01-02"), summary.Errored))
			}
		}

		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Processed %s", date.Format("Jan 2, 2006")), idx+1, total, totals)
		}
	}

	if failedDays == total {
		if reporter != nil {
			reporter.OnJobError(ErrNoDays)
		}
		return totals, ErrNoDays
	}

	if reporter != nil {
		reporter.OnJobComplete(totals)
	}
	return totals, nil
}

// enumerateDates lists every schedule-calendar day from start to end
// inclusive.
func enumerateDates(start, end time.Time) []time.Time {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if end.Before(start) {
		start, end = end, start
	}

	var dates []time.Time
	current := scores.ScheduleDay(start)
	final := scores.ScheduleDay(end)

	for !current.After(final) {
		dates = append(dates, current)
		current = current.AddDate(0, 0, 1)
	}

	return dates
}
