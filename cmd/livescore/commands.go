package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/livescore/internal/backfill"
	"github.com/fortuna/livescore/internal/ingest"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/scores"
)

var (
	leagueFlag string
	modeFlag   string
	teamsFlag  []string
	limitFlag  int
	fromFlag   string
	toFlag     string
	seasonFlag string
	dryRunFlag bool

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion cycle and print the run summary as JSON",
		Example: `  livescore ingest --league nba --mode featured
  livescore ingest --mode live --teams NBA_LAL,NBA_BOS
  livescore ingest --league nhl --mode schedule --from 2026-10-15 --to 2026-10-18`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Align the scheduled ingest jobs with the tracked teams",
		Args:  cobra.NoArgs,
		RunE:  runReconcile,
	}

	backfillCmd = &cobra.Command{
		Use:   "backfill",
		Short: "Ingest a league's schedule day by day over a date range or season",
		Example: `  livescore backfill --league nba --from 2026-01-01 --to 2026-01-31
  livescore backfill --league nfl --season 2025 --dry-run`,
		Args: cobra.NoArgs,
		RunE: runBackfill,
	}
)

func init() {
	ingestCmd.Flags().StringVar(&leagueFlag, "league", "", "league or sport token (nba, hockey, ...)")
	ingestCmd.Flags().StringVar(&modeFlag, "mode", string(scores.ModeLive), "live, schedule or featured")
	ingestCmd.Flags().StringSliceVar(&teamsFlag, "teams", nil, "team IDs such as NBA_LAL")
	ingestCmd.Flags().IntVar(&limitFlag, "limit", 0, "featured game cap (default from config)")
	ingestCmd.Flags().StringVar(&fromFlag, "from", "", "schedule start date, YYYY-MM-DD")
	ingestCmd.Flags().StringVar(&toFlag, "to", "", "schedule end date, YYYY-MM-DD (inclusive)")

	backfillCmd.Flags().StringVar(&leagueFlag, "league", "", "league or sport token")
	backfillCmd.Flags().StringSliceVar(&teamsFlag, "teams", nil, "limit to these team IDs")
	backfillCmd.Flags().StringVar(&fromFlag, "from", "", "start date, YYYY-MM-DD")
	backfillCmd.Flags().StringVar(&toFlag, "to", "", "end date, YYYY-MM-DD (inclusive)")
	backfillCmd.Flags().StringVar(&seasonFlag, "season", "", "season label such as 2025 or 2025-26")
	backfillCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "report the plan without fetching")
	_ = backfillCmd.MarkFlagRequired("league")
	backfillCmd.MarkFlagsMutuallyExclusive("season", "from")
	backfillCmd.MarkFlagsMutuallyExclusive("season", "to")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	mode, ok := scores.ParseMode(modeFlag)
	if !ok {
		return fmt.Errorf("unknown mode %q", modeFlag)
	}
	window, err := scores.ParseDays(fromFlag, toFlag)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	req := ingest.Request{
		TeamIDs: teamsFlag,
		League:  leagueFlag,
		Mode:    mode,
		Limit:   limitFlag,
		Window:  window,
	}
	if league := req.League; league != "" && !a.factory.IsKnown(league) {
		return fmt.Errorf("unknown league %q (known: %v)", league, a.factory.Known())
	}

	summary := a.agent.Run(cmd.Context(), req)
	if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if summary.Errored > 0 && len(summary.Games) == 0 {
		return errors.New("no scores could be fetched")
	}
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched := a.orchestrator(cmd.Context())
	if !sched.Enabled() {
		return errors.New("scheduler disabled: redis is not configured or not reachable")
	}
	report, err := sched.Reconcile(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	req := backfill.Request{
		League:  leagueFlag,
		Season:  seasonFlag,
		TeamIDs: teamsFlag,
	}
	if fromFlag != "" || toFlag != "" {
		window, err := scores.ParseDays(fromFlag, toFlag)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		// The window is half-open; the job takes inclusive days.
		start, end := window.From, window.To.AddDate(0, 0, -1)
		req.StartDate, req.EndDate = &start, &end
	}

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	spec, err := req.Spec(a.factory.IsKnown)
	if err != nil {
		return err
	}
	spec.DryRun = dryRunFlag

	totals, err := backfill.NewRunner(a.agent).Run(cmd.Context(), spec, &logReporter{log: logger})
	if perr := printJSON(cmd.OutOrStdout(), totals); perr != nil {
		return perr
	}
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// logReporter narrates a foreground backfill run.
type logReporter struct {
	log *slog.Logger
}

func (r *logReporter) OnJobStart(spec backfill.JobSpec) {
	r.log.Info("backfill starting",
		logging.FieldLeague, spec.League,
		"from", spec.Start.Format(scores.DayLayout),
		"to", spec.End.Format(scores.DayLayout),
		"teams", len(spec.TeamIDs),
		"dry_run", spec.DryRun)
}

func (r *logReporter) OnDateStart(date time.Time, index int, total int) {
	r.log.Info("backfill day", "date", date.Format(scores.DayLayout), "index", index+1, "total", total)
}

func (r *logReporter) OnProgress(message string, current int, total int, totals backfill.Totals) {
	r.log.Debug(message, "current", current, "total", total, "persisted", totals.Persisted)
}

func (r *logReporter) OnJobComplete(totals backfill.Totals) {
	r.log.Info("backfill complete",
		"persisted", totals.Persisted, "skipped", totals.Skipped, "errored", totals.Errored)
}

func (r *logReporter) OnJobError(err error) {
	r.log.Warn("backfill error", logging.FieldError, err)
}
