package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/scores"
)

// MaxDays caps the span of a single job.
const MaxDays = 400

// ErrInvalidRequest marks requests the caller must fix.
var ErrInvalidRequest = errors.New("backfill: invalid request")

// Request represents a backfill invocation request.
type Request struct {
	League    string
	Season    string
	TeamIDs   []string
	StartDate *time.Time
	EndDate   *time.Time
}

// DeriveType infers the job type based on populated fields.
func (r Request) DeriveType() (JobType, error) {
	if r.StartDate != nil && r.EndDate != nil {
		return JobTypeDateRange, nil
	}
	if r.Season != "" {
		return JobTypeSeason, nil
	}
	return "", fmt.Errorf("%w: need start and end dates or a season", ErrInvalidRequest)
}

// Spec validates the request and resolves it to a runnable spec.
func (r Request) Spec(isKnown func(string) bool) (JobSpec, error) {
	league := adapter.Normalize(r.League)
	if league == "" || (isKnown != nil && !isKnown(league)) {
		return JobSpec{}, fmt.Errorf("%w: unknown league %q", ErrInvalidRequest, r.League)
	}

	jobType, err := r.DeriveType()
	if err != nil {
		return JobSpec{}, err
	}

	spec := JobSpec{Type: jobType, League: league}
	for _, id := range scores.SanitizeTeamIDs(r.TeamIDs) {
		if scores.TeamLeague(id) == league {
			spec.TeamIDs = append(spec.TeamIDs, id)
		}
	}

	switch jobType {
	case JobTypeSeason:
		start, end, err := seasonWindow(league, r.Season)
		if err != nil {
			return JobSpec{}, err
		}
		spec.Start, spec.End = start, end
	case JobTypeDateRange:
		spec.Start, spec.End = *r.StartDate, *r.EndDate
	}

	days := len(enumerateDates(spec.Start, spec.End))
	if days > MaxDays {
		return JobSpec{}, fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidRequest, days, MaxDays)
	}
	return spec, nil
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo    JobStore
	runner  *Runner
	isKnown func(string) bool

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
// isKnown validates league tokens; nil accepts any.
func NewService(repo JobStore, runner *Runner, isKnown func(string) bool, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:         repo,
		runner:       runner,
		isKnown:      isKnown,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logging.OrDiscard(logger).With(logging.FieldComponent, "backfill"),
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Warn("failed to reset jobs", logging.FieldError, err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	spec, err := req.Spec(s.isKnown)
	if err != nil {
		return nil, err
	}

	job := &Job{
		JobType:       spec.Type,
		League:        spec.League,
		Season:        sql.NullString{String: req.Season, Valid: spec.Type == JobTypeSeason},
		TeamIDs:       spec.TeamIDs,
		StartDate:     scores.ScheduleDay(spec.Start),
		EndDate:       scores.ScheduleDay(spec.End),
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(enumerateDates(spec.Start, spec.End)),
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	s.logger.Info("backfill job queued",
		logging.FieldJobID, stored.JobID, logging.FieldLeague, stored.League, "days", stored.ProgressTotal)
	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if s.ctx.Err() != nil {
			return
		}
		ran, err := s.processNext()
		if err != nil {
			s.logger.Warn("claim job error", logging.FieldError, err)
		}
		if ran {
			continue
		}
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processNext claims and executes one queued job, reporting whether one ran.
func (s *Service) processNext() (bool, error) {
	job, err := s.repo.MarkNextJobRunning(s.ctx)
	if err != nil || job == nil {
		return false, err
	}
	s.executeJob(job)
	return true, nil
}

func (s *Service) executeJob(job *Job) {
	logger := s.logger.With(logging.FieldJobID, job.JobID, logging.FieldLeague, job.League)
	spec := s.buildSpec(job)

	reporter := &jobReporter{
		ctx:   s.ctx,
		repo:  s.repo,
		jobID: job.JobID,
		total: job.ProgressTotal,
		log:   logger,
	}

	start := time.Now()
	totals, err := s.runner.Run(s.ctx, spec, reporter)
	if err != nil {
		logger.Error("backfill job failed", logging.FieldError, err)
		if uerr := s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Job failed", err); uerr != nil {
			logger.Warn("recording job failure", logging.FieldError, uerr)
		}
		return
	}

	logger.Info("backfill job complete",
		"persisted", totals.Persisted, "skipped", totals.Skipped, "errored", totals.Errored,
		logging.FieldDurationMS, time.Since(start).Milliseconds())
	if uerr := s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil); uerr != nil {
		logger.Warn("recording job completion", logging.FieldError, uerr)
	}
}

func (s *Service) buildSpec(job *Job) JobSpec {
	return JobSpec{
		Type:    job.JobType,
		League:  job.League,
		TeamIDs: job.TeamIDs,
		Start:   job.StartDate,
		End:     job.EndDate,
	}
}

type jobReporter struct {
	ctx   context.Context
	repo  JobStore
	jobID string
	total int
	log   *slog.Logger
}

func (r *jobReporter) update(current, total int, totals Totals, message string) {
	if err := r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), totals, message); err != nil {
		r.log.Warn("recording job progress", logging.FieldError, err)
	}
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	if r.total == 0 {
		r.total = len(enumerateDates(spec.Start, spec.End))
	}
	r.update(0, r.total, Totals{}, "Job starting")
}

func (r *jobReporter) OnDateStart(date time.Time, index int, total int) {
	r.log.Debug("backfill day", "date", date.Format("2006-01-02"), "index", index+1, "total", total)
}

func (r *jobReporter) OnProgress(message string, current int, total int, totals Totals) {
	r.update(current, total, totals, message)
}

func (r *jobReporter) OnJobComplete(totals Totals) {
	r.update(r.total, r.total, totals, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	r.log.Warn("backfill error", logging.FieldError, err)
}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}

// seasonWindow maps a season label ("2024" or "2024-25") to the league's
// regular and postseason calendar.
func seasonWindow(league, season string) (time.Time, time.Time, error) {
	yearText := strings.TrimSpace(season)
	if i := strings.Index(yearText, "-"); i > 0 {
		yearText = yearText[:i]
	}
	year, err := strconv.Atoi(yearText)
	if err != nil || year < 1900 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad season %q", ErrInvalidRequest, season)
	}

	zone := scores.ScheduleZone()
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, zone) }

	switch league {
	case "NBA", "NHL":
		return day(year, time.October, 1), day(year+1, time.June, 30), nil
	case "NFL":
		// Day zero of March is the last day of February.
		return day(year, time.September, 1), day(year+1, time.March, 0), nil
	case "MLB":
		return day(year, time.March, 1), day(year, time.November, 30), nil
	case "WNBA":
		return day(year, time.May, 1), day(year, time.October, 31), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: no season calendar for %s", ErrInvalidRequest, league)
	}
}
