// Package scheduler keeps the recurring ingestion jobs registered on a
// Redis-backed queue and runs them on fixed worker pools.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/livescore/internal/cache"
	"github.com/fortuna/livescore/internal/ingest"
	"github.com/fortuna/livescore/internal/ingest/adapter"
	"github.com/fortuna/livescore/internal/logging"
	"github.com/fortuna/livescore/internal/metrics"
	"github.com/fortuna/livescore/internal/reconciliation"
	"github.com/fortuna/livescore/internal/scores"
	"github.com/fortuna/livescore/internal/store"
)

// Queue names.
const (
	QueueIngest      = "ingest"
	QueueMaintenance = "maintenance"
)

// Job names.
const (
	JobLive        = "live"
	JobFeatured    = "featured"
	JobMaintenance = "maintenance"
)

// MaintenanceJobID identifies the single maintenance job.
const MaintenanceJobID = "maintenance:daily"

// recentFailures is how many failed runs Status reports per queue.
const recentFailures = 10

// ErrIngestFailed is returned by an ingest job whose in-job retry also
// produced nothing but errors.
var ErrIngestFailed = errors.New("scheduler: ingest run failed")

// LiveJobID is the deterministic ID of a team's live job.
func LiveJobID(teamID string) string {
	return "ingest:" + teamID
}

// FeaturedJobID is the deterministic ID of a league's featured job.
func FeaturedJobID(league string) string {
	return "ingest:featured:" + league
}

// Runner executes one ingestion run. *ingest.Agent implements it.
type Runner interface {
	Run(ctx context.Context, req ingest.Request) scores.RunSummary
}

// TeamLister returns the teams that need live jobs.
type TeamLister interface {
	ListTracked(ctx context.Context) ([]store.Team, error)
}

// Config holds scheduler configuration
type Config struct {
	LiveInterval     time.Duration // Default: 60s
	FeaturedInterval time.Duration // Default: 10m
	MaintenanceCron  string        // Default: 0 4 * * *
	HistoryRetention time.Duration // Default: 24h
	JobAttempts      int           // Default: 3
	JobBackoff       time.Duration // Default: 5s
	LiveConcurrency  int           // Default: 2
	FeaturedLimit    int           // Default: 10
	Leagues          []string
	PollInterval     time.Duration // Default: 1s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		LiveInterval:     60 * time.Second,
		FeaturedInterval: 10 * time.Minute,
		MaintenanceCron:  "0 4 * * *",
		HistoryRetention: 24 * time.Hour,
		JobAttempts:      3,
		JobBackoff:       5 * time.Second,
		LiveConcurrency:  2,
		FeaturedLimit:    ingest.DefaultFeaturedLimit,
		PollInterval:     time.Second,
	}
}

// Options wires an Orchestrator. A nil Client yields a disabled scheduler.
type Options struct {
	Client *redis.Client
	Runner Runner
	Teams  TeamLister
	Cache  cache.Cache
	// Merger is the engine the runner merges with; Status reports its
	// counters when set.
	Merger *reconciliation.Engine
	Config *Config
	Logger *slog.Logger
}

// JobOutcome is the result of a job's most recent run.
type JobOutcome struct {
	JobKey     string    `json:"jobKey"`
	Queue      string    `json:"queue"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	Persisted  int       `json:"persisted"`
	Skipped    int       `json:"skipped"`
	Errored    int       `json:"errored"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Status is a point-in-time view of the scheduler. RecentFailures holds the
// newest failed runs across both queues.
type Status struct {
	Enabled          bool                    `json:"enabled"`
	LiveInterval     string                  `json:"liveInterval"`
	FeaturedInterval string                  `json:"featuredInterval"`
	MaintenanceCron  string                  `json:"maintenanceCron"`
	Jobs             []RepeatableJob         `json:"jobs"`
	LastRuns         []JobOutcome            `json:"lastRuns"`
	RecentFailures   []HistoryEntry          `json:"recentFailures"`
	Reconciliation   *reconciliation.Metrics `json:"reconciliation,omitempty"`
	Error            string                  `json:"error,omitempty"`
}

// ReconcileReport lists the changes made to the queues.
type ReconcileReport struct {
	Removed  []string `json:"removed"`
	Added    int      `json:"added"`
	// Restored lists registered jobs that had lost their pending run.
	Restored []string `json:"restored"`
}

// MaintenanceReport summarizes one maintenance run.
type MaintenanceReport struct {
	HistoryCleaned int             `json:"historyCleaned"`
	Reconcile      ReconcileReport `json:"reconcile"`
	CachePurged    int             `json:"cachePurged"`
}

// jobPayload is the queued body of an ingest job.
type jobPayload struct {
	TeamID string `json:"teamId,omitempty"`
	League string `json:"league,omitempty"`
}

type registration struct {
	name    string
	payload jobPayload
	every   time.Duration
}

type jobHandler func(ctx context.Context, job RepeatableJob) (scores.RunSummary, error)

// Orchestrator manages the recurring ingestion and maintenance jobs.
type Orchestrator struct {
	enabled     bool
	ingest      *RedisQueue
	maintenance *RedisQueue
	runner      Runner
	teams       TeamLister
	cache       cache.Cache
	merger      *reconciliation.Engine
	config      *Config
	logger      *slog.Logger

	mu       sync.Mutex
	lastRuns map[string]JobOutcome
	cancel   context.CancelFunc
}

// NewOrchestrator builds the scheduler. When Redis is absent or does not
// answer a ping the orchestrator is disabled: nothing is registered and
// Start just waits for cancellation.
func NewOrchestrator(ctx context.Context, opts Options) *Orchestrator {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.LiveConcurrency <= 0 {
		cfg.LiveConcurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	c := opts.Cache
	if c == nil {
		c = cache.Disabled{}
	}

	o := &Orchestrator{
		runner:   opts.Runner,
		teams:    opts.Teams,
		cache:    c,
		merger:   opts.Merger,
		config:   cfg,
		logger:   logging.OrDiscard(opts.Logger).With(logging.FieldComponent, "scheduler"),
		lastRuns: make(map[string]JobOutcome),
	}

	if opts.Client == nil {
		o.logger.Warn("no queue backend configured, scheduler disabled")
		return o
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := opts.Client.Ping(pingCtx).Err(); err != nil {
		o.logger.Warn("queue backend unreachable, scheduler disabled", logging.FieldError, err)
		return o
	}

	o.enabled = true
	o.ingest = NewRedisQueue(opts.Client, QueueIngest)
	o.maintenance = NewRedisQueue(opts.Client, QueueMaintenance)
	return o
}

// Enabled reports whether jobs can be registered and run.
func (o *Orchestrator) Enabled() bool {
	return o.enabled
}

// desired computes the ingest jobs that should exist right now: one live
// job per tracked team and one featured job per configured league.
func (o *Orchestrator) desired(ctx context.Context) (map[string]registration, error) {
	tracked, err := o.teams.ListTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked teams: %w", err)
	}

	want := make(map[string]registration, len(tracked)+len(o.config.Leagues))
	for _, t := range tracked {
		if !scores.ValidTeamID(t.TeamID) {
			o.logger.Warn("skipping invalid tracked team", logging.FieldTeamID, t.TeamID)
			continue
		}
		want[LiveJobID(t.TeamID)] = registration{
			name:    JobLive,
			payload: jobPayload{TeamID: t.TeamID, League: t.League},
			every:   o.config.LiveInterval,
		}
	}
	for _, token := range o.config.Leagues {
		league := adapter.Normalize(token)
		if league == "" {
			continue
		}
		want[FeaturedJobID(league)] = registration{
			name:    JobFeatured,
			payload: jobPayload{League: league},
			every:   o.config.FeaturedInterval,
		}
	}
	return want, nil
}

func (o *Orchestrator) register(ctx context.Context, id string, r registration) error {
	return o.ingest.Enqueue(ctx, r.name, r.payload, JobOptions{
		JobID:    id,
		Every:    r.every,
		Attempts: o.config.JobAttempts,
		Backoff:  o.config.JobBackoff,
	})
}

// ScheduleAll registers every desired ingest job and the maintenance job.
// Registration is idempotent. It returns the number of jobs registered.
func (o *Orchestrator) ScheduleAll(ctx context.Context) (int, error) {
	if !o.enabled {
		return 0, nil
	}
	want, err := o.desired(ctx)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	registered := 0
	for _, id := range ids {
		if err := o.register(ctx, id, want[id]); err != nil {
			return registered, err
		}
		registered++
	}

	err = o.maintenance.Enqueue(ctx, JobMaintenance, struct{}{}, JobOptions{
		JobID:    MaintenanceJobID,
		Cron:     o.config.MaintenanceCron,
		Attempts: 1,
	})
	if err != nil {
		return registered, err
	}
	registered++

	o.logger.Info("jobs scheduled", logging.FieldCount, registered)
	return registered, nil
}

// Reconcile removes registered ingest jobs that are no longer desired,
// registers desired ones that are missing and gives back a pending run to
// any kept job that lost it. A failed tracked-team lookup changes nothing.
func (o *Orchestrator) Reconcile(ctx context.Context) (ReconcileReport, error) {
	report := ReconcileReport{Removed: []string{}, Restored: []string{}}
	if !o.enabled {
		return report, nil
	}
	want, err := o.desired(ctx)
	if err != nil {
		return report, err
	}
	existing, err := o.ingest.ListRepeatable(ctx)
	if err != nil {
		return report, err
	}

	have := make(map[string]struct{}, len(existing))
	for _, job := range existing {
		have[job.Key] = struct{}{}
		if _, ok := want[job.Key]; ok {
			if err := o.restore(ctx, o.ingest, job, &report); err != nil {
				return report, err
			}
			continue
		}
		if err := o.ingest.RemoveRepeatable(ctx, job.Key); err != nil {
			return report, err
		}
		report.Removed = append(report.Removed, job.Key)
	}

	ids := make([]string, 0, len(want))
	for id := range want {
		if _, ok := have[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := o.register(ctx, id, want[id]); err != nil {
			return report, err
		}
		report.Added++
	}

	maint, err := o.maintenance.ListRepeatable(ctx)
	if err != nil {
		return report, err
	}
	for _, job := range maint {
		if err := o.restore(ctx, o.maintenance, job, &report); err != nil {
			return report, err
		}
	}

	o.logger.Info("jobs reconciled",
		"removed", len(report.Removed),
		"added", report.Added,
		"restored", len(report.Restored))
	return report, nil
}

func (o *Orchestrator) restore(ctx context.Context, q *RedisQueue, job RepeatableJob, report *ReconcileReport) error {
	if !job.NextRun.IsZero() {
		return nil
	}
	added, err := q.EnsureDue(ctx, job)
	if err != nil {
		return err
	}
	if added {
		o.logger.Warn("job had no pending run, restored", logging.FieldJobID, job.Key)
		report.Restored = append(report.Restored, job.Key)
	}
	return nil
}

// Maintain purges old job history, reconciles the ingest jobs and drops
// team and featured cache entries so the next runs fetch fresh data.
func (o *Orchestrator) Maintain(ctx context.Context) (MaintenanceReport, error) {
	var report MaintenanceReport
	if !o.enabled {
		return report, nil
	}

	for _, q := range []*RedisQueue{o.ingest, o.maintenance} {
		for _, status := range []string{StatusCompleted, StatusFailed} {
			n, err := q.Clean(ctx, o.config.HistoryRetention, status)
			if err != nil {
				return report, err
			}
			report.HistoryCleaned += n
		}
	}

	rec, err := o.Reconcile(ctx)
	report.Reconcile = rec
	if err != nil {
		return report, err
	}

	for _, pattern := range []string{cache.TeamsPattern, cache.FeaturedPattern} {
		n, err := o.cache.DeleteMatching(ctx, pattern)
		if err != nil {
			o.logger.Warn("cache purge failed", "pattern", pattern, logging.FieldError, err)
			continue
		}
		report.CachePurged += n
	}
	return report, nil
}

// Start runs the worker pools until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()

	if !o.enabled {
		<-ctx.Done()
		return nil
	}

	o.logger.Info("scheduler starting",
		"live_interval", o.config.LiveInterval.String(),
		"featured_interval", o.config.FeaturedInterval.String(),
		"maintenance_cron", o.config.MaintenanceCron,
		"live_concurrency", o.config.LiveConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < o.config.LiveConcurrency; i++ {
		g.Go(func() error {
			o.work(gctx, o.ingest, o.runIngestJob)
			return nil
		})
	}
	g.Go(func() error {
		o.work(gctx, o.maintenance, o.runMaintenanceJob)
		return nil
	})
	err := g.Wait()
	o.logger.Info("scheduler stopped")
	return err
}

// Stop cancels a running Start.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

func (o *Orchestrator) work(ctx context.Context, q *RedisQueue, handle jobHandler) {
	for {
		ran, err := o.processNext(ctx, q, handle)
		if err != nil {
			o.logger.Warn("claiming job failed", logging.FieldQueue, q.Name(), logging.FieldError, err)
		}
		if ran {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.config.PollInterval):
		}
	}
}

// processNext claims and runs at most one due job. It reports whether a
// job ran.
func (o *Orchestrator) processNext(ctx context.Context, q *RedisQueue, handle jobHandler) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	job, err := q.Claim(ctx)
	if err != nil || job == nil {
		return false, err
	}
	o.execute(ctx, q, *job, handle)
	return true, nil
}

// execute runs a claimed job with exponential backoff between attempts.
func (o *Orchestrator) execute(ctx context.Context, q *RedisQueue, job RepeatableJob, handle jobHandler) {
	start := time.Now()
	logger := o.logger.With(logging.FieldQueue, q.Name(), logging.FieldJobID, job.Key)

	attempts := job.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		summary scores.RunSummary
		err     error
		tried   int
	)
	for tried < attempts {
		tried++
		summary, err = handle(ctx, job)
		if err == nil {
			break
		}
		logger.Warn("job attempt failed", "attempt", tried, "max_attempts", attempts, logging.FieldError, err)
		if tried == attempts || !sleep(ctx, backoff(job.Backoff, tried)) {
			break
		}
	}

	entry, recErr := q.Record(ctx, job, tried, err)
	if recErr != nil {
		logger.Warn("recording job history failed", logging.FieldError, recErr)
	}
	elapsed := time.Since(start)
	metrics.RecordJob(q.Name(), entry.Status, elapsed)

	if err != nil {
		logger.Error("job failed", "attempts", tried, logging.FieldDurationMS, elapsed.Milliseconds(), logging.FieldError, err)
	} else {
		logger.Debug("job completed", "attempts", tried, logging.FieldDurationMS, elapsed.Milliseconds())
	}

	o.mu.Lock()
	o.lastRuns[job.Key] = JobOutcome{
		JobKey:     job.Key,
		Queue:      q.Name(),
		Status:     entry.Status,
		Attempts:   tried,
		Error:      entry.Error,
		Persisted:  summary.Persisted,
		Skipped:    summary.Skipped,
		Errored:    summary.Errored,
		FinishedAt: entry.FinishedAt,
	}
	o.mu.Unlock()
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// backoff is base doubled for every failed attempt after the first.
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

func (p jobPayload) request(featuredLimit int) ingest.Request {
	if p.TeamID != "" {
		return ingest.Request{TeamIDs: []string{p.TeamID}, League: p.League, Mode: scores.ModeLive}
	}
	return ingest.Request{League: p.League, Mode: scores.ModeFeatured, Limit: featuredLimit}
}

// runIngestJob runs the agent once and, when that run errored or came back
// empty, once more before reporting failure to the queue.
func (o *Orchestrator) runIngestJob(ctx context.Context, job RepeatableJob) (scores.RunSummary, error) {
	var p jobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return scores.RunSummary{}, fmt.Errorf("decoding payload of %s: %w", job.Key, err)
	}
	req := p.request(o.config.FeaturedLimit)

	summary := o.runner.Run(ctx, req)
	if summary.Errored == 0 && !summary.Empty() {
		return summary, nil
	}

	o.logger.Info("retrying ingest in job",
		logging.FieldJobID, job.Key, logging.FieldRunID, summary.RunID, "errored", summary.Errored)
	retry := o.runner.Run(ctx, req)
	if retry.Errored > 0 && len(retry.Games) == 0 {
		return retry, fmt.Errorf("%w: %s errored %d items", ErrIngestFailed, job.Key, retry.Errored)
	}
	return retry, nil
}

func (o *Orchestrator) runMaintenanceJob(ctx context.Context, _ RepeatableJob) (scores.RunSummary, error) {
	report, err := o.Maintain(ctx)
	if err != nil {
		return scores.RunSummary{}, err
	}
	o.logger.Info("maintenance complete",
		"history_cleaned", report.HistoryCleaned,
		"jobs_removed", len(report.Reconcile.Removed),
		"jobs_added", report.Reconcile.Added,
		"cache_purged", report.CachePurged)
	return scores.RunSummary{}, nil
}

// Status returns current scheduler status
func (o *Orchestrator) Status(ctx context.Context) Status {
	st := Status{
		Enabled:          o.enabled,
		LiveInterval:     o.config.LiveInterval.String(),
		FeaturedInterval: o.config.FeaturedInterval.String(),
		MaintenanceCron:  o.config.MaintenanceCron,
		Jobs:             []RepeatableJob{},
		LastRuns:         []JobOutcome{},
		RecentFailures:   []HistoryEntry{},
	}
	if o.merger != nil {
		m := o.merger.GetMetrics()
		st.Reconciliation = &m
	}

	o.mu.Lock()
	for _, out := range o.lastRuns {
		st.LastRuns = append(st.LastRuns, out)
	}
	o.mu.Unlock()
	sort.Slice(st.LastRuns, func(i, j int) bool { return st.LastRuns[i].JobKey < st.LastRuns[j].JobKey })

	if !o.enabled {
		return st
	}
	for _, q := range []*RedisQueue{o.ingest, o.maintenance} {
		jobs, err := q.ListRepeatable(ctx)
		if err != nil {
			st.Error = err.Error()
			continue
		}
		st.Jobs = append(st.Jobs, jobs...)

		failed, err := q.History(ctx, StatusFailed, recentFailures)
		if err != nil {
			st.Error = err.Error()
			continue
		}
		st.RecentFailures = append(st.RecentFailures, failed...)
	}
	sort.Slice(st.RecentFailures, func(i, j int) bool {
		return st.RecentFailures[i].FinishedAt.After(st.RecentFailures[j].FinishedAt)
	})
	if len(st.RecentFailures) > recentFailures {
		st.RecentFailures = st.RecentFailures[:recentFailures]
	}
	return st
}
