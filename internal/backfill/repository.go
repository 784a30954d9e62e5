package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/livescore/internal/store"
)

// JobStore persists backfill jobs. *Repository implements it.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error
	UpdateProgress(ctx context.Context, jobID string, current, total int, totals Totals, message string) error
	ResetStuckJobs(ctx context.Context) error
	MarkNextJobRunning(ctx context.Context) (*Job, error)
	GetActiveJob(ctx context.Context) (*Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]*Job, error)
}

// Repository handles persistence for backfill jobs.
type Repository struct {
	db *store.Database
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

const jobColumns = `job_id, job_type, league, season, team_ids, start_date, end_date,
	status, status_message, progress_current, progress_total,
	persisted, skipped, errored, last_error,
	created_at, updated_at, started_at, completed_at`

// CreateJob inserts a new job row and returns the stored record.
func (r *Repository) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	query := `
		INSERT INTO backfill_jobs (
			job_id, job_type, league, season, team_ids, start_date, end_date,
			status, status_message, progress_total
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING ` + jobColumns

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	row := r.db.DB().QueryRowContext(ctx, query,
		job.JobID, job.JobType, job.League, job.Season, job.TeamIDs, job.StartDate, job.EndDate,
		job.Status, job.StatusMessage, job.ProgressTotal,
	)

	stored, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return stored, nil
}

// UpdateStatus updates status, message and optional error.
func (r *Repository) UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	query := `
		UPDATE backfill_jobs
		SET status = $2::varchar,
			status_message = $3,
			last_error = $4,
			updated_at = NOW(),
			completed_at = CASE WHEN $2::varchar IN ('completed','failed') THEN NOW() ELSE completed_at END
		WHERE job_id = $1
	`

	var errText sql.NullString
	if lastErr != nil {
		errText = sql.NullString{String: lastErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, jobID, string(status), message, errText); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	return nil
}

// UpdateProgress updates the progress counters, run totals and message.
func (r *Repository) UpdateProgress(ctx context.Context, jobID string, current, total int, totals Totals, message string) error {
	query := `
		UPDATE backfill_jobs
		SET progress_current = $2,
			progress_total = $3,
			persisted = $4,
			skipped = $5,
			errored = $6,
			status_message = $7,
			updated_at = NOW()
		WHERE job_id = $1
	`

	_, err := r.db.DB().ExecContext(ctx, query, jobID, current, total,
		totals.Persisted, totals.Skipped, totals.Errored, message)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	return nil
}

// ResetStuckJobs moves running jobs back to queued (used during service restarts).
func (r *Repository) ResetStuckJobs(ctx context.Context) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE backfill_jobs
		SET status = 'queued',
			status_message = 'Reset after service restart',
			updated_at = NOW()
		WHERE status = 'running'
	`)
	if err != nil {
		return fmt.Errorf("reset stuck jobs: %w", err)
	}
	return nil
}

// MarkNextJobRunning atomically claims the next queued job.
func (r *Repository) MarkNextJobRunning(ctx context.Context) (*Job, error) {
	query := `
		WITH next_job AS (
			SELECT job_id
			FROM backfill_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE backfill_jobs AS b
		SET status = 'running',
			status_message = 'Starting job...',
			started_at = COALESCE(b.started_at, NOW()),
			updated_at = NOW()
		FROM next_job
		WHERE b.job_id = next_job.job_id
		RETURNING b.job_id, b.job_type, b.league, b.season, b.team_ids, b.start_date, b.end_date,
			b.status, b.status_message, b.progress_current, b.progress_total,
			b.persisted, b.skipped, b.errored, b.last_error,
			b.created_at, b.updated_at, b.started_at, b.completed_at
	`

	return r.optionalJob(ctx, "claim job", query)
}

// GetActiveJob returns the currently running job, if any.
func (r *Repository) GetActiveJob(ctx context.Context) (*Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM backfill_jobs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`

	return r.optionalJob(ctx, "get active job", query)
}

// ListRecentJobs returns the most recently created jobs.
func (r *Repository) ListRecentJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM backfill_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// optionalJob runs a single-row query. No row is a nil job, not an error.
func (r *Repository) optionalJob(ctx context.Context, op, query string, args ...any) (*Job, error) {
	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return job, nil
}

type jobScanner interface {
	Scan(dest ...any) error
}

func scanJob(row jobScanner) (*Job, error) {
	job := &Job{}
	err := row.Scan(
		&job.JobID, &job.JobType, &job.League, &job.Season, &job.TeamIDs,
		&job.StartDate, &job.EndDate,
		&job.Status, &job.StatusMessage, &job.ProgressCurrent, &job.ProgressTotal,
		&job.Persisted, &job.Skipped, &job.Errored, &job.LastError,
		&job.CreatedAt, &job.UpdatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
