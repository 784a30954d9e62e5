package backfill

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// JobType enumerates the supported backfill job variants.
type JobType string

const (
	JobTypeSeason    JobType = "season"
	JobTypeDateRange JobType = "date_range"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job models the database representation of a backfill job.
type Job struct {
	JobID           string         `json:"job_id"`
	JobType         JobType        `json:"job_type"`
	League          string         `json:"league"`
	Season          sql.NullString `json:"-"`
	TeamIDs         pq.StringArray `json:"team_ids"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	Status          JobStatus      `json:"status"`
	StatusMessage   sql.NullString `json:"-"`
	ProgressCurrent int            `json:"progress_current"`
	ProgressTotal   int            `json:"progress_total"`
	Persisted       int            `json:"persisted"`
	Skipped         int            `json:"skipped"`
	Errored         int            `json:"errored"`
	LastError       sql.NullString `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       sql.NullTime   `json:"-"`
	CompletedAt     sql.NullTime   `json:"-"`
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	cpy.TeamIDs = append(pq.StringArray(nil), j.TeamIDs...)
	return &cpy
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type    JobType
	League  string
	TeamIDs []string
	Start   time.Time
	End     time.Time
	DryRun  bool
}

// Totals accumulates run counts across the days of a job.
type Totals struct {
	Persisted int `json:"persisted"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnDateStart(date time.Time, index int, total int)
	OnProgress(message string, current int, total int, totals Totals)
	OnJobComplete(totals Totals)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
