package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/fortuna/livescore/internal/backfill"
	"github.com/fortuna/livescore/internal/scores"
)

// BackfillHandler proxies API calls to the backfill service.
type BackfillHandler struct {
	service Backfiller
}

// NewBackfillHandler wires the REST layer to the backfill service.
func NewBackfillHandler(service Backfiller) *BackfillHandler {
	return &BackfillHandler{service: service}
}

type apiBackfillRequest struct {
	League    string   `json:"league"`
	Season    string   `json:"season"`
	TeamIDs   []string `json:"team_ids"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// HandleBackfillRequest handles POST /api/v1/backfill
func (h *BackfillHandler) HandleBackfillRequest(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill is not configured", nil)
		return
	}

	var req apiBackfillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	backfillReq := backfill.Request{
		League:  req.League,
		Season:  req.Season,
		TeamIDs: req.TeamIDs,
	}

	if req.StartDate != "" {
		start, err := scores.ParseDay(req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid start_date format (YYYY-MM-DD)", err)
			return
		}
		backfillReq.StartDate = &start
	}

	if req.EndDate != "" {
		end, err := scores.ParseDay(req.EndDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid end_date format (YYYY-MM-DD)", err)
			return
		}
		backfillReq.EndDate = &end
	}

	job, err := h.service.Enqueue(r.Context(), backfillReq)
	if errors.Is(err, backfill.ErrInvalidRequest) {
		respondError(w, http.StatusUnprocessableEntity, "Invalid backfill request", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue backfill job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]*jobView{"job": jobPayload(job)})
}

// HandleBackfillStatus handles GET /api/v1/backfill/status
func (h *BackfillHandler) HandleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill is not configured", nil)
		return
	}

	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

type jobView struct {
	JobID           string     `json:"job_id"`
	JobType         string     `json:"job_type"`
	League          string     `json:"league"`
	Season          string     `json:"season,omitempty"`
	TeamIDs         []string   `json:"team_ids,omitempty"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	Status          string     `json:"status"`
	StatusMessage   string     `json:"status_message,omitempty"`
	ProgressCurrent int        `json:"progress_current"`
	ProgressTotal   int        `json:"progress_total"`
	Persisted       int        `json:"persisted"`
	Skipped         int        `json:"skipped"`
	Errored         int        `json:"errored"`
	LastError       string     `json:"last_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type statusView struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	ActiveJob *jobView   `json:"active_job,omitempty"`
	History   []*jobView `json:"history"`
}

func buildStatusPayload(summary *backfill.StatusSummary) statusView {
	view := statusView{
		Status:  "idle",
		Message: "No active jobs",
		History: make([]*jobView, 0, len(summary.History)),
	}
	if active := summary.ActiveJob; active != nil {
		view.ActiveJob = jobPayload(active)
		view.Status = view.ActiveJob.Status
		if active.StatusMessage.Valid {
			view.Message = active.StatusMessage.String
		}
	}
	for _, job := range summary.History {
		view.History = append(view.History, jobPayload(job))
	}
	return view
}

func jobPayload(job *backfill.Job) *jobView {
	if job == nil {
		return nil
	}
	view := &jobView{
		JobID:           job.JobID,
		JobType:         string(job.JobType),
		League:          job.League,
		Season:          job.Season.String,
		TeamIDs:         job.TeamIDs,
		StartDate:       job.StartDate.Format(scores.DayLayout),
		EndDate:         job.EndDate.Format(scores.DayLayout),
		Status:          string(job.Status),
		StatusMessage:   job.StatusMessage.String,
		ProgressCurrent: job.ProgressCurrent,
		ProgressTotal:   job.ProgressTotal,
		Persisted:       job.Persisted,
		Skipped:         job.Skipped,
		Errored:         job.Errored,
		LastError:       job.LastError.String,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
	if job.StartedAt.Valid {
		view.StartedAt = &job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		view.CompletedAt = &job.CompletedAt.Time
	}
	return view
}
