package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// Job history statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNoSchedule is returned when a job has neither an interval nor a cron
// pattern.
var ErrNoSchedule = errors.New("scheduler: job needs an interval or a cron pattern")

// JobOptions controls how a repeatable job is registered.
type JobOptions struct {
	// JobID is the deterministic identity. Registering the same ID twice
	// replaces the definition and keeps the pending run.
	JobID string
	Every time.Duration
	Cron  string
	// Attempts is the total number of tries per run, including the first.
	Attempts int
	// Backoff is the delay before the second attempt; it doubles after
	// each failure.
	Backoff time.Duration
}

// RepeatableJob is a registered recurring job.
type RepeatableJob struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Every    time.Duration   `json:"every,omitempty"`
	Cron     string          `json:"cron,omitempty"`
	Attempts int             `json:"attempts"`
	Backoff  time.Duration   `json:"backoff"`
	NextRun  time.Time       `json:"nextRun,omitempty"`
}

// next returns the run after from.
func (j RepeatableJob) next(from time.Time) (time.Time, error) {
	if j.Cron != "" {
		sched, err := cron.ParseStandard(j.Cron)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing cron %q: %w", j.Cron, err)
		}
		return sched.Next(from), nil
	}
	if j.Every <= 0 {
		return time.Time{}, ErrNoSchedule
	}
	return from.Add(j.Every), nil
}

// HistoryEntry records one finished run.
type HistoryEntry struct {
	ID         string    `json:"id"`
	JobKey     string    `json:"jobKey"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RedisQueue is a named queue of repeatable jobs:
//
//	queue:{name}:repeat     hash   job key -> definition
//	queue:{name}:due        zset   job key scored by next run (unix ms)
//	queue:{name}:completed  zset   history entries scored by finish time
//	queue:{name}:failed     zset   history entries scored by finish time
type RedisQueue struct {
	client *redis.Client
	name   string
	now    func() time.Time
}

// NewRedisQueue binds a queue name to a Redis client.
func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name, now: time.Now}
}

// Name returns the queue name.
func (q *RedisQueue) Name() string {
	return q.name
}

func (q *RedisQueue) key(suffix string) string {
	return "queue:" + q.name + ":" + suffix
}

// Enqueue registers name as a repeatable job. Interval jobs are due
// immediately; cron jobs at their next matching time.
func (q *RedisQueue) Enqueue(ctx context.Context, name string, payload interface{}, opts JobOptions) error {
	if opts.JobID == "" {
		return errors.New("scheduler: job ID is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", opts.JobID, err)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}

	job := RepeatableJob{
		Key:      opts.JobID,
		Name:     name,
		Payload:  raw,
		Every:    opts.Every,
		Cron:     opts.Cron,
		Attempts: opts.Attempts,
		Backoff:  opts.Backoff,
	}

	now := q.now()
	first := now
	if job.Cron != "" || job.Every <= 0 {
		if first, err = job.next(now); err != nil {
			return err
		}
	}

	def, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.key("repeat"), job.Key, def)
	pipe.ZAddNX(ctx, q.key("due"), redis.Z{Score: float64(first.UnixMilli()), Member: job.Key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("registering %s on %s: %w", job.Key, q.name, err)
	}
	return nil
}

// ListRepeatable returns every registered job sorted by key.
func (q *RedisQueue) ListRepeatable(ctx context.Context) ([]RepeatableJob, error) {
	defs, err := q.client.HGetAll(ctx, q.key("repeat")).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s jobs: %w", q.name, err)
	}

	jobs := make([]RepeatableJob, 0, len(defs))
	for key, def := range defs {
		var job RepeatableJob
		if err := json.Unmarshal([]byte(def), &job); err != nil {
			return nil, fmt.Errorf("decoding job %s: %w", key, err)
		}
		if score, err := q.client.ZScore(ctx, q.key("due"), key).Result(); err == nil {
			job.NextRun = time.UnixMilli(int64(score))
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Key < jobs[j].Key })
	return jobs, nil
}

// RemoveRepeatable unregisters a job and drops its pending run.
func (q *RedisQueue) RemoveRepeatable(ctx context.Context, key string) error {
	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, q.key("repeat"), key)
	pipe.ZRem(ctx, q.key("due"), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing %s from %s: %w", key, q.name, err)
	}
	return nil
}

// Claim takes the earliest due job, if any, and moves it to its next run.
// The read and the reschedule run in one WATCH transaction: a worker that
// loses the race, or gives up before EXEC, leaves the due entry as it was.
func (q *RedisQueue) Claim(ctx context.Context) (*RepeatableJob, error) {
	now := q.now()
	dueKey, repeatKey := q.key("due"), q.key("repeat")

	var claimed *RepeatableJob
	err := q.client.Watch(ctx, func(tx *redis.Tx) error {
		due, err := tx.ZRangeByScore(ctx, dueKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(now.UnixMilli(), 10),
			Count: 1,
		}).Result()
		if err != nil {
			return fmt.Errorf("polling %s: %w", q.name, err)
		}
		if len(due) == 0 {
			return nil
		}
		key := due[0]

		def, err := tx.HGet(ctx, repeatKey, key).Result()
		if errors.Is(err, redis.Nil) {
			// Unregistered after it became due.
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, dueKey, key)
				return nil
			})
			return err
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", key, err)
		}

		var job RepeatableJob
		if err := json.Unmarshal([]byte(def), &job); err != nil {
			return fmt.Errorf("decoding job %s: %w", key, err)
		}
		next, err := job.next(now)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(next.UnixMilli()), Member: key})
			return nil
		})
		if err != nil {
			return err
		}
		job.NextRun = next
		claimed = &job
		return nil
	}, dueKey, repeatKey)

	if errors.Is(err, redis.TxFailedErr) {
		// Another worker claimed it first.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming from %s: %w", q.name, err)
	}
	return claimed, nil
}

// EnsureDue gives a registered job a pending run when it has none. Interval
// jobs become due immediately, cron jobs at their next matching time. It
// reports whether an entry was added.
func (q *RedisQueue) EnsureDue(ctx context.Context, job RepeatableJob) (bool, error) {
	now := q.now()
	at := now
	if job.Cron != "" || job.Every <= 0 {
		var err error
		if at, err = job.next(now); err != nil {
			return false, err
		}
	}
	n, err := q.client.ZAddNX(ctx, q.key("due"), redis.Z{Score: float64(at.UnixMilli()), Member: job.Key}).Result()
	if err != nil {
		return false, fmt.Errorf("restoring %s on %s: %w", job.Key, q.name, err)
	}
	return n > 0, nil
}

// Record appends a finished run to the completed or failed history.
func (q *RedisQueue) Record(ctx context.Context, job RepeatableJob, attempts int, runErr error) (HistoryEntry, error) {
	entry := HistoryEntry{
		ID:         uuid.NewString(),
		JobKey:     job.Key,
		Status:     StatusCompleted,
		Attempts:   attempts,
		FinishedAt: q.now().UTC(),
	}
	if runErr != nil {
		entry.Status = StatusFailed
		entry.Error = runErr.Error()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return entry, err
	}
	err = q.client.ZAdd(ctx, q.key(entry.Status), redis.Z{
		Score:  float64(entry.FinishedAt.UnixMilli()),
		Member: raw,
	}).Err()
	if err != nil {
		return entry, fmt.Errorf("recording %s run of %s: %w", entry.Status, job.Key, err)
	}
	return entry, nil
}

// History returns up to limit most recent entries for status.
func (q *RedisQueue) History(ctx context.Context, status string, limit int64) ([]HistoryEntry, error) {
	raw, err := q.client.ZRevRange(ctx, q.key(status), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s history: %w", status, err)
	}
	entries := make([]HistoryEntry, 0, len(raw))
	for _, r := range raw {
		var e HistoryEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clean drops history entries with the given status older than olderThan.
func (q *RedisQueue) Clean(ctx context.Context, olderThan time.Duration, status string) (int, error) {
	cutoff := q.now().Add(-olderThan).UnixMilli()
	n, err := q.client.ZRemRangeByScore(ctx, q.key(status), "-inf", "("+strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("cleaning %s history of %s: %w", status, q.name, err)
	}
	return int(n), nil
}
