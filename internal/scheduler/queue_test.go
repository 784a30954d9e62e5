package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestQueue(t *testing.T) (*RedisQueue, *redis.Client, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := clock0
	q := NewRedisQueue(client, "test")
	q.now = func() time.Time { return now }
	return q, client, &now
}

func TestEnqueueIntervalJobIsDueImmediately(t *testing.T) {
	q, _, now := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, JobLive, jobPayload{TeamID: "NBA_LAL"}, JobOptions{
		JobID: "ingest:NBA_LAL", Every: time.Minute, Attempts: 3, Backoff: time.Second,
	}))

	job, err := q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "ingest:NBA_LAL", job.Key)
	assert.Equal(t, JobLive, job.Name)
	assert.Equal(t, 3, job.Attempts)
	assert.JSONEq(t, `{"teamId":"NBA_LAL"}`, string(job.Payload))
	assert.True(t, job.NextRun.Equal(clock0.Add(time.Minute)))

	job, err = q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, job, "rescheduled run is not due yet")

	*now = clock0.Add(time.Minute)
	job, err = q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
}

func TestEnqueueIsIdempotent(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, JobFeatured, jobPayload{League: "NBA"}, JobOptions{
			JobID: FeaturedJobID("NBA"), Every: 10 * time.Minute,
		}))
	}

	jobs, err := q.ListRepeatable(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ingest:featured:NBA", jobs[0].Key)
	assert.Equal(t, 1, jobs[0].Attempts, "attempts default to one")
	assert.True(t, jobs[0].NextRun.Equal(clock0))
}

func TestEnqueueCronJob(t *testing.T) {
	q, _, now := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, JobMaintenance, struct{}{}, JobOptions{JobID: MaintenanceJobID, Cron: "0 4 * * *"}))

	jobs, err := q.ListRepeatable(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.Equal(time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC)))

	job, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)

	*now = time.Date(2026, 10, 16, 4, 0, 30, 0, time.UTC)
	job, err = q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.True(t, job.NextRun.Equal(time.Date(2026, 10, 17, 4, 0, 0, 0, time.UTC)))
}

func TestEnqueueRejectsBadSchedules(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()

	err := q.Enqueue(ctx, JobLive, nil, JobOptions{JobID: "x"})
	assert.True(t, errors.Is(err, ErrNoSchedule))

	err = q.Enqueue(ctx, JobLive, nil, JobOptions{JobID: "x", Cron: "not a cron"})
	assert.ErrorContains(t, err, "parsing cron")

	err = q.Enqueue(ctx, JobLive, nil, JobOptions{Every: time.Second})
	assert.Error(t, err)

	jobs, err := q.ListRepeatable(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRemoveRepeatable(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, JobLive, nil, JobOptions{JobID: "ingest:NBA_LAL", Every: time.Minute}))
	require.NoError(t, q.RemoveRepeatable(ctx, "ingest:NBA_LAL"))

	jobs, err := q.ListRepeatable(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	job, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestClaimDropsOrphanedDueEntry(t *testing.T) {
	q, client, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, client.ZAdd(ctx, "queue:test:due", redis.Z{Score: 0, Member: "ghost"}).Err())

	job, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)

	n, err := client.ZCard(ctx, "queue:test:due").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentClaimsRunJobOnce(t *testing.T) {
	q, _, _ := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, JobLive, nil, JobOptions{JobID: "ingest:NBA_LAL", Every: time.Minute}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := q.Claim(ctx)
			assert.NoError(t, err)
			if job != nil {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, claimed)

	jobs, err := q.ListRepeatable(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.Equal(clock0.Add(time.Minute)))
}

func TestCancelledClaimKeepsPendingRun(t *testing.T) {
	q, client, _ := newTestQueue(t)
	require.NoError(t, q.Enqueue(context.Background(), JobLive, nil, JobOptions{JobID: "ingest:NBA_LAL", Every: time.Minute}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Claim(ctx)
	require.Error(t, err)

	score, err := client.ZScore(context.Background(), "queue:test:due", "ingest:NBA_LAL").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(clock0.UnixMilli()), score)
}

func TestEnsureDue(t *testing.T) {
	q, client, _ := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, JobMaintenance, nil, JobOptions{JobID: MaintenanceJobID, Cron: "0 4 * * *"}))

	jobs, err := q.ListRepeatable(ctx)
	require.NoError(t, err)
	added, err := q.EnsureDue(ctx, jobs[0])
	require.NoError(t, err)
	assert.False(t, added, "pending run already present")

	require.NoError(t, client.ZRem(ctx, "queue:test:due", MaintenanceJobID).Err())
	added, err = q.EnsureDue(ctx, jobs[0])
	require.NoError(t, err)
	assert.True(t, added)

	score, err := client.ZScore(ctx, "queue:test:due", MaintenanceJobID).Result()
	require.NoError(t, err)
	assert.Equal(t, float64(time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC).UnixMilli()), score)
}

func TestRecordHistoryAndClean(t *testing.T) {
	q, _, now := newTestQueue(t)
	ctx := context.Background()
	job := RepeatableJob{Key: "ingest:NBA_LAL"}

	_, err := q.Record(ctx, job, 1, nil)
	require.NoError(t, err)
	_, err = q.Record(ctx, job, 3, errors.New("upstream down"))
	require.NoError(t, err)

	*now = clock0.Add(2 * time.Hour)
	latest, err := q.Record(ctx, job, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, latest.Status)

	failed, err := q.History(ctx, StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 3, failed[0].Attempts)
	assert.Equal(t, "upstream down", failed[0].Error)

	n, err := q.Clean(ctx, time.Hour, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	completed, err := q.History(ctx, StatusCompleted, 10)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, latest.ID, completed[0].ID)

	n, err = q.Clean(ctx, time.Hour, StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
