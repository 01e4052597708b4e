//go:build integration
// +build integration

package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackvote/trackvote/internal/pkg/cache"
)

// requireRedis skips the test when no Redis is reachable
func requireRedis(t *testing.T) {
	t.Helper()
	if err := cache.GetClient().Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
}

func cleanupQueueKeys(t *testing.T, pollID uint) {
	t.Helper()
	ctx := context.Background()
	client := cache.GetClient()
	client.Del(ctx, dedupKey(pollID), JobDelayedKey, JobReadyKey, JobProcessingKey, JobStatsKey)
	keys, _ := client.Keys(ctx, JobKeyPrefix+"*").Result()
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func TestScheduleResync_Debounce(t *testing.T) {
	requireRedis(t)

	const pollID = 90001
	cleanupQueueKeys(t, pollID)
	defer cleanupQueueKeys(t, pollID)

	q := NewQueue(noopProcessor{}, 1)

	job, err := q.ScheduleResync(pollID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, uint(pollID), job.PollID)
	assert.WithinDuration(t, time.Now().Add(DebounceDelay), job.NotBefore, 2*time.Second)

	// While the first job is pending, further schedules are absorbed
	absorbed, err := q.ScheduleResync(pollID)
	require.NoError(t, err)
	assert.Nil(t, absorbed)

	size, err := q.GetDelayedSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	stored, err := q.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)
}

func TestScheduleResync_DistinctPollsAreIndependent(t *testing.T) {
	requireRedis(t)

	cleanupQueueKeys(t, 90002)
	cleanupQueueKeys(t, 90003)
	defer cleanupQueueKeys(t, 90002)
	defer cleanupQueueKeys(t, 90003)

	q := NewQueue(noopProcessor{}, 1)

	job1, err := q.ScheduleResync(90002)
	require.NoError(t, err)
	require.NotNil(t, job1)

	job2, err := q.ScheduleResync(90003)
	require.NoError(t, err)
	require.NotNil(t, job2)

	size, err := q.GetDelayedSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestQueue_StartStop(t *testing.T) {
	requireRedis(t)

	q := NewQueue(noopProcessor{}, 2)

	q.Start()
	assert.True(t, q.IsRunning())

	// Idempotent start
	q.Start()
	assert.True(t, q.IsRunning())

	q.Stop()
	assert.False(t, q.IsRunning())
}
