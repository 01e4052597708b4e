package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type noopProcessor struct{}

func (noopProcessor) Process(ctx context.Context, job *Job) error { return nil }

// TestNewQueue tests the queue constructor
func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 1},
		{"Negative workers", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(noopProcessor{}, tt.workers)

			assert.NotNil(t, queue)
			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.NotNil(t, queue.stopCh)
			assert.False(t, queue.running)
		})
	}
}

func TestConstants(t *testing.T) {
	// Test Redis key constants
	assert.Equal(t, "sync_job:", JobKeyPrefix)
	assert.Equal(t, "sync_job_dedup:", JobDedupKeyPrefix)
	assert.Equal(t, "sync_jobs_delayed", JobDelayedKey)
	assert.Equal(t, "sync_jobs_ready", JobReadyKey)
	assert.Equal(t, "sync_jobs_processing", JobProcessingKey)
	assert.Equal(t, "sync_job_stats", JobStatsKey)

	// Test job settings constants
	assert.Equal(t, 3, DefaultMaxAttempts)
	assert.Equal(t, 60*time.Second, DebounceDelay)
	assert.Equal(t, 1*time.Second, RetryBackoffBase)
	assert.Equal(t, 24*time.Hour, JobTTL)
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "sync_job_dedup:42", dedupKey(42))
}
