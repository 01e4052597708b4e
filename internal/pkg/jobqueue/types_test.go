package jobqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{"Pending", JobStatusPending, "pending"},
		{"Processing", JobStatusProcessing, "processing"},
		{"Completed", JobStatusCompleted, "completed"},
		{"Failed", JobStatusFailed, "failed"},
		{"Retrying", JobStatusRetrying, "retrying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{
			name: "Failed job with attempts remaining",
			job: &Job{
				Status:      JobStatusFailed,
				Attempts:    1,
				MaxAttempts: 3,
			},
			retryable: true,
		},
		{
			name: "Failed job with no attempts remaining",
			job: &Job{
				Status:      JobStatusFailed,
				Attempts:    3,
				MaxAttempts: 3,
			},
			retryable: false,
		},
		{
			name: "Completed job",
			job: &Job{
				Status:      JobStatusCompleted,
				Attempts:    1,
				MaxAttempts: 3,
			},
			retryable: false,
		},
		{
			name: "Pending job",
			job: &Job{
				Status:      JobStatusPending,
				Attempts:    0,
				MaxAttempts: 3,
			},
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJob_MarkAsProcessing(t *testing.T) {
	job := &Job{
		Status: JobStatusPending,
	}

	beforeTime := time.Now()
	job.MarkAsProcessing()
	afterTime := time.Now()

	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.True(t, job.UpdatedAt.After(beforeTime) || job.UpdatedAt.Equal(beforeTime))
	assert.True(t, job.UpdatedAt.Before(afterTime) || job.UpdatedAt.Equal(afterTime))
	assert.NotNil(t, job.ProcessedAt)
}

func TestJob_MarkAsCompleted(t *testing.T) {
	job := &Job{
		Status:   JobStatusProcessing,
		ErrorMsg: "some error",
	}

	job.MarkAsCompleted()

	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)
}

func TestJob_MarkAsFailed(t *testing.T) {
	job := &Job{
		Status:   JobStatusProcessing,
		Attempts: 1,
	}

	errorMsg := "processing failed"
	job.MarkAsFailed(errorMsg)

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, errorMsg, job.ErrorMsg)
	assert.Equal(t, 2, job.Attempts)
}

func TestJob_MarkAsRetrying(t *testing.T) {
	job := &Job{
		Status: JobStatusFailed,
	}

	job.MarkAsRetrying()

	assert.Equal(t, JobStatusRetrying, job.Status)
}

func TestPermanentError(t *testing.T) {
	base := errors.New("poll gone")

	wrapped := Permanent(base)
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)

	// Wrapping again deeper in the chain still detects the marker
	deeper := fmt.Errorf("processing failed: %w", wrapped)
	assert.True(t, IsPermanent(deeper))

	assert.False(t, IsPermanent(base))
	assert.False(t, IsPermanent(nil))
	assert.Nil(t, Permanent(nil))
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		expected time.Duration
	}{
		{"First retry", 1, 1 * time.Second},
		{"Second retry", 2, 2 * time.Second},
		{"Third retry", 3, 4 * time.Second},
		{"Below range clamps to first", 0, 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RetryBackoff(tt.attempts))
		})
	}
}

func TestJobJSONSerialization(t *testing.T) {
	now := time.Now()
	processedAt := now.Add(time.Minute)

	job := &Job{
		ID:          "test-job-123",
		PollID:      42,
		Status:      JobStatusRetrying,
		NotBefore:   now.Add(DebounceDelay),
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Second),
		ProcessedAt: &processedAt,
		ErrorMsg:    "upstream 500",
		Attempts:    1,
		MaxAttempts: 3,
	}

	jsonData, err := json.Marshal(job)
	require.NoError(t, err)

	var result Job
	err = json.Unmarshal(jsonData, &result)
	require.NoError(t, err)

	assert.Equal(t, job.ID, result.ID)
	assert.Equal(t, job.PollID, result.PollID)
	assert.Equal(t, job.Status, result.Status)
	assert.Equal(t, job.ErrorMsg, result.ErrorMsg)
	assert.Equal(t, job.Attempts, result.Attempts)
	assert.Equal(t, job.MaxAttempts, result.MaxAttempts)

	// Time comparisons (allowing for minor precision differences)
	assert.True(t, job.NotBefore.Sub(result.NotBefore) < time.Millisecond)
	assert.True(t, job.CreatedAt.Sub(result.CreatedAt) < time.Millisecond)
	assert.NotNil(t, result.ProcessedAt)
}
