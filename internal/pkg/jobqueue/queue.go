package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/trackvote/trackvote/internal/pkg/cache"
)

const (
	// Redis key prefixes
	JobKeyPrefix      = "sync_job:"
	JobDedupKeyPrefix = "sync_job_dedup:"
	JobDelayedKey     = "sync_jobs_delayed"
	JobReadyKey       = "sync_jobs_ready"
	JobProcessingKey  = "sync_jobs_processing"
	JobStatsKey       = "sync_job_stats"

	// Job settings
	DefaultMaxAttempts = 3
	DebounceDelay      = 60 * time.Second
	RetryBackoffBase   = 1 * time.Second
	JobTimeout         = 30 * time.Second
	JobTTL             = 24 * time.Hour // Jobs expire after 24 hours

	// Dedup markers only need to survive the debounce window plus promotion
	// lag; the TTL guards against leaks if a schedule is interrupted halfway.
	dedupMarkerTTL = 5 * time.Minute
)

// Processor handles one dequeued job
type Processor interface {
	Process(ctx context.Context, job *Job) error
}

// Queue manages delayed, deduplicated playlist sync jobs using Redis.
// Producers call ScheduleResync; workers drain the ready list after the
// promoter moves due jobs out of the delayed set.
type Queue struct {
	client    *redis.Client
	processor Processor
	workers   int
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewQueue creates a new sync job queue
func NewQueue(processor Processor, workers int) *Queue {
	if workers <= 0 {
		workers = 1 // One job in flight per worker instance is sufficient
	}

	return &Queue{
		client:    cache.GetClient(),
		processor: processor,
		workers:   workers,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the queue workers, the delayed-job promoter and the stuck sweeper
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[SyncQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	// Promoter moves due delayed jobs to the ready list
	q.wg.Add(1)
	go q.promoter(1 * time.Second)

	// Stuck-processing sweeper (recovers jobs stuck in processing due to crashes)
	q.wg.Add(1)
	go q.stuckSweeper(10*time.Minute, 1*time.Minute)
}

// Stop stops the queue workers without dropping an in-flight job
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[SyncQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[SyncQueue] All workers stopped")
}

// IsRunning returns whether the queue is currently running
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// ScheduleResync enqueues a playlist resync for the poll, debounced by
// DebounceDelay. If a job for the same poll is already pending the request is
// absorbed into it and nil is returned for the job. Safe to call on every
// vote.
func (q *Queue) ScheduleResync(pollID uint) (*Job, error) {
	ctx := context.Background()

	now := time.Now()
	job := &Job{
		ID:          uuid.New().String(),
		PollID:      pollID,
		Status:      JobStatusPending,
		NotBefore:   now.Add(DebounceDelay),
		CreatedAt:   now,
		UpdatedAt:   now,
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
	}

	// The dedup marker lives from first enqueue until the job starts running;
	// while it exists, further schedules for the poll are absorbed.
	set, err := q.client.SetNX(ctx, dedupKey(pollID), job.ID, dedupMarkerTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to set dedup marker for poll %d: %w", pollID, err)
	}
	if !set {
		log.Debugf("[SyncQueue] Resync for poll %d already pending, absorbed", pollID)
		return nil, nil
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.ZAdd(ctx, JobDelayedKey, redis.Z{
		Score:  float64(job.NotBefore.UnixMilli()),
		Member: job.ID,
	})
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[SyncQueue] Scheduled resync job %s for poll %d (not before %s)", job.ID, pollID, job.NotBefore.Format(time.RFC3339))
	return job, nil
}

// promoter periodically moves due jobs from the delayed set to the ready list
func (q *Queue) promoter(interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			log.Info("[SyncQueue] Promoter stopping")
			return
		case <-ticker.C:
			if err := q.promoteDueJobs(ctx); err != nil {
				log.Errorf("[SyncQueue] Promoter error: %v", err)
			}
		}
	}
}

// promoteDueJobs moves every delayed job whose not-before time has passed to
// the ready list. ZRem settles the race when multiple instances promote.
func (q *Queue) promoteDueJobs(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	ids, err := q.client.ZRangeByScore(ctx, JobDelayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, JobDelayedKey, id).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			// Another instance promoted it first
			continue
		}
		if err := q.client.LPush(ctx, JobReadyKey, id).Err(); err != nil {
			return err
		}
	}
	return nil
}

// worker processes jobs from the ready list
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[SyncQueue] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[SyncQueue] Worker %d stopping", id)
			return
		default:
			job, err := q.dequeueJob(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Errorf("[SyncQueue] Worker %d: Error dequeuing job: %v", id, err)
					time.Sleep(time.Second)
				}
				continue
			}

			if job != nil {
				log.Infof("[SyncQueue] Worker %d processing job %s (poll %d, attempt %d)", id, job.ID, job.PollID, job.Attempts+1)
				q.processJob(job)
			}
		}
	}
}

// dequeueJob gets the next ready job. Dequeuing ends the job's pending phase,
// so the dedup marker is cleared here: a vote arriving from now on opens a
// fresh debounce window instead of being absorbed into a running job.
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BRPopLPush(ctx, JobReadyKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		// Job data not found, remove from processing queue
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("job data not found for ID %s", jobID)
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}

	// First dequeue only; retries never re-arm the marker
	if job.Attempts == 0 {
		if err := q.client.Del(ctx, dedupKey(job.PollID)).Err(); err != nil {
			log.Errorf("[SyncQueue] Failed to clear dedup marker for poll %d: %v", job.PollID, err)
		}
	}

	return &job, nil
}

// processJob runs the processor for a single job and drives the retry policy
func (q *Queue) processJob(job *Job) {
	ctx := context.Background()

	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	// Every suspension point in processing shares one overall budget; a hung
	// outbound call surfaces as a retryable timeout instead of blocking the
	// worker indefinitely.
	jobCtx, cancel := context.WithTimeout(ctx, JobTimeout)
	err := q.processor.Process(jobCtx, job)
	cancel()

	if err != nil {
		log.Errorf("[SyncQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		switch {
		case IsPermanent(err):
			log.Errorf("[SyncQueue] Job %s failed permanently, not retrying", job.ID)
			q.updateJobStats(ctx, JobStatusFailed, 1)
		case job.IsRetryable():
			delay := RetryBackoff(job.Attempts)
			log.Infof("[SyncQueue] Retrying job %s in %s (attempt %d/%d)", job.ID, delay, job.Attempts, job.MaxAttempts)
			job.MarkAsRetrying()
			job.NotBefore = time.Now().Add(delay)
			q.updateJob(ctx, job)
			if err := q.client.ZAdd(ctx, JobDelayedKey, redis.Z{
				Score:  float64(job.NotBefore.UnixMilli()),
				Member: job.ID,
			}).Err(); err != nil {
				log.Errorf("[SyncQueue] Failed to requeue job %s for retry: %v", job.ID, err)
			}
		default:
			log.Errorf("[SyncQueue] Job %s permanently failed after %d attempts", job.ID, job.Attempts)
			q.updateJobStats(ctx, JobStatusFailed, 1)
		}
	} else {
		log.Infof("[SyncQueue] Job %s completed successfully", job.ID)
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		// Remove completed job from Redis entirely
		q.removeCompletedJob(ctx, job.ID)
	}

	if job.Status != JobStatusCompleted {
		q.updateJob(ctx, job)
	}
	q.removeFromProcessing(ctx, job.ID)
}

// stuckSweeper periodically scans the processing list and requeues jobs stuck
// for longer than maxAge
func (q *Queue) stuckSweeper(maxAge time.Duration, interval time.Duration) {
	defer q.wg.Done()
	log.Infof("[SyncQueue] Stuck sweeper running (maxAge=%s, interval=%s)", maxAge, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			log.Info("[SyncQueue] Stuck sweeper stopping")
			return
		case <-ticker.C:
			ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
			if err != nil {
				log.Errorf("[SyncQueue] Sweeper LRange error: %v", err)
				continue
			}
			now := time.Now()
			for _, id := range ids {
				data, err := q.client.Get(ctx, JobKeyPrefix+id).Result()
				if err != nil {
					// Job data missing; remove from processing list
					if err != redis.Nil {
						log.Errorf("[SyncQueue] Sweeper Get error for %s: %v", id, err)
					}
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					continue
				}
				var job Job
				if uerr := json.Unmarshal([]byte(data), &job); uerr != nil {
					log.Errorf("[SyncQueue] Sweeper unmarshal error for %s: %v", id, uerr)
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					continue
				}
				if job.Status != JobStatusProcessing {
					// Clean up stray entry
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					continue
				}
				started := job.ProcessedAt
				if started == nil || started.IsZero() {
					tmp := job.UpdatedAt
					if tmp.IsZero() {
						tmp = job.CreatedAt
					}
					started = &tmp
				}
				if now.Sub(*started) > maxAge {
					log.Warnf("[SyncQueue] Recovering stuck job %s (poll %d), age=%s", job.ID, job.PollID, now.Sub(*started))
					job.Status = JobStatusPending
					job.ErrorMsg = "recovered by sweeper"
					job.UpdatedAt = now
					q.updateJob(ctx, &job)
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					_ = q.client.RPush(ctx, JobReadyKey, id).Err()
				}
			}
		}
	}
}

// updateJob updates job data in Redis
func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[SyncQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}

	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[SyncQueue] Failed to update job %s: %v", job.ID, err)
	}
}

// removeFromProcessing removes a job from the processing queue
func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[SyncQueue] Failed to remove job %s from processing queue: %v", jobID, err)
	}
}

// removeCompletedJob completely removes a completed job from Redis
func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, JobKeyPrefix+jobID).Err(); err != nil {
		log.Errorf("[SyncQueue] Failed to remove completed job %s from Redis: %v", jobID, err)
	}
}

// updateJobStats updates job statistics
func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[SyncQueue] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// GetJobStats returns statistics about job statuses
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[JobStatus]int64)
	for status, count := range stats {
		if countInt, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = countInt
		}
	}

	return result, nil
}

// GetDelayedSize returns the number of delayed jobs
func (q *Queue) GetDelayedSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, JobDelayedKey).Result()
}

// GetReadySize returns the number of jobs ready to run
func (q *Queue) GetReadySize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobReadyKey).Result()
}

// GetProcessingSize returns the number of jobs being processed
func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobProcessingKey).Result()
}

func dedupKey(pollID uint) string {
	return fmt.Sprintf("%s%d", JobDedupKeyPrefix, pollID)
}
