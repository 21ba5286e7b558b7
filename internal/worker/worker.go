package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	// JobTypeTaskReminder fires when a task's due date arrives.
	JobTypeTaskReminder JobType = "task_reminder"
	// JobTypeTokenCleanup purges expired refresh tokens.
	JobTypeTokenCleanup JobType = "token_cleanup"
)

// scheduledSet parks jobs that are not due yet, scored by their ProcessAt.
// Keeping future work out of the lists means workers only ever pop runnable
// jobs instead of busy-looping on a requeue.
const scheduledSet = "scheduled_jobs"

type Job struct {
	ID   string  `json:"id"`
	Type JobType `json:"type"`
	// Queue is the list the job runs from; scheduled and retried jobs return
	// to it when they come due.
	Queue     string                 `json:"queue"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

// Worker drains redis-list queues with a small goroutine pool. Future-dated
// jobs wait in a sorted set and a promoter goroutine moves them onto their
// queue once due; failed jobs retry with exponential backoff and land on a
// dead queue after MaxTries attempts.
type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	Queues       []string
	PollInterval time.Duration
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queues:       config.Queues,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	log.Printf("starting worker with %d goroutines", concurrency)

	w.wg.Add(1)
	go w.promoteLoop()

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	log.Println("stopping worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNextJob(); err != nil {
				log.Printf("error processing job: %v", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) promoteLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.PromoteDueJobs(); err != nil && w.ctx.Err() == nil {
				log.Printf("error promoting scheduled jobs: %v", err)
			}
		}
	}
}

// PromoteDueJobs moves jobs whose ProcessAt has passed from the scheduled set
// onto their target queues.
func (w *Worker) PromoteDueJobs() error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	members, err := w.client.ZRangeByScore(w.ctx, scheduledSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: 100,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read scheduled jobs: %w", err)
	}

	for _, member := range members {
		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			log.Printf("dropping unreadable scheduled job: %v", err)
			w.client.ZRem(w.ctx, scheduledSet, member)
			continue
		}

		queue := job.Queue
		if queue == "" {
			queue = "default"
		}

		pipe := w.client.TxPipeline()
		pipe.RPush(w.ctx, queue, member)
		pipe.ZRem(w.ctx, scheduledSet, member)
		if _, err := pipe.Exec(w.ctx); err != nil {
			return fmt.Errorf("failed to promote scheduled job: %w", err)
		}
	}
	return nil
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, 5*time.Second, w.queues...).Result()
	if err != nil {
		if err == redis.Nil || w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	jobData := result[1]

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.Queue == "" {
		job.Queue = queue
	}

	// A job popped before its time goes back to the scheduled set; requeueing
	// it onto the list would spin the pool until the job came due.
	if time.Now().Before(job.ProcessAt) {
		return w.schedule(&job)
	}

	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for job type: %s", job.Type)
	}

	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			log.Printf("job %s failed (attempt %d/%d), retrying: %v",
				job.ID, job.Attempts, job.MaxTries, err)
			return w.retryJob(job)
		}

		log.Printf("job %s failed permanently after %d attempts: %v",
			job.ID, job.Attempts, err)
		return w.moveToDeadQueue(job, err)
	}

	return nil
}

// retryJob schedules the job back onto its own queue after a backoff, so the
// retry is drained by the same pool that ran the original attempt.
func (w *Worker) retryJob(job *Job) error {
	delay := time.Duration(1<<job.Attempts) * time.Minute
	job.ProcessAt = time.Now().Add(delay)

	return w.schedule(job)
}

func (w *Worker) schedule(job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.ZAdd(w.ctx, scheduledSet, redis.Z{
		Score:  float64(job.ProcessAt.Unix()),
		Member: jobData,
	}).Err()
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(w.ctx, "dead_queue", deadJobData).Err()
}

// JobQueue is the producer side: handlers enqueue, the worker drains.
type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(queue string, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(queue, jobType, payload, time.Now())
}

// EnqueueAt places a job on its queue, or parks it in the scheduled set when
// processAt is still in the future.
func (q *JobQueue) EnqueueAt(queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	job := &Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Queue:     queue,
		Payload:   payload,
		Attempts:  0,
		MaxTries:  3,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if processAt.After(time.Now()) {
		return q.client.ZAdd(ctx, scheduledSet, redis.Z{
			Score:  float64(processAt.Unix()),
			Member: jobData,
		}).Err()
	}
	return q.client.RPush(ctx, queue, jobData).Err()
}

func (q *JobQueue) GetQueueSize(queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}

// GetScheduledSize counts jobs waiting in the scheduled set.
func (q *JobQueue) GetScheduledSize() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return q.client.ZCard(ctx, scheduledSet).Result()
}
