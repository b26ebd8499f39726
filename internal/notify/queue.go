package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/config"
	"github.com/spec-kit/erp-desk/internal/observability"
)

// Job is the queued envelope of a Message.
type Job struct {
	ID        string    `json:"id"`
	Message   Message   `json:"message"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`
}

// Queue is a Redis list of jobs with a dead-letter list for jobs that
// exhausted their attempts.
type Queue struct {
	client      *redis.Client
	key         string
	dlqKey      string
	maxAttempts int
	logger      *zap.Logger
}

// NewQueue creates a Redis-backed notification queue.
func NewQueue(client *redis.Client, cfg config.NotificationConfig, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Queue{
		client:      client,
		key:         cfg.QueueKey,
		dlqKey:      cfg.QueueKey + ":dlq",
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Enqueue appends msg as a new job.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	job := Job{
		ID:        uuid.NewString(),
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued notification", zap.String("job_id", job.ID), zap.String("subject", msg.Subject))
	return nil
}

// Dequeue blocks for up to timeout. It returns a nil job when the queue
// stayed empty or the payload could not be decoded.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid notification job", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues job with an incremented attempt, or moves it to the
// dead-letter list once it reaches the attempt limit.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= q.maxAttempts {
		if err := q.client.RPush(ctx, q.dlqKey, raw).Err(); err != nil {
			return fmt.Errorf("dlq push: %w", err)
		}
		q.logger.Warn("notification moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Info("notification retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DeadLetters returns the length of the dead-letter list.
func (q *Queue) DeadLetters(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.dlqKey).Result()
}

// QueueNotifier enqueues messages for the worker process.
type QueueNotifier struct {
	queue   *Queue
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewQueueNotifier wraps q as a Notifier.
func NewQueueNotifier(q *Queue, logger *zap.Logger, metrics *observability.Metrics) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: q, logger: logger, metrics: metrics}
}

func (n *QueueNotifier) Notify(ctx context.Context, msg Message) {
	if len(msg.Recipients) == 0 {
		return
	}
	if err := n.queue.Enqueue(ctx, msg); err != nil {
		n.metrics.RecordSideEffectFailure("notification")
		n.logger.Warn("notification enqueue failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}
