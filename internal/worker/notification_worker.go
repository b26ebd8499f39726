package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/notify"
)

// RetryBackoff is the pause after a failed delivery or dequeue.
var RetryBackoff = 5 * time.Second

type jobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*notify.Job, error)
	Retry(ctx context.Context, job *notify.Job) error
}

// NotificationWorker drains the notification queue into the senders.
type NotificationWorker struct {
	queue       jobQueue
	sender      notify.Sender
	pollTimeout time.Duration
	logger      *zap.Logger
}

// NewNotificationWorker builds a worker over q.
func NewNotificationWorker(q jobQueue, sender notify.Sender, pollTimeout time.Duration, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{queue: q, sender: sender, pollTimeout: pollTimeout, logger: logger}
}

// Process delivers one job.
func (w *NotificationWorker) Process(ctx context.Context, job *notify.Job) error {
	return w.sender.Send(ctx, job.Message)
}

// Run loops until ctx is cancelled: dequeue, deliver, retry on error.
func (w *NotificationWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		w.logger.Debug("processing notification", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := w.Process(ctx, job); err != nil {
			w.logger.Error("notification failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := w.queue.Retry(ctx, job); reErr != nil {
				w.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, RetryBackoff)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
