package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/erp-desk/internal/notify"
)

type fakeQueue struct {
	mu      sync.Mutex
	jobs    []*notify.Job
	retried []*notify.Job
	dlq     []*notify.Job
	max     int
	drained chan struct{}
}

func (q *fakeQueue) Dequeue(ctx context.Context, _ time.Duration) (*notify.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		select {
		case q.drained <- struct{}{}:
		default:
		}
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *fakeQueue) Retry(_ context.Context, job *notify.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	q.retried = append(q.retried, job)
	if job.Attempt >= q.max {
		q.dlq = append(q.dlq, job)
		return nil
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type flakySender struct {
	mu       sync.Mutex
	failures int
	sent     int
}

func (s *flakySender) Send(context.Context, notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("temporary failure")
	}
	s.sent++
	return nil
}

func runUntilDrained(t *testing.T, q *fakeQueue, sender notify.Sender) {
	t.Helper()
	RetryBackoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewNotificationWorker(q, sender, time.Millisecond, nil).Run(ctx)
		close(done)
	}()
	select {
	case <-q.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("queue was not drained")
	}
	cancel()
	<-done
}

func TestWorkerRetriesThenDelivers(t *testing.T) {
	q := &fakeQueue{max: 3, drained: make(chan struct{}, 1), jobs: []*notify.Job{{ID: "j1"}}}
	sender := &flakySender{failures: 1}
	runUntilDrained(t, q, sender)

	if sender.sent != 1 || len(q.retried) != 1 || len(q.dlq) != 0 {
		t.Fatalf("sent=%d retried=%d dlq=%d", sender.sent, len(q.retried), len(q.dlq))
	}
}

func TestWorkerDeadLettersAfterMaxAttempts(t *testing.T) {
	q := &fakeQueue{max: 3, drained: make(chan struct{}, 1), jobs: []*notify.Job{{ID: "j1"}}}
	sender := &flakySender{failures: 10}
	runUntilDrained(t, q, sender)

	if sender.sent != 0 || len(q.dlq) != 1 || q.dlq[0].Attempt != 3 {
		t.Fatalf("sent=%d dlq=%d", sender.sent, len(q.dlq))
	}
}
