package service

import (
	"bitwise74/diapredict/internal/metrics"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("mail queue full")
	ErrQueueClosed = errors.New("mail queue closed")
)

const sendTimeout = 30 * time.Second

// MailQueue hands mails to a fixed pool of workers so request handlers
// don't wait on the SMTP server. It implements Sender itself.
type MailQueue struct {
	next    Sender
	jobs    chan *Mail
	pending atomic.Int32
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// OnError is called from a worker when a queued mail fails
	OnError func(m *Mail, err error)
}

// NewMailQueue creates a queue holding at most size mails that are
// delivered through next
func NewMailQueue(next Sender, workers, size int) *MailQueue {
	zap.L().Debug("Initializing mail queue", zap.Int("workers", workers), zap.Int("size", size))

	return &MailQueue{
		next:    next,
		jobs:    make(chan *Mail, size),
		workers: workers,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	defer q.wg.Done()

	for m := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := q.next.Send(ctx, m)
		cancel()

		q.pending.Add(-1)

		if err != nil {
			zap.L().Error("Queued mail failed", zap.String("subject", m.Subject), zap.Error(err))
			if q.OnError != nil {
				q.OnError(m, err)
			}
			continue
		}

		zap.L().Debug("Queued mail sent", zap.String("subject", m.Subject))
	}
}

// Send enqueues the mail. It only fails when the queue is full or closed,
// delivery errors are reported through OnError. Mails rejected here are
// counted as failed, delivery is counted by the wrapped sender.
func (q *MailQueue) Send(_ context.Context, m *Mail) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.EmailsFailed.WithLabelValues(m.Kind).Inc()
		return ErrQueueClosed
	}

	q.pending.Add(1)

	select {
	case q.jobs <- m:
		zap.L().Debug("New mail enqueued", zap.Int32("enqueued", q.pending.Load()))
		return nil
	default:
		q.pending.Add(-1)
		metrics.EmailsFailed.WithLabelValues(m.Kind).Inc()
		return ErrQueueFull
	}
}

// Pending returns how many mails wait for delivery
func (q *MailQueue) Pending() int {
	return int(q.pending.Load())
}

// Close stops accepting mails and waits until the workers drained the
// queue or ctx is done
func (q *MailQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
