// Package scheduler serializes outbound calls to the rate-limited upstream
// API. All requests funnel through a single FIFO queue whose drain loop
// enforces a minimum spacing between consecutive dispatches, so concurrent
// callers can never burst past the upstream rate limit.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ctmes/CryptoTwin/internal/pkg/metrics"
)

// Queue is a FIFO request queue with paced, serialized dispatch. The zero
// value is not usable; construct with NewQueue.
//
// The queue is either idle (no drain goroutine running) or draining (exactly
// one drain goroutine consuming tasks in arrival order). The first enqueue
// after idle starts the drain goroutine; it exits when the queue empties.
type Queue struct {
	logger  *zap.Logger
	limiter *rate.Limiter

	mu       sync.Mutex
	pending  []func()
	draining bool
}

// NewQueue creates a queue that spaces dispatches at least minInterval apart.
func NewQueue(minInterval time.Duration, logger *zap.Logger) *Queue {
	return &Queue{
		logger:  logger.Named("RequestQueue"),
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Schedule enqueues task and blocks until the queue has dispatched it,
// returning the task's result. Tasks run exactly once, in arrival order, and
// a failing task only fails its own caller. Dispatched tasks are never
// cancelled; Schedule does not observe ctx once the task is queued.
func Schedule[T any](q *Queue, task func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	q.enqueue(func() {
		value, err := task()
		done <- outcome{value: value, err: err}
	})
	result := <-done
	return result.value, result.err
}

// Len reports the number of tasks waiting for dispatch.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) enqueue(run func()) {
	q.mu.Lock()
	q.pending = append(q.pending, run)
	metrics.SchedulerQueueDepth.Set(float64(len(q.pending)))
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// drain consumes the queue head-first, waiting out the remaining portion of
// the minimum interval before each dispatch. Only one drain goroutine exists
// at a time; re-entrant enqueues land on the live queue instead of spawning
// another.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		run := q.pending[0]
		q.pending = q.pending[1:]
		metrics.SchedulerQueueDepth.Set(float64(len(q.pending)))
		q.mu.Unlock()

		// Scheduled work is never cancelled mid-flight, so pacing waits on
		// the background context.
		if err := q.limiter.Wait(context.Background()); err != nil {
			q.logger.Error("Pacing wait failed", zap.Error(err))
		}
		metrics.ScheduledTasks.Inc()
		run()
	}
}
