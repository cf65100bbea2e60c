// Package memory provides a channel-backed dispatch queue for development
// and tests. Jobs are held in a bounded buffer: enqueueing never blocks the
// caller, a full buffer surfaces an error instead.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/miguelff/articlesearch/dispatch"
)

// Static and compile-time checks to ensure Queue implements both sides of
// the dispatch contract.
var (
	_ dispatch.Queue    = (*Queue)(nil)
	_ dispatch.Consumer = (*Queue)(nil)
)

// ErrQueueFull is returned when an enqueue attempt finds the job buffer at
// capacity.
var ErrQueueFull = errors.New("job queue is full")

// Queue is an in-memory dispatch.Queue and dispatch.Consumer implementation.
type Queue struct {
	mu     sync.Mutex
	jobs   chan dispatch.Job
	closed bool
}

// NewQueue returns a queue that buffers up to size jobs.
func NewQueue(size int) *Queue {
	return &Queue{
		jobs: make(chan dispatch.Job, size),
	}
}

// Enqueue adds a job to the buffer without blocking the caller.
func (q *Queue) Enqueue(ctx context.Context, job dispatch.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("enqueue: queue is closed")
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("enqueue: %w", ErrQueueFull)
	}
}

// Consume delivers buffered jobs to handle in enqueue order until the
// context gets cancelled or the queue is closed. A job whose handler fails
// is dropped: redelivery and dead-lettering belong to the durable queue
// implementation, not to this development stand-in.
func (q *Queue) Consume(ctx context.Context, handle dispatch.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job, open := <-q.jobs:
			if !open {
				return nil
			}

			_ = handle(ctx, job)
		}
	}
}

// Close stops accepting new jobs and unblocks consumers once the buffer
// drains.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
