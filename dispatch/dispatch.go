// Package dispatch turns entity lifecycle events into asynchronous index
// mutation jobs. A job only carries the operation, entity type and entity
// ID: the consumer re-fetches and re-projects the entity at execution time,
// so the search index converges on the persisted state even when jobs are
// delivered late, duplicated or out of order.
package dispatch

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Op identifies the index mutation an enqueued job asks for.
type Op string

const (
	// OpIndex asks for a first-time indexing of the entity.
	OpIndex Op = "index"

	// OpUpdate asks for a re-projection and re-indexing of the entity.
	OpUpdate Op = "update"

	// OpDelete asks for the removal of the entity's index document.
	OpDelete Op = "delete"
)

// Job describes a single asynchronous index mutation. It is created at the
// entity lifecycle boundary, consumed exactly once per delivery by the job
// runner and then discarded.
type Job struct {
	Op         Op        `json:"op"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
}

// Queue should be implemented by objects that can enqueue index mutation
// jobs for asynchronous execution. Enqueue must not wait for the mutation
// to be applied: the triggering transaction completes independently of
// index-update completion.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handler processes a single delivered job.
type Handler func(ctx context.Context, job Job) error

// Consumer should be implemented by objects that can deliver enqueued jobs
// to a handler with at-least-once semantics and no ordering guarantee.
type Consumer interface {
	// Consume delivers jobs to handle until the context gets cancelled
	// or an unrecoverable delivery error occurs.
	Consume(ctx context.Context, handle Handler) error
}

// Dispatcher enqueues index mutation jobs in response to entity lifecycle
// events. Enqueue failures are surfaced to the caller and logged, never
// retried here: retry policy belongs to the job runner.
type Dispatcher struct {
	queue      Queue
	entityType string
	logger     *logrus.Entry
}

// NewDispatcher returns a dispatcher that enqueues jobs for entities of the
// provided type. If logger is nil an output-discarding logger will be used
// instead.
func NewDispatcher(queue Queue, entityType string, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return &Dispatcher{
		queue:      queue,
		entityType: entityType,
		logger:     logger,
	}
}

// OnCreate enqueues an index job. It should be invoked after a successful
// entity create.
func (d *Dispatcher) OnCreate(ctx context.Context, id uuid.UUID) error {
	return d.enqueue(ctx, OpIndex, id)
}

// OnUpdate enqueues an update job. It should be invoked after a successful
// entity update.
func (d *Dispatcher) OnUpdate(ctx context.Context, id uuid.UUID) error {
	return d.enqueue(ctx, OpUpdate, id)
}

// OnDelete enqueues a delete job. It should be invoked after a successful
// entity delete. Duplicate deliveries are tolerated downstream, so invoking
// this more than once for the same entity is harmless.
func (d *Dispatcher) OnDelete(ctx context.Context, id uuid.UUID) error {
	return d.enqueue(ctx, OpDelete, id)
}

// OnTouch enqueues an update job for a freshness bump that changed no
// entity fields.
func (d *Dispatcher) OnTouch(ctx context.Context, id uuid.UUID) error {
	return d.enqueue(ctx, OpUpdate, id)
}

func (d *Dispatcher) enqueue(ctx context.Context, op Op, id uuid.UUID) error {
	job := Job{
		Op:         op,
		EntityType: d.entityType,
		EntityID:   id,
	}

	if err := d.queue.Enqueue(ctx, job); err != nil {
		d.logger.WithFields(logrus.Fields{
			"op":          op,
			"entity_type": d.entityType,
			"entity_id":   id,
			"err":         err,
		}).Error("failed to enqueue index mutation job")

		return fmt.Errorf("dispatch %s %s: %w", op, d.entityType, err)
	}

	return nil
}
