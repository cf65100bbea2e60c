package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/miguelff/articlesearch/dispatch"
)

// Initialize and register an instance of the memoryQueueTestSuite to be
// executed by the check testing package.
var _ = check.Suite(new(memoryQueueTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type memoryQueueTestSuite struct{}

func (s *memoryQueueTestSuite) TestJobsAreDeliveredInEnqueueOrder(c *check.C) {
	q := NewQueue(8)
	defer q.Close()

	expected := []dispatch.Job{
		{Op: dispatch.OpIndex, EntityType: "article", EntityID: uuid.New()},
		{Op: dispatch.OpUpdate, EntityType: "article", EntityID: uuid.New()},
		{Op: dispatch.OpDelete, EntityType: "article", EntityID: uuid.New()},
	}

	for _, job := range expected {
		c.Assert(q.Enqueue(context.TODO(), job), check.IsNil)
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), time.Second)
	defer cancelFn()

	var delivered []dispatch.Job
	err := q.Consume(ctx, func(ctx context.Context, job dispatch.Job) error {
		delivered = append(delivered, job)
		if len(delivered) == len(expected) {
			cancelFn()
		}

		return nil
	})

	c.Assert(err, check.IsNil)
	c.Assert(delivered, check.DeepEquals, expected)
}

func (s *memoryQueueTestSuite) TestEnqueueDoesNotBlockWhenBufferIsFull(c *check.C) {
	q := NewQueue(1)
	defer q.Close()

	c.Assert(q.Enqueue(context.TODO(), dispatch.Job{Op: dispatch.OpIndex}), check.IsNil)

	err := q.Enqueue(context.TODO(), dispatch.Job{Op: dispatch.OpUpdate})
	c.Assert(errors.Is(err, ErrQueueFull), check.Equals, true)
}

func (s *memoryQueueTestSuite) TestEnqueueFailsAfterClose(c *check.C) {
	q := NewQueue(1)
	q.Close()

	err := q.Enqueue(context.TODO(), dispatch.Job{Op: dispatch.OpIndex})
	c.Assert(err, check.Not(check.IsNil))
}

func (s *memoryQueueTestSuite) TestConsumeReturnsWhenQueueCloses(c *check.C) {
	q := NewQueue(1)

	done := make(chan error, 1)
	go func() {
		done <- q.Consume(context.Background(), func(ctx context.Context, job dispatch.Job) error {
			return nil
		})
	}()

	q.Close()

	select {
	case err := <-done:
		c.Assert(err, check.IsNil)
	case <-time.After(time.Second):
		c.Fatal("consumer did not return after queue close")
	}
}
