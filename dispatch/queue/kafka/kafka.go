// Package kafka provides a durable dispatch queue backed by a Kafka topic.
// Jobs are JSON-serialised and keyed by entity ID so that mutations for the
// same entity land on the same partition. Consumption uses a consumer group
// with commit-after-handle, which yields the at-least-once delivery the
// indexing pipeline is designed around.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/miguelff/articlesearch/dispatch"
)

// Static and compile-time checks to ensure the kafka types implement the
// dispatch contract.
var (
	_ dispatch.Queue    = (*Queue)(nil)
	_ dispatch.Consumer = (*Consumer)(nil)
)

// Queue is a dispatch.Queue implementation that publishes jobs to a Kafka
// topic.
type Queue struct {
	writer *kafka.Writer
}

// NewQueue returns a queue that publishes jobs to topic via the provided
// broker addresses.
func NewQueue(brokers []string, topic string) *Queue {
	return &Queue{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// Enqueue publishes a single job. The write only waits for broker
// acknowledgement, never for job execution.
func (q *Queue) Enqueue(ctx context.Context, job dispatch.Job) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(job.EntityID.String()),
		Value: value,
	}

	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (q *Queue) Close() error {
	return q.writer.Close()
}

// Consumer is a dispatch.Consumer implementation that reads jobs from a
// Kafka topic as part of a consumer group.
type Consumer struct {
	reader *kafka.Reader
	logger *logrus.Entry
}

// NewConsumer returns a consumer that reads jobs from topic on behalf of
// groupID. If logger is nil an output-discarding logger will be used
// instead.
func NewConsumer(
	brokers []string, topic, groupID string, logger *logrus.Entry,
) *Consumer {

	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 10e6,
		}),
		logger: logger,
	}
}

// Consume fetches jobs and hands them to handle until the context gets
// cancelled. An offset is only committed after the handler succeeds, so a
// crash between handling and committing results in a duplicate delivery
// rather than a lost job.
func (c *Consumer) Consume(ctx context.Context, handle dispatch.Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.reader.Close()
			}

			return fmt.Errorf("consume: %w", err)
		}

		var job dispatch.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			// A malformed message can never succeed: log, commit and
			// move on rather than wedging the partition.
			c.logger.WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"err":       err,
			}).Error("skipping malformed job message")

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("consume: %w", err)
			}

			continue
		}

		if err := handle(ctx, job); err != nil {
			c.logger.WithFields(logrus.Fields{
				"op":        job.Op,
				"entity_id": job.EntityID,
				"err":       err,
			}).Error("failed to process job, leaving offset uncommitted")

			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("consume: %w", err)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
