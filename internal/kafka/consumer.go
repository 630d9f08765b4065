package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-meetup/internal/logger"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one message. A returned error leaves the message
// uncommitted and it is handed to the handler again after RetryDelay.
type Handler func(ctx context.Context, msg kafka.Message) error

// GiveUpFunc is told about a message that failed MaxAttempts times, right
// before it is committed anyway.
type GiveUpFunc func(ctx context.Context, msg kafka.Message, err error)

type Consumer struct {
	Reader     MessageReader
	Logger     *logger.Logger
	RetryDelay time.Duration
	// MaxAttempts caps the handler calls per message. Zero retries forever.
	MaxAttempts int
	OnGiveUp    GiveUpFunc
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{Reader: reader, Logger: log, RetryDelay: 5 * time.Second, MaxAttempts: 5}
}

// Run consumes until ctx is cancelled. Messages are committed once the handler
// succeeds or MaxAttempts is exhausted.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.Logger.Info("KAFKA", "Kafka consumer started")

	for {
		msg, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		for attempt := 1; ; attempt++ {
			err := handler(ctx, msg)
			if err == nil {
				break
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("Handler failed for %s/%d@%d (attempt %d): %v", msg.Topic, msg.Partition, msg.Offset, attempt, err))
			if c.MaxAttempts > 0 && attempt >= c.MaxAttempts {
				c.Logger.Error("KAFKA", fmt.Sprintf("Giving up on %s/%d@%d after %d attempts", msg.Topic, msg.Partition, msg.Offset, attempt))
				if c.OnGiveUp != nil {
					c.OnGiveUp(ctx, msg, err)
				}
				break
			}
			if !c.wait(ctx) {
				return nil
			}
		}

		if err := c.Reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit %s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}
	}
}

// wait sleeps for RetryDelay and reports false when ctx ended first.
func (c *Consumer) wait(ctx context.Context) bool {
	timer := time.NewTimer(c.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.Reader.Close()
}
