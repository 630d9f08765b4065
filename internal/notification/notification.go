// Package notification hands background jobs to the mail worker without
// blocking the request that produced them.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-meetup/internal/logger"
	"ms-meetup/internal/models"
)

// KindSubscriptionMail tells the organizer about a new subscriber.
const KindSubscriptionMail = "SubscriptionMail"

type Job struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Payload    json.RawMessage `json:"payload"`
}

type SubscriptionMailPayload struct {
	Meetup models.Meetup `json:"meetup"`
	User   models.User   `json:"user"`
}

// Dispatcher queues a job of the given kind for asynchronous processing.
type Dispatcher interface {
	Enqueue(ctx context.Context, kind string, payload interface{}) error
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

func NewJob(kind string, payload interface{}) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Job{
		ID:         uuid.New(),
		Kind:       kind,
		EnqueuedAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// KafkaDispatcher publishes jobs as JSON keyed by job id.
type KafkaDispatcher struct {
	Publisher Publisher
	Topic     string
	Logger    *logger.Logger
}

func NewKafkaDispatcher(publisher Publisher, topic string, log *logger.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{Publisher: publisher, Topic: topic, Logger: log}
}

func (d *KafkaDispatcher) Enqueue(ctx context.Context, kind string, payload interface{}) error {
	job, err := NewJob(kind, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := d.Publisher.Publish(ctx, d.Topic, job.ID.String(), value); err != nil {
		return err
	}
	d.Logger.LogMail("ENQUEUE", job.ID.String(), kind)
	return nil
}

// LogDispatcher only records the job. Used when Kafka is disabled.
type LogDispatcher struct {
	Logger *logger.Logger
}

func (d *LogDispatcher) Enqueue(_ context.Context, kind string, payload interface{}) error {
	job, err := NewJob(kind, payload)
	if err != nil {
		return err
	}
	d.Logger.Warn("MAIL", fmt.Sprintf("Kafka disabled, dropping %s job %s", kind, job.ID))
	return nil
}
