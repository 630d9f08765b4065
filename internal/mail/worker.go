package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-meetup/internal/logger"
	"ms-meetup/internal/metrics"
	"ms-meetup/internal/notification"
)

const subscriptionSubject = "Nova inscrição"

// Worker turns queued notification jobs into e-mails.
type Worker struct {
	Mailer   Mailer
	Deduper  Deduper
	Location *time.Location
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// Handle processes one queued message. Malformed or unknown jobs are dropped;
// only a failed delivery is returned so the message stays uncommitted.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var job notification.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		w.Logger.Error("MAIL", fmt.Sprintf("Dropping undecodable job at offset %d: %v", msg.Offset, err))
		w.Metrics.IncMailJob("malformed")
		return nil
	}
	jobID := job.ID.String()

	if job.Kind != notification.KindSubscriptionMail {
		w.Logger.Warn("MAIL", fmt.Sprintf("Dropping job %s of unknown kind %q", jobID, job.Kind))
		w.Metrics.IncMailJob("unknown")
		return nil
	}

	var payload notification.SubscriptionMailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil || payload.Meetup.Owner == nil {
		w.Logger.Error("MAIL", fmt.Sprintf("Dropping job %s with invalid payload: %v", jobID, err))
		w.Metrics.IncMailJob("malformed")
		return nil
	}

	claimed, err := w.Deduper.Claim(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		w.Logger.LogMail("SKIP", jobID, "already delivered")
		w.Metrics.IncMailJob("duplicate")
		return nil
	}

	message, err := w.subscriptionMessage(payload)
	if err == nil {
		err = w.Mailer.Send(ctx, message)
	}
	if err != nil {
		w.Metrics.IncMailJob("failed")
		if relErr := w.Deduper.Release(ctx, jobID); relErr != nil {
			w.Logger.Error("MAIL", fmt.Sprintf("Failed to release job %s: %v", jobID, relErr))
		}
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	w.Metrics.IncMailJob("sent")
	w.Logger.LogMail("SENT", jobID, fmt.Sprintf("%s to %s", job.Kind, message.ToEmail))
	return nil
}

// GiveUp records a job the consumer stopped retrying. The mail is lost.
func (w *Worker) GiveUp(_ context.Context, msg kafka.Message, err error) {
	w.Metrics.IncMailJob("dead")
	w.Logger.Error("MAIL", fmt.Sprintf("Dead job at offset %d, key %s: %v", msg.Offset, string(msg.Key), err))
}

func (w *Worker) subscriptionMessage(p notification.SubscriptionMailPayload) (Message, error) {
	organizer := p.Meetup.Owner
	html, err := Render("subscription", SubscriptionContext{
		Organizer: organizer.Name,
		Meetup:    p.Meetup.Title,
		Client:    p.User.Name,
		Date:      FormatLongDate(p.Meetup.Date, w.Location),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		ToName:  organizer.Name,
		ToEmail: organizer.Email,
		Subject: subscriptionSubject,
		HTML:    html,
	}, nil
}
