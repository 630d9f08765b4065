package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"ms-meetup/internal/logger"
	"ms-meetup/internal/metrics"
	"ms-meetup/internal/models"
	"ms-meetup/internal/notification"
)

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisDeduper) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisDeduper(client, 24*time.Hour)
}

func saoPaulo(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func jobMessage(t *testing.T, kind string, payload interface{}) (kafka.Message, notification.Job) {
	job, err := notification.NewJob(kind, payload)
	require.NoError(t, err)
	value, err := json.Marshal(job)
	require.NoError(t, err)
	return kafka.Message{Value: value}, job
}

func subscriptionPayload() notification.SubscriptionMailPayload {
	return notification.SubscriptionMailPayload{
		Meetup: models.Meetup{
			ID:    3,
			Title: "Go Floripa",
			Date:  time.Date(2030, 7, 5, 12, 30, 0, 0, time.UTC),
			Owner: &models.User{ID: 1, Name: "Diego", Email: "diego@meetapp.com"},
		},
		User: models.User{ID: 2, Name: "Robson", Email: "robson@meetapp.com"},
	}
}

func TestFormatLongDate(t *testing.T) {
	loc := saoPaulo(t)

	assert.Equal(t, "dia 05 de julho, às 9:30h", FormatLongDate(time.Date(2030, 7, 5, 12, 30, 0, 0, time.UTC), loc))
	assert.Equal(t, "dia 31 de dezembro, às 23:05h", FormatLongDate(time.Date(2030, 12, 31, 23, 5, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, "dia 01 de março, às 0:00h", FormatLongDate(time.Date(2030, 3, 1, 3, 0, 0, 0, time.UTC), loc))
}

func TestRenderSubscription(t *testing.T) {
	html, err := Render("subscription", SubscriptionContext{
		Organizer: "Diego",
		Meetup:    "Go <Floripa>",
		Client:    "Robson",
		Date:      "dia 05 de julho, às 9:30h",
	})

	require.NoError(t, err)
	assert.Contains(t, html, "Olá, Diego")
	assert.Contains(t, html, "Go &lt;Floripa&gt;")
	assert.Contains(t, html, "Robson")
	assert.Contains(t, html, "dia 05 de julho, às 9:30h")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("cancellation", nil)
	assert.Error(t, err)
}

func TestRedisDeduper(t *testing.T) {
	mr, d := setupRedis(t)
	ctx := context.Background()

	ok, err := d.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("mail:job:job-1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("mail:job:job-1"))

	ok, err = d.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Release(ctx, "job-1"))
	ok, err = d.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWorkerSendsSubscriptionMail(t *testing.T) {
	_, d := setupRedis(t)
	mailer := &fakeMailer{}
	w := &Worker{Mailer: mailer, Deduper: d, Location: saoPaulo(t), Logger: logger.NewWithWriter(io.Discard)}
	msg, _ := jobMessage(t, notification.KindSubscriptionMail, subscriptionPayload())

	require.NoError(t, w.Handle(context.Background(), msg))

	require.Len(t, mailer.sent, 1)
	sent := mailer.sent[0]
	assert.Equal(t, "Diego", sent.ToName)
	assert.Equal(t, "diego@meetapp.com", sent.ToEmail)
	assert.Equal(t, "Nova inscrição", sent.Subject)
	assert.Contains(t, sent.HTML, "Go Floripa")
	assert.Contains(t, sent.HTML, "Robson")
	assert.Contains(t, sent.HTML, "dia 05 de julho, às 9:30h")

	// redelivery of the same job is a no-op
	require.NoError(t, w.Handle(context.Background(), msg))
	assert.Len(t, mailer.sent, 1)
}

func TestWorkerReleasesClaimOnSendFailure(t *testing.T) {
	mr, d := setupRedis(t)
	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	w := &Worker{Mailer: mailer, Deduper: d, Location: time.UTC, Logger: logger.NewWithWriter(io.Discard)}
	msg, job := jobMessage(t, notification.KindSubscriptionMail, subscriptionPayload())

	err := w.Handle(context.Background(), msg)

	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, mr.Exists("mail:job:"+job.ID.String()))

	mailer.err = nil
	require.NoError(t, w.Handle(context.Background(), msg))
	assert.Len(t, mailer.sent, 1)
}

func TestWorkerDropsBadJobs(t *testing.T) {
	_, d := setupRedis(t)
	mailer := &fakeMailer{}
	w := &Worker{Mailer: mailer, Deduper: d, Location: time.UTC, Logger: logger.NewWithWriter(io.Discard)}

	unknown, _ := jobMessage(t, "CancellationMail", subscriptionPayload())
	noOwner, _ := jobMessage(t, notification.KindSubscriptionMail, notification.SubscriptionMailPayload{})

	for _, msg := range []kafka.Message{{Value: []byte("{not json")}, unknown, noOwner} {
		assert.NoError(t, w.Handle(context.Background(), msg))
	}
	assert.Empty(t, mailer.sent)
}

func TestWorkerKeepsAccentedOrganizerName(t *testing.T) {
	_, d := setupRedis(t)
	mailer := &fakeMailer{}
	w := &Worker{Mailer: mailer, Deduper: d, Location: time.UTC, Logger: logger.NewWithWriter(io.Discard)}
	payload := subscriptionPayload()
	payload.Meetup.Owner = &models.User{ID: 1, Name: "João Sérgio", Email: "joao@meetapp.com"}
	msg, _ := jobMessage(t, notification.KindSubscriptionMail, payload)

	require.NoError(t, w.Handle(context.Background(), msg))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "João Sérgio", mailer.sent[0].ToName)
	assert.Equal(t, "joao@meetapp.com", mailer.sent[0].ToEmail)
	assert.Contains(t, mailer.sent[0].HTML, "João Sérgio")
}

func TestSMTPMailerEncodesAccentedName(t *testing.T) {
	var rcpt []string
	var raw bytes.Buffer
	m := &SMTPMailer{from: "Meetapp <noreply@meetapp.com>"}
	m.sender = func(msgs ...*gomail.Message) error {
		return gomail.Send(gomail.SendFunc(func(_ string, to []string, body io.WriterTo) error {
			rcpt = to
			_, err := body.WriteTo(&raw)
			return err
		}), msgs...)
	}

	err := m.Send(context.Background(), Message{
		ToName:  "João Sérgio",
		ToEmail: "org@example.com",
		Subject: "Nova inscrição",
		HTML:    "<p>Olá</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"org@example.com"}, rcpt)
	assert.Contains(t, raw.String(), "<org@example.com>")
	assert.NotContains(t, raw.String(), "João")
}

func TestWorkerGiveUpCountsDeadJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := &Worker{Logger: logger.NewWithWriter(io.Discard), Metrics: metrics.New(reg)}

	w.GiveUp(context.Background(), kafka.Message{Offset: 9, Key: []byte("job-9")}, errors.New("550 mailbox unavailable"))

	families, err := reg.Gather()
	require.NoError(t, err)
	var dead float64
	for _, family := range families {
		if family.GetName() != "mail_jobs_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == "dead" {
					dead += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, dead)
}
