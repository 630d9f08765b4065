package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/metrics"
	"ms-meetup/internal/models"
	"ms-meetup/internal/notification"
	"ms-meetup/internal/rules"
	"ms-meetup/internal/utils"
)

type DBLayer interface {
	ListUpcomingByUser(ctx context.Context, userID int64, now time.Time) ([]models.Subscription, error)
	ListConflicts(ctx context.Context, userID, meetupID int64, date time.Time) ([]models.Subscription, error)
	Create(ctx context.Context, subscription *models.Subscription) error
	FindUser(ctx context.Context, id int64) (*models.User, error)
}

// MeetupFinder is satisfied by the meetup repository.
type MeetupFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Meetup, error)
}

type SubscriptionService struct {
	DB         DBLayer
	Meetups    MeetupFinder
	Dispatcher notification.Dispatcher
	Clock      utils.Clock
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

func NewSubscriptionService(store DBLayer, meetups MeetupFinder, dispatcher notification.Dispatcher, clock utils.Clock, log *logger.Logger, m *metrics.Metrics) *SubscriptionService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &SubscriptionService{
		DB:         store,
		Meetups:    meetups,
		Dispatcher: dispatcher,
		Clock:      clock,
		Logger:     log,
		Metrics:    m,
	}
}

// ListUpcoming returns the user's subscriptions to meetups that have not happened yet.
func (s *SubscriptionService) ListUpcoming(ctx context.Context, userID int64) ([]models.Subscription, error) {
	return s.DB.ListUpcomingByUser(ctx, userID, s.Clock.Now())
}

// Subscribe registers userID to meetupID and queues the organizer mail. The
// checks run in a fixed order: self, past, duplicate, conflicting schedule.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, meetupID int64) (sub *models.Subscription, err error) {
	defer func() { s.Metrics.IncSubscription(apperrors.Outcome(err)) }()

	meetup, err := s.Meetups.FindByID(ctx, meetupID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Invalid("Meetup not found")
	}
	if err != nil {
		return nil, err
	}

	if err := rules.AuthorizeSubscription(meetup, userID, s.Clock.Now()); err != nil {
		return nil, err
	}

	existing, err := s.DB.ListConflicts(ctx, userID, meetup.ID, meetup.Date)
	if err != nil {
		return nil, err
	}
	if err := rules.CheckDuplicateSubscription(existing, meetup); err != nil {
		return nil, err
	}
	if err := rules.CheckConflictingSchedule(existing, meetup); err != nil {
		return nil, err
	}

	sub = &models.Subscription{UserID: userID, MeetupID: meetup.ID}
	if err := s.DB.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.Logger.LogSubscription("CREATE", userID, meetup.ID, "subscribed")

	s.notifyOrganizer(ctx, meetup, userID)
	return sub, nil
}

// notifyOrganizer never fails the subscription; a lost mail is only logged.
func (s *SubscriptionService) notifyOrganizer(ctx context.Context, meetup *models.Meetup, userID int64) {
	user, err := s.DB.FindUser(ctx, userID)
	if err == nil {
		err = s.Dispatcher.Enqueue(ctx, notification.KindSubscriptionMail, notification.SubscriptionMailPayload{
			Meetup: *meetup,
			User:   *user,
		})
	}
	if err != nil {
		s.Metrics.IncEnqueueFailure()
		s.Logger.Error("MAIL", fmt.Sprintf("Failed to enqueue %s for user %d meetup %d: %v",
			notification.KindSubscriptionMail, userID, meetup.ID, err))
	}
}
