package meetup

import (
	"context"
	"fmt"
	"time"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/meetup/db"
	"ms-meetup/internal/metrics"
	"ms-meetup/internal/models"
	"ms-meetup/internal/rules"
	"ms-meetup/internal/utils"
)

type DBLayer interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Meetup, error)
	ListByDate(ctx context.Context, from, to time.Time, page, pageSize int) ([]models.Meetup, error)
	FindByID(ctx context.Context, id int64) (*models.Meetup, error)
	Create(ctx context.Context, meetup *models.Meetup) error
	Update(ctx context.Context, meetup *models.Meetup, columns ...string) error
	Delete(ctx context.Context, id int64) error
}

type MeetupService struct {
	DB       DBLayer
	Clock    utils.Clock
	Location *time.Location
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

func NewMeetupService(store DBLayer, clock utils.Clock, loc *time.Location, log *logger.Logger, m *metrics.Metrics) *MeetupService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MeetupService{DB: store, Clock: clock, Location: loc, Logger: log, Metrics: m}
}

// ---------------- READS ----------------

func (s *MeetupService) ListOwned(ctx context.Context, ownerID int64) ([]models.Meetup, error) {
	return s.DB.ListByOwner(ctx, ownerID)
}

// ListByDay returns one page of the meetups happening on the calendar day of
// day, as seen from the service location.
func (s *MeetupService) ListByDay(ctx context.Context, day time.Time, page int) ([]models.Meetup, error) {
	from, to := utils.DayBounds(day, s.Location)
	return s.DB.ListByDate(ctx, from, to, page, db.DefaultPageSize)
}

// ---------------- WRITES ----------------

// Create stores a meetup for requesterID. The payload must name the requester as
// owner and the date must be in the future.
func (s *MeetupService) Create(ctx context.Context, requesterID int64, input *models.MeetupInput) (meetup *models.Meetup, err error) {
	defer func() { s.Metrics.IncMeetupOperation("create", apperrors.Outcome(err)) }()

	if input == nil || input.UserID == nil || input.Date == nil {
		return nil, apperrors.ErrValidation
	}
	if *input.UserID != requesterID {
		s.Logger.LogSecurity("NOT_OWNER", fmt.Sprintf("user %d tried to create a meetup for user %d", requesterID, *input.UserID))
		return nil, apperrors.ErrNotOwner
	}
	if err := rules.RequireFuture(*input.Date, s.Clock.Now()); err != nil {
		return nil, err
	}

	meetup = &models.Meetup{UserID: requesterID}
	input.Apply(meetup)

	if err := s.DB.Create(ctx, meetup); err != nil {
		s.Logger.Error("MEETUP", fmt.Sprintf("Create failed: %v", err))
		return nil, err
	}
	s.Logger.LogMeetup("CREATE", meetup.ID, fmt.Sprintf("created by user %d for %s", requesterID, meetup.Date.Format(time.RFC3339)))
	return meetup, nil
}

// Update applies the present fields of input. Meetups that already happened are
// frozen, and a new date must be in the future.
func (s *MeetupService) Update(ctx context.Context, id, requesterID int64, input *models.MeetupInput) (summary models.MeetupSummary, err error) {
	defer func() { s.Metrics.IncMeetupOperation("update", apperrors.Outcome(err)) }()

	if input == nil {
		return summary, apperrors.ErrValidation
	}

	meetup, err := s.DB.FindByID(ctx, id)
	if err != nil {
		return summary, err
	}
	if err := rules.AuthorizeMutation(meetup, requesterID); err != nil {
		s.Logger.LogSecurity("NOT_OWNER", fmt.Sprintf("user %d tried to update meetup %d", requesterID, id))
		return summary, err
	}

	now := s.Clock.Now()
	if err := rules.RequireFuture(meetup.Date, now); err != nil {
		return summary, err
	}
	if input.Date != nil {
		if err := rules.RequireFuture(*input.Date, now); err != nil {
			return summary, err
		}
	}

	columns := input.Apply(meetup)
	if len(columns) > 0 {
		if err := s.DB.Update(ctx, meetup, columns...); err != nil {
			return summary, err
		}
	}
	s.Logger.LogMeetup("UPDATE", meetup.ID, fmt.Sprintf("columns %v", columns))
	return meetup.Summary(), nil
}

// Delete removes a meetup owned by requesterID that has not happened yet.
func (s *MeetupService) Delete(ctx context.Context, id, requesterID int64) (err error) {
	defer func() { s.Metrics.IncMeetupOperation("delete", apperrors.Outcome(err)) }()

	meetup, err := s.DB.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := rules.AuthorizeMutation(meetup, requesterID); err != nil {
		s.Logger.LogSecurity("NOT_OWNER", fmt.Sprintf("user %d tried to delete meetup %d", requesterID, id))
		return err
	}
	if err := rules.RequireFuture(meetup.Date, s.Clock.Now()); err != nil {
		return err
	}

	if err := s.DB.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.LogMeetup("DELETE", id, fmt.Sprintf("deleted by user %d", requesterID))
	return nil
}
