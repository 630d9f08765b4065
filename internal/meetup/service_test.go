package meetup_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/meetup"
	"ms-meetup/internal/models"
	"ms-meetup/internal/utils"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) ListByOwner(ctx context.Context, ownerID int64) ([]models.Meetup, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Meetup), args.Error(1)
}

func (m *MockDBLayer) ListByDate(ctx context.Context, from, to time.Time, page, pageSize int) ([]models.Meetup, error) {
	args := m.Called(ctx, from, to, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Meetup), args.Error(1)
}

func (m *MockDBLayer) FindByID(ctx context.Context, id int64) (*models.Meetup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meetup), args.Error(1)
}

func (m *MockDBLayer) Create(ctx context.Context, meetup *models.Meetup) error {
	args := m.Called(ctx, meetup)
	return args.Error(0)
}

func (m *MockDBLayer) Update(ctx context.Context, meetup *models.Meetup, columns ...string) error {
	args := m.Called(ctx, meetup, columns)
	return args.Error(0)
}

func (m *MockDBLayer) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var now = time.Date(2030, 7, 1, 12, 0, 0, 0, time.UTC)

func newService(store *MockDBLayer) *meetup.MeetupService {
	return meetup.NewMeetupService(store, utils.FixedClock{At: now}, time.UTC, logger.NewWithWriter(io.Discard), nil)
}

func ptr[T any](v T) *T {
	return &v
}

func createInput(owner int64, at time.Time) *models.MeetupInput {
	return &models.MeetupInput{
		Title:       ptr("Go Floripa"),
		Description: ptr("talks and pizza"),
		Location:    ptr("Rua Bocaiúva, 2468"),
		Date:        ptr(at),
		BannerID:    ptr(int64(1)),
		UserID:      ptr(owner),
	}
}

func TestCreateMeetup(t *testing.T) {
	store := new(MockDBLayer)
	svc := newService(store)
	at := now.Add(72 * time.Hour)

	store.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Meetup) bool {
		return m.UserID == 7 && m.Title == "Go Floripa" && m.Date.Equal(at) && m.BannerID == 1
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Meetup).ID = 42
	}).Return(nil)

	created, err := svc.Create(context.Background(), 7, createInput(7, at))

	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, "Rua Bocaiúva, 2468", created.Location)
	store.AssertExpectations(t)
}

func TestCreateMeetupForAnotherUser(t *testing.T) {
	store := new(MockDBLayer)
	svc := newService(store)

	// ownership is checked before the date
	_, err := svc.Create(context.Background(), 7, createInput(8, now.Add(-time.Hour)))

	assert.ErrorIs(t, err, apperrors.ErrNotOwner)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateMeetupInThePast(t *testing.T) {
	store := new(MockDBLayer)
	svc := newService(store)

	_, err := svc.Create(context.Background(), 7, createInput(7, now))

	assert.ErrorIs(t, err, apperrors.ErrPastDate)
	assert.Equal(t, "Past dates are not permitted", err.Error())
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListByDayUsesCalendarDay(t *testing.T) {
	store := new(MockDBLayer)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	svc := meetup.NewMeetupService(store, utils.FixedClock{At: now}, loc, logger.NewWithWriter(io.Discard), nil)

	day := time.Date(2030, 7, 5, 0, 0, 0, 0, loc)
	from := time.Date(2030, 7, 5, 3, 0, 0, 0, time.UTC)
	to := time.Date(2030, 7, 6, 3, 0, 0, 0, time.UTC)

	store.On("ListByDate", mock.Anything,
		mock.MatchedBy(func(t time.Time) bool { return t.Equal(from) }),
		mock.MatchedBy(func(t time.Time) bool { return t.Equal(to) }),
		2, 10).Return([]models.Meetup{{ID: 1}}, nil)

	meetups, err := svc.ListByDay(context.Background(), day.Add(15*time.Hour), 2)

	require.NoError(t, err)
	assert.Len(t, meetups, 1)
	store.AssertExpectations(t)
}

func TestUpdateMeetup(t *testing.T) {
	store := new(MockDBLayer)
	svc := newService(store)
	existing := &models.Meetup{ID: 5, UserID: 7, Title: "old", Description: "d", Location: "l", Date: now.Add(24 * time.Hour)}
	newDate := now.Add(48 * time.Hour)

	store.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)
	store.On("Update", mock.Anything, existing, []string{"title", "date"}).Return(nil)

	summary, err := svc.Update(context.Background(), 5, 7, &models.MeetupInput{Title: ptr("new"), Date: ptr(newDate)})

	require.NoError(t, err)
	assert.Equal(t, models.MeetupSummary{ID: 5, Title: "new", Description: "d", Date: newDate, Location: "l"}, summary)
	store.AssertExpectations(t)
}

func TestUpdateMeetupErrors(t *testing.T) {
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name     string
		existing *models.Meetup
		findErr  error
		input    *models.MeetupInput
		want     error
	}{
		{
			name:    "missing meetup",
			findErr: apperrors.NotFound("Meetup not found"),
			input:   &models.MeetupInput{Title: ptr("x")},
			want:    apperrors.ErrNotFound,
		},
		{
			name:     "not the owner",
			existing: &models.Meetup{ID: 5, UserID: 8, Date: future},
			input:    &models.MeetupInput{Title: ptr("x")},
			want:     apperrors.ErrNotOwner,
		},
		{
			name:     "meetup already happened",
			existing: &models.Meetup{ID: 5, UserID: 7, Date: now.Add(-time.Hour)},
			input:    &models.MeetupInput{Title: ptr("x")},
			want:     apperrors.ErrPastDate,
		},
		{
			name:     "new date in the past",
			existing: &models.Meetup{ID: 5, UserID: 7, Date: future},
			input:    &models.MeetupInput{Date: ptr(now.Add(-time.Minute))},
			want:     apperrors.ErrPastDate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockDBLayer)
			svc := newService(store)
			if tc.findErr != nil {
				store.On("FindByID", mock.Anything, int64(5)).Return(nil, tc.findErr)
			} else {
				store.On("FindByID", mock.Anything, int64(5)).Return(tc.existing, nil)
			}

			_, err := svc.Update(context.Background(), 5, 7, tc.input)

			assert.ErrorIs(t, err, tc.want)
			store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateWithoutChangesSkipsWrite(t *testing.T) {
	store := new(MockDBLayer)
	svc := newService(store)
	existing := &models.Meetup{ID: 5, UserID: 7, Title: "same", Date: now.Add(time.Hour)}
	store.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)

	summary, err := svc.Update(context.Background(), 5, 7, &models.MeetupInput{})

	require.NoError(t, err)
	assert.Equal(t, "same", summary.Title)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMeetup(t *testing.T) {
	store := new(MockDBLayer)
	svc := newService(store)
	store.On("FindByID", mock.Anything, int64(5)).Return(&models.Meetup{ID: 5, UserID: 7, Date: now.Add(time.Hour)}, nil)
	store.On("Delete", mock.Anything, int64(5)).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), 5, 7))
	store.AssertExpectations(t)
}

func TestDeleteMeetupRules(t *testing.T) {
	t.Run("not the owner", func(t *testing.T) {
		store := new(MockDBLayer)
		svc := newService(store)
		// not-owner wins over past date
		store.On("FindByID", mock.Anything, int64(5)).Return(&models.Meetup{ID: 5, UserID: 8, Date: now.Add(-time.Hour)}, nil)

		assert.ErrorIs(t, svc.Delete(context.Background(), 5, 7), apperrors.ErrNotOwner)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("already happened", func(t *testing.T) {
		store := new(MockDBLayer)
		svc := newService(store)
		store.On("FindByID", mock.Anything, int64(5)).Return(&models.Meetup{ID: 5, UserID: 7, Date: now}, nil)

		assert.ErrorIs(t, svc.Delete(context.Background(), 5, 7), apperrors.ErrPastDate)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		store := new(MockDBLayer)
		svc := newService(store)
		store.On("FindByID", mock.Anything, int64(5)).Return(&models.Meetup{ID: 5, UserID: 7, Date: now.Add(time.Hour)}, nil)
		store.On("Delete", mock.Anything, int64(5)).Return(errors.New("connection reset"))

		err := svc.Delete(context.Background(), 5, 7)

		assert.EqualError(t, err, "connection reset")
		assert.Equal(t, 500, apperrors.HTTPStatus(err))
	})
}
