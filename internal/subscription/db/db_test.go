package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/models"
	"ms-meetup/internal/subscription/db"
)

var now = time.Date(2030, 7, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.User)(nil),
		(*models.File)(nil),
		(*models.Meetup)(nil),
		(*models.Subscription)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	users := []models.User{
		{ID: 1, Name: "Diego", Email: "diego@meetapp.com"},
		{ID: 2, Name: "Robson", Email: "robson@meetapp.com"},
		{ID: 3, Name: "Cláudio", Email: "claudio@meetapp.com"},
	}
	_, err = bunDB.NewInsert().Model(&users).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewInsert().Model(&models.File{ID: 1, Name: "banner.png", Path: "f3a9.png"}).Exec(ctx)
	require.NoError(t, err)

	return &db.DB{Bun: bunDB, FilesBaseURL: "http://files.test"}, bunDB
}

func seedMeetup(t *testing.T, bunDB *bun.DB, id, owner int64, at time.Time) {
	m := &models.Meetup{
		ID: id, Title: "meetup", Description: "d", Location: "l",
		Date: at, UserID: owner, BannerID: 1,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := bunDB.NewInsert().Model(m).Exec(context.Background())
	require.NoError(t, err)
}

func TestCreateSubscription(t *testing.T) {
	subDB, bunDB := setupTestDB(t)
	ctx := context.Background()
	seedMeetup(t, bunDB, 1, 1, now.Add(24*time.Hour))

	s := &models.Subscription{UserID: 2, MeetupID: 1}
	require.NoError(t, subDB.Create(ctx, s))
	assert.NotZero(t, s.ID)

	err := subDB.Create(ctx, &models.Subscription{UserID: 2, MeetupID: 1})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateSubscription)
}

func TestListUpcomingByUser(t *testing.T) {
	subDB, bunDB := setupTestDB(t)
	ctx := context.Background()
	seedMeetup(t, bunDB, 1, 1, now.Add(72*time.Hour))
	seedMeetup(t, bunDB, 2, 1, now.Add(-time.Hour))
	seedMeetup(t, bunDB, 3, 3, now.Add(24*time.Hour))
	seedMeetup(t, bunDB, 4, 1, now.Add(48*time.Hour))

	for _, meetupID := range []int64{1, 2, 3} {
		require.NoError(t, subDB.Create(ctx, &models.Subscription{UserID: 2, MeetupID: meetupID}))
	}
	require.NoError(t, subDB.Create(ctx, &models.Subscription{UserID: 3, MeetupID: 4}))

	subscriptions, err := subDB.ListUpcomingByUser(ctx, 2, now)

	require.NoError(t, err)
	require.Len(t, subscriptions, 2)
	assert.Equal(t, int64(3), subscriptions[0].MeetupID)
	assert.Equal(t, int64(1), subscriptions[1].MeetupID)

	first := subscriptions[0]
	require.NotNil(t, first.Meetup)
	require.NotNil(t, first.Meetup.Owner)
	assert.Equal(t, "Cláudio", first.Meetup.Owner.Name)
	require.NotNil(t, first.Meetup.Banner)
	assert.Equal(t, "http://files.test/files/f3a9.png", first.Meetup.Banner.URL)
	require.NotNil(t, first.User)
	assert.Equal(t, "robson@meetapp.com", first.User.Email)
}

func TestListConflicts(t *testing.T) {
	subDB, bunDB := setupTestDB(t)
	ctx := context.Background()
	at := now.Add(24 * time.Hour)
	seedMeetup(t, bunDB, 1, 1, at)
	seedMeetup(t, bunDB, 2, 1, at)
	seedMeetup(t, bunDB, 3, 1, at.Add(time.Hour))
	seedMeetup(t, bunDB, 4, 3, at)

	require.NoError(t, subDB.Create(ctx, &models.Subscription{UserID: 2, MeetupID: 1}))
	require.NoError(t, subDB.Create(ctx, &models.Subscription{UserID: 2, MeetupID: 3}))
	require.NoError(t, subDB.Create(ctx, &models.Subscription{UserID: 3, MeetupID: 2}))

	conflicts, err := subDB.ListConflicts(ctx, 2, 4, at)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, int64(1), conflicts[0].MeetupID)
	require.NotNil(t, conflicts[0].Meetup)
	assert.True(t, conflicts[0].Meetup.Date.Equal(at))

	same, err := subDB.ListConflicts(ctx, 2, 3, at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, same, 1)
	assert.Equal(t, int64(3), same[0].MeetupID)

	none, err := subDB.ListConflicts(ctx, 1, 4, at)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindUser(t *testing.T) {
	subDB, _ := setupTestDB(t)

	user, err := subDB.FindUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Robson", user.Name)

	_, err = subDB.FindUser(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
