package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/models"
)

// uniqueViolation is the SQLSTATE Postgres reports for a broken UNIQUE constraint.
const uniqueViolation = "23505"

type DB struct {
	Bun          *bun.DB
	FilesBaseURL string
}

// ---------------- READS ----------------

// ListUpcomingByUser → the user's subscriptions to meetups after now, soonest first
func (d *DB) ListUpcomingByUser(ctx context.Context, userID int64, now time.Time) ([]models.Subscription, error) {
	subscriptions := []models.Subscription{}
	err := d.Bun.NewSelect().
		Model(&subscriptions).
		Relation("Meetup").
		Relation("Meetup.Owner").
		Relation("Meetup.Banner").
		Relation("User").
		Where("subscription.user_id = ?", userID).
		Where("meetup.date > ?", now.UTC()).
		Order("meetup.date ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions of user %d: %w", userID, err)
	}
	for i := range subscriptions {
		if m := subscriptions[i].Meetup; m != nil {
			m.Banner.ResolveURL(d.FilesBaseURL)
		}
	}
	return subscriptions, nil
}

// ListConflicts → the user's subscriptions either to meetupID or to any meetup
// happening exactly at date
func (d *DB) ListConflicts(ctx context.Context, userID, meetupID int64, date time.Time) ([]models.Subscription, error) {
	subscriptions := []models.Subscription{}
	err := d.Bun.NewSelect().
		Model(&subscriptions).
		Relation("Meetup").
		Where("subscription.user_id = ?", userID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("subscription.meetup_id = ?", meetupID).
				WhereOr("meetup.date = ?", date.UTC())
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conflicting subscriptions of user %d: %w", userID, err)
	}
	return subscriptions, nil
}

// FindUser → the subscriber identity carried by the notification
func (d *DB) FindUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("u.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

// ---------------- WRITES ----------------

// Create → insert one subscription; a second row for the same user and meetup
// is reported as ErrDuplicateSubscription
func (d *DB) Create(ctx context.Context, subscription *models.Subscription) error {
	now := time.Now().UTC()
	subscription.CreatedAt = now
	subscription.UpdatedAt = now

	_, err := d.Bun.NewInsert().Model(subscription).Exec(ctx)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateSubscription
	}
	if err != nil {
		return fmt.Errorf("create subscription of user %d to meetup %d: %w", subscription.UserID, subscription.MeetupID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
