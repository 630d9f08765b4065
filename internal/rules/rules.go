// Package rules holds the ownership and date rules for meetups and subscriptions.
// Every rule is a pure check over entities the caller already loaded; the current
// instant is always passed in.
package rules

import (
	"time"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/models"
)

// AuthorizeMutation allows only the meetup owner to change or delete it.
func AuthorizeMutation(meetup *models.Meetup, requesterID int64) error {
	if meetup.UserID != requesterID {
		return apperrors.ErrNotOwner
	}
	return nil
}

// RequireFuture fails unless ts is strictly after now.
func RequireFuture(ts, now time.Time) error {
	if !ts.After(now) {
		return apperrors.ErrPastDate
	}
	return nil
}

// AuthorizeSubscription rejects subscribing to one's own meetup first, then
// subscribing to one that already happened.
func AuthorizeSubscription(meetup *models.Meetup, requesterID int64, now time.Time) error {
	if meetup.UserID == requesterID {
		return apperrors.ErrSelfSubscription
	}
	if !meetup.Date.After(now) {
		return apperrors.PastDate("Cannot subscribe to past meetups")
	}
	return nil
}

// CheckDuplicateSubscription fails if existing already holds a subscription to meetup.
func CheckDuplicateSubscription(existing []models.Subscription, meetup *models.Meetup) error {
	for _, s := range existing {
		if s.MeetupID == meetup.ID {
			return apperrors.ErrDuplicateSubscription
		}
	}
	return nil
}

// CheckConflictingSchedule fails if existing holds a subscription to another
// meetup happening at exactly the same instant. Entries without a loaded
// Meetup are ignored.
func CheckConflictingSchedule(existing []models.Subscription, meetup *models.Meetup) error {
	for _, s := range existing {
		if s.MeetupID == meetup.ID || s.Meetup == nil {
			continue
		}
		if s.Meetup.Date.Equal(meetup.Date) {
			return apperrors.ErrScheduleConflict
		}
	}
	return nil
}
