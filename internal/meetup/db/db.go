package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/models"
)

// DefaultPageSize is the page length of the day listing.
const DefaultPageSize = 10

var errMeetupNotFound = apperrors.NotFound("Meetup not found")

type DB struct {
	Bun          *bun.DB
	FilesBaseURL string
}

// ---------------- READS ----------------

// ListByOwner → every meetup organized by ownerID, soonest first
func (d *DB) ListByOwner(ctx context.Context, ownerID int64) ([]models.Meetup, error) {
	meetups := []models.Meetup{}
	err := d.display(&meetups).
		Where("meetup.user_id = ?", ownerID).
		Order("meetup.date ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meetups of user %d: %w", ownerID, err)
	}
	d.resolveBanners(meetups)
	return meetups, nil
}

// ListByDate → one page of meetups with from <= date < to, ordered by date
func (d *DB) ListByDate(ctx context.Context, from, to time.Time, page, pageSize int) ([]models.Meetup, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	meetups := []models.Meetup{}
	err := d.display(&meetups).
		Where("meetup.date >= ?", from.UTC()).
		Where("meetup.date < ?", to.UTC()).
		Order("meetup.date ASC", "meetup.id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meetups between %s and %s: %w", from, to, err)
	}
	d.resolveBanners(meetups)
	return meetups, nil
}

// FindByID → one meetup with organizer and banner attached
func (d *DB) FindByID(ctx context.Context, id int64) (*models.Meetup, error) {
	var meetup models.Meetup
	err := d.display(&meetup).
		Where("meetup.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errMeetupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find meetup %d: %w", id, err)
	}
	meetup.Banner.ResolveURL(d.FilesBaseURL)
	return &meetup, nil
}

// ---------------- WRITES ----------------

// Create → insert and fill the generated id
func (d *DB) Create(ctx context.Context, meetup *models.Meetup) error {
	now := time.Now().UTC()
	meetup.Date = meetup.Date.UTC()
	meetup.CreatedAt = now
	meetup.UpdatedAt = now

	_, err := d.Bun.NewInsert().Model(meetup).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create meetup: %w", err)
	}
	return nil
}

// Update → write the given columns plus updated_at
func (d *DB) Update(ctx context.Context, meetup *models.Meetup, columns ...string) error {
	meetup.UpdatedAt = time.Now().UTC()
	meetup.Date = meetup.Date.UTC()
	columns = append(columns, "updated_at")

	res, err := d.Bun.NewUpdate().
		Model(meetup).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update meetup %d: %w", meetup.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errMeetupNotFound
	}
	return nil
}

// Delete → remove one meetup; subscriptions cascade at the schema level
func (d *DB) Delete(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Meetup)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete meetup %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errMeetupNotFound
	}
	return nil
}

func (d *DB) display(model interface{}) *bun.SelectQuery {
	return d.Bun.NewSelect().
		Model(model).
		Relation("Owner").
		Relation("Banner")
}

func (d *DB) resolveBanners(meetups []models.Meetup) {
	for i := range meetups {
		meetups[i].Banner.ResolveURL(d.FilesBaseURL)
	}
}
