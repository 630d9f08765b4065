// Package validation checks the shape of incoming payloads before any business
// rule runs. Every failure collapses into apperrors.ErrValidation.
package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"ms-meetup/internal/apperrors"
	"ms-meetup/internal/models"
)

type Kind int

const (
	Create Kind = iota
	Update
)

// Accepted date-time layouts, tried in order. Layouts without an offset are read
// in the gate's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

type createMeetupRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Date        string `json:"date" validate:"required,isodate"`
	BannerID    int64  `json:"banner_id" validate:"required,gt=0"`
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
}

type updateMeetupRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Date        *string `json:"date" validate:"omitnil,isodate"`
	BannerID    *int64  `json:"banner_id" validate:"omitnil,gt=0"`
}

type Gate struct {
	validate *validator.Validate
	loc      *time.Location
}

// New builds a gate that reads offset-less dates in loc (UTC when nil).
func New(loc *time.Location) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	g := &Gate{validate: validator.New(), loc: loc}
	_ = g.validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := g.parseDate(fl.Field().String())
		return err == nil
	})
	return g
}

// Meetup decodes and validates a meetup payload for the given operation.
func (g *Gate) Meetup(body io.Reader, kind Kind) (*models.MeetupInput, error) {
	switch kind {
	case Create:
		var req createMeetupRequest
		if err := g.decode(body, &req); err != nil {
			return nil, err
		}
		date, _ := g.parseDate(req.Date)
		return &models.MeetupInput{
			Title:       &req.Title,
			Description: &req.Description,
			Location:    &req.Location,
			Date:        &date,
			BannerID:    &req.BannerID,
			UserID:      &req.UserID,
		}, nil
	case Update:
		var req updateMeetupRequest
		if err := g.decode(body, &req); err != nil {
			return nil, err
		}
		input := &models.MeetupInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			BannerID:    req.BannerID,
		}
		if req.Date != nil {
			date, _ := g.parseDate(*req.Date)
			input.Date = &date
		}
		return input, nil
	default:
		return nil, fmt.Errorf("unknown validation kind %d", kind)
	}
}

// Day parses the date filter of the day listing. A bare calendar date is the
// start of that day in the gate's location.
func (g *Gate) Day(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, g.loc); err == nil {
		return t, nil
	}
	t, err := g.parseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.ErrValidation
	}
	return t, nil
}

// Page parses a 1-based page number; empty means the first page.
func (g *Gate) Page(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, apperrors.ErrValidation
	}
	return page, nil
}

// ID parses a positive numeric path identifier.
func (g *Gate) ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.ErrValidation
	}
	return id, nil
}

func (g *Gate) decode(body io.Reader, dst interface{}) error {
	if body == nil {
		return apperrors.ErrValidation
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := g.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

func (g *Gate) parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, g.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
