package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Meetup struct {
	bun.BaseModel `bun:"table:meetups,alias:meetup"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,notnull" json:"description"`
	Location    string    `bun:"location,notnull" json:"location"`
	Date        time.Time `bun:"date,notnull" json:"date"`
	UserID      int64     `bun:"user_id,notnull" json:"user_id"`
	BannerID    int64     `bun:"banner_id,nullzero" json:"banner_id,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Owner  *User `bun:"rel:belongs-to,join:user_id=id" json:"owner,omitempty"`
	Banner *File `bun:"rel:belongs-to,join:banner_id=id" json:"banner,omitempty"`
}

// MeetupInput is a validated create/update payload. Nil fields were absent.
type MeetupInput struct {
	Title       *string
	Description *string
	Location    *string
	Date        *time.Time
	BannerID    *int64
	UserID      *int64
}

// Apply copies the present fields onto m and returns the changed column names.
func (in MeetupInput) Apply(m *Meetup) []string {
	var columns []string
	if in.Title != nil {
		m.Title = *in.Title
		columns = append(columns, "title")
	}
	if in.Description != nil {
		m.Description = *in.Description
		columns = append(columns, "description")
	}
	if in.Location != nil {
		m.Location = *in.Location
		columns = append(columns, "location")
	}
	if in.Date != nil {
		m.Date = in.Date.UTC()
		columns = append(columns, "date")
	}
	if in.BannerID != nil {
		m.BannerID = *in.BannerID
		columns = append(columns, "banner_id")
	}
	return columns
}

// MeetupSummary is the body returned by an update.
type MeetupSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
}

func (m *Meetup) Summary() MeetupSummary {
	return MeetupSummary{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Date:        m.Date,
		Location:    m.Location,
	}
}

// MeetupView is the public shape of a meetup in listings.
type MeetupView struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	Location    string      `json:"location"`
	Owner       *OwnerView  `json:"owner"`
	Banner      *BannerView `json:"banner"`
}

type OwnerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type BannerView struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

func (m *Meetup) View() MeetupView {
	view := MeetupView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Date:        m.Date,
		Location:    m.Location,
	}
	if m.Owner != nil {
		view.Owner = &OwnerView{Name: m.Owner.Name, Email: m.Owner.Email}
	}
	if m.Banner != nil {
		view.Banner = &BannerView{Name: m.Banner.Name, Path: m.Banner.Path, URL: m.Banner.URL}
	}
	return view
}

func MeetupViews(meetups []Meetup) []MeetupView {
	views := make([]MeetupView, 0, len(meetups))
	for i := range meetups {
		views = append(views, meetups[i].View())
	}
	return views
}
