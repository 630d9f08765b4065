package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:subscription"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull,unique:subscriptions_user_meetup" json:"user_id"`
	MeetupID  int64     `bun:"meetup_id,notnull,unique:subscriptions_user_meetup" json:"meetup_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Meetup *Meetup `bun:"rel:belongs-to,join:meetup_id=id" json:"meetup,omitempty"`
	User   *User   `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// SubscriptionView is a subscription as listed to its subscriber.
type SubscriptionView struct {
	ID        int64       `json:"id"`
	MeetupID  int64       `json:"meetup_id"`
	CreatedAt time.Time   `json:"created_at"`
	Meetup    *MeetupView `json:"meetup"`
}

func (s *Subscription) View() SubscriptionView {
	view := SubscriptionView{ID: s.ID, MeetupID: s.MeetupID, CreatedAt: s.CreatedAt}
	if s.Meetup != nil {
		meetup := s.Meetup.View()
		view.Meetup = &meetup
	}
	return view
}

func SubscriptionViews(subscriptions []Subscription) []SubscriptionView {
	views := make([]SubscriptionView, 0, len(subscriptions))
	for i := range subscriptions {
		views = append(views, subscriptions[i].View())
	}
	return views
}
