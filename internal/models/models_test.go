package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeetupInputApplyOnlyTouchesPresentFields(t *testing.T) {
	title := "Go meetup"
	date := time.Date(2030, 1, 2, 18, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	m := &Meetup{Title: "old", Description: "keep", Location: "keep"}

	columns := MeetupInput{Title: &title, Date: &date}.Apply(m)

	assert.Equal(t, []string{"title", "date"}, columns)
	assert.Equal(t, "Go meetup", m.Title)
	assert.Equal(t, "keep", m.Description)
	assert.Equal(t, time.UTC, m.Date.Location())
	assert.True(t, m.Date.Equal(date))
}

func TestFileResolveURL(t *testing.T) {
	f := &File{Path: "abc.png"}
	f.ResolveURL("http://localhost:3333")
	assert.Equal(t, "http://localhost:3333/files/abc.png", f.URL)

	var missing *File
	missing.ResolveURL("http://localhost:3333")
}

func TestMeetupViewDropsInternalFields(t *testing.T) {
	m := &Meetup{
		ID: 1, Title: "Go Floripa", UserID: 7, BannerID: 3,
		Owner:  &User{ID: 7, Name: "João", Email: "joao@meetapp.com"},
		Banner: &File{ID: 3, Name: "banner.png", Path: "f3a9.png", URL: "http://files.test/files/f3a9.png"},
	}

	view := m.View()

	assert.Equal(t, &OwnerView{Name: "João", Email: "joao@meetapp.com"}, view.Owner)
	assert.Equal(t, &BannerView{Name: "banner.png", Path: "f3a9.png", URL: "http://files.test/files/f3a9.png"}, view.Banner)

	bare := (&Subscription{ID: 4, MeetupID: 1}).View()
	assert.Nil(t, bare.Meetup)
	assert.Nil(t, (&Meetup{ID: 2}).View().Owner)
}
