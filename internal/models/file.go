package models

import (
	"time"

	"github.com/uptrace/bun"
)

// File is an uploaded banner image. URL is derived from Path and never stored.
type File struct {
	bun.BaseModel `bun:"table:files,alias:f"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Path      string    `bun:"path,unique,notnull" json:"path"`
	URL       string    `bun:"-" json:"url"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

func (f *File) ResolveURL(baseURL string) {
	if f == nil || f.Path == "" {
		return
	}
	f.URL = baseURL + "/files/" + f.Path
}
