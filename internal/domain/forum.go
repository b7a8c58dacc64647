package domain

import (
	"database/sql"
	"strings"
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ForumCreationData struct {
	Slug         ForumSlug
	Title        string
	Description  string
	ParentId     *ForumId
	Ordering     int
	AccessGroups Groups // empty means public
}

type Forum struct {
	Id           ForumId
	ParentId     sql.NullInt64
	Slug         ForumSlug
	Title        string
	Description  string
	Ordering     int
	AccessGroups Groups
	ThreadCount  int
	PostCount    int
	LastPostAt   sql.NullTime
	CreatedAt    time.Time

	// Path holds the slugs from the root forum down to this one.
	Path     []ForumSlug
	Children []*Forum
}

// URL is the forum's thread list path, e.g. /general/offtopic/.
func (f *Forum) URL() string {
	if len(f.Path) == 0 {
		return "/" + f.Slug + "/"
	}
	return "/" + strings.Join(f.Path, "/") + "/"
}

func (f *Forum) IsRoot() bool {
	return !f.ParentId.Valid
}
