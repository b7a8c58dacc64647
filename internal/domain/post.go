package domain

import (
	"database/sql"
	"fmt"
	"time"
)

type PostCreationData struct {
	Thread    ThreadId
	Author    User
	Body      PostBody
	Subscribe bool
}

type Post struct {
	Id         PostId
	ThreadId   ThreadId
	Author     User
	Body       PostBody
	CreatedAt  time.Time
	ModifiedAt sql.NullTime
}

// URL points at the thread page; the anchor selects the post.
func (p *Post) URL() string {
	return fmt.Sprintf("/thread/%d/#post%d", p.ThreadId, p.Id)
}

// PostListing is a post joined with the thread it belongs to, used by feeds and the sitemap.
type PostListing struct {
	Post
	ThreadTitle ThreadTitle
	ForumId     ForumId
}

// PostDraft is a submitted reply or edit form.
type PostDraft struct {
	Body      PostBody
	Subscribe bool
	Preview   bool
}
