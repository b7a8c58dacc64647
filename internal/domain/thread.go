package domain

import (
	"fmt"
	"time"
)

type ThreadCreationData struct {
	Forum     ForumId
	Title     ThreadTitle
	Author    User
	Body      PostBody
	Subscribe bool
}

type ThreadMetadata struct {
	Id         ThreadId
	ForumId    ForumId
	Title      ThreadTitle
	IsSticky   bool
	IsClosed   bool
	Views      int64
	PostCount  int
	CreatedAt  time.Time
	LastPostAt time.Time
}

func (t *ThreadMetadata) URL() string {
	return fmt.Sprintf("/thread/%d/", t.Id)
}

type Thread struct {
	ThreadMetadata
	Forum *Forum
	Posts Page[*Post]
}

// ThreadView is a thread page as seen by one requester.
type ThreadView struct {
	Thread
	Subscribed bool
}
