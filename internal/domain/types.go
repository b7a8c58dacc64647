package domain

import "github.com/lib/pq"

type (
	UserId   = int64
	Username = string
	Email    = string
	Password = string

	GroupName = string
	Groups    = pq.StringArray // to save into postgres text[]

	ForumId   = int64
	ForumSlug = string

	ThreadId    = int64
	ThreadTitle = string

	PostId   = int64
	PostBody = string
)
