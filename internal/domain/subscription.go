package domain

import "time"

type Subscription struct {
	Thread    ThreadMetadata
	Author    UserId
	CreatedAt time.Time
}
