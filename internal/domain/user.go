package domain

import "time"

type User struct {
	Id        UserId
	Username  Username
	Email     Email
	PassHash  string
	Admin     bool
	Groups    Groups
	CreatedAt time.Time
}

type UserCreationData struct {
	Username Username
	Email    Email
	PassHash string
	Admin    bool
	Groups   Groups
}
