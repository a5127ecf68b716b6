package model

import "time"

// User is the authenticated account and its three story collections.
type User struct {
	Username  string
	Name      string
	CreatedAt time.Time
	Token     string

	// Favorites mirrors the server; replaced wholesale after every toggle.
	Favorites []Story
	// OwnStories is newest first; the server is authoritative.
	OwnStories []Story
	// Hidden never leaves the client. It lives in the preference store.
	Hidden []Story
}

// Clone returns a deep copy safe to hand to renderers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Favorites = Clone(u.Favorites)
	c.OwnStories = Clone(u.OwnStories)
	c.Hidden = Clone(u.Hidden)
	return &c
}
