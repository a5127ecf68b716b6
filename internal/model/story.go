// Package model provides the data types shared by every layer of snooze.
//
// Story and User are plain values. The same story may sit in the feed, in a
// user's favorites, own stories and hidden list at once; collections hold
// copies keyed by ID, never shared pointers.
package model

import (
	"errors"
	"net/url"
	"regexp"
	"time"
)

// HostnameNotFound is returned by Story.Hostname when no host can be derived.
const HostnameNotFound = "Hostname not found"

// ErrNotFound is returned when a story id lookup misses.
var ErrNotFound = errors.New("story not found")

// hostPattern matches a run of word/dot characters followed by "/" or end of input.
var hostPattern = regexp.MustCompile(`([\w.]+)(?:/|$)`)

// Story is a single submitted link.
// JSON tags follow the Hack-or-Snooze wire format; the hidden list in the
// preference store uses the same encoding.
type Story struct {
	ID        string    `json:"storyId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hostname returns the host part of the story URL, port included when the
// URL names one. Never fails: returns HostnameNotFound when nothing usable
// is present.
func (s Story) Hostname() string {
	if u, err := url.Parse(s.URL); err == nil && u.Hostname() != "" {
		return u.Host
	}
	if m := hostPattern.FindStringSubmatch(s.URL); m != nil {
		return m[1]
	}
	return HostnameNotFound
}

// IndexOf returns the position of the story with id, or -1.
func IndexOf(stories []Story, id string) int {
	for i, s := range stories {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a story with id is present.
func Contains(stories []Story, id string) bool {
	return IndexOf(stories, id) >= 0
}

// Without returns a new slice with the story id removed and whether it was present.
// The input slice is not modified.
func Without(stories []Story, id string) ([]Story, bool) {
	i := IndexOf(stories, id)
	if i < 0 {
		return stories, false
	}
	out := make([]Story, 0, len(stories)-1)
	out = append(out, stories[:i]...)
	out = append(out, stories[i+1:]...)
	return out, true
}

// Prepend returns a new slice with s at the front.
func Prepend(stories []Story, s Story) []Story {
	out := make([]Story, 0, len(stories)+1)
	out = append(out, s)
	return append(out, stories...)
}

// Clone copies a story slice. A nil input yields an empty, non-nil slice.
func Clone(stories []Story) []Story {
	out := make([]Story, len(stories))
	copy(out, stories)
	return out
}
