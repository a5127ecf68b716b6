// Package ui provides the Bubble Tea TUI for snooze.
package ui

import "github.com/abelbrown/snooze/internal/view"

// BootstrapDone is sent when session restore and the first feed load finish.
type BootstrapDone struct {
	Display view.Display
	Err     error // feed load failure; Display is meaningless when set
}

// ActionDone is sent when a dispatched action finishes.
type ActionDone struct {
	Action  view.Action
	Display view.Display // the re-rendered active display; ignore when Err is set
	Err     error
}

// AuthDone is sent when login, signup or logout finishes.
type AuthDone struct {
	Logout  bool
	Display view.Display // valid after a logout even when Err is set
	Err     error
}

// noticeExpired clears the notice with the matching sequence number.
type noticeExpired struct {
	seq int
}
