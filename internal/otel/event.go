// Package otel records what the client did as structured events.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional History keeps recent events and session totals for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Startup sequence
	KindBootstrapStart    EventKind = "bootstrap.start"
	KindBootstrapComplete EventKind = "bootstrap.complete"
	KindBootstrapError    EventKind = "bootstrap.error"

	// Story actions (favorite, hide, unhide, delete, submit, navigate)
	KindActionStart    EventKind = "action.start"
	KindActionComplete EventKind = "action.complete"
	KindActionError    EventKind = "action.error"
	KindActionDropped  EventKind = "action.dropped" // story already has an action in flight

	// Authentication
	KindAuthComplete EventKind = "auth.complete"
	KindAuthError    EventKind = "auth.error"
	KindLogout       EventKind = "auth.logout"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"

	// Trace events (SNOOZE_TRACE)
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time    time.Time      `json:"t"`
	Level   Level          `json:"level,omitempty"`
	Kind    EventKind      `json:"kind"`
	Comp    string         `json:"comp,omitempty"`   // component: "ui", "app", "main"
	RunID   string         `json:"run_id,omitempty"` // same for the entire process
	Action  string         `json:"action,omitempty"` // view.ActionKind name
	StoryID string         `json:"story,omitempty"`
	View    string         `json:"view,omitempty"` // active display after the event
	Dur     time.Duration  `json:"-"`              // not serialized directly
	DurMs   float64        `json:"dur_ms,omitempty"`
	Count   int            `json:"count,omitempty"`
	Status  int            `json:"status,omitempty"` // HTTP status of a failed call
	Err     string         `json:"err,omitempty"`
	Msg     string         `json:"msg,omitempty"` // free text
	Extra   map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
