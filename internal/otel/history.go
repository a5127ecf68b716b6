package otel

import (
	"maps"
	"sync"
)

// DefaultHistorySize holds a few minutes of key presses and story actions.
const DefaultHistorySize = 200

// History is what the debug overlay reads: the most recent events, plus
// per-kind totals since the session began. Totals keep counting after old
// events fall out of the recent window. Safe for concurrent use.
type History struct {
	mu     sync.Mutex
	recent []Event // oldest first
	limit  int
	totals map[EventKind]int
	seen   int
}

// NewHistory keeps up to limit recent events; limit <= 0 uses
// DefaultHistorySize.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{
		recent: make([]Event, 0, limit),
		limit:  limit,
		totals: make(map[EventKind]int),
	}
}

// Record adds e, evicting the oldest recent event when the window is full.
func (h *History) Record(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.recent) == h.limit {
		copy(h.recent, h.recent[1:])
		h.recent = h.recent[:h.limit-1]
	}
	h.recent = append(h.recent, e)
	h.totals[e.Kind]++
	h.seen++
}

// Recent returns up to n of the newest events, oldest first.
func (h *History) Recent(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || len(h.recent) == 0 {
		return nil
	}
	if n > len(h.recent) {
		n = len(h.recent)
	}
	out := make([]Event, n)
	copy(out, h.recent[len(h.recent)-n:])
	return out
}

// Totals returns a copy of the per-kind counts for the whole session.
func (h *History) Totals() map[EventKind]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.totals)
}

// Held reports how many events are in the recent window and its limit.
func (h *History) Held() (n, limit int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.recent), h.limit
}

// Seen counts every event recorded this session.
func (h *History) Seen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen
}
