package otel

import (
	"sync"
	"testing"
)

func actions(h *History, kind EventKind, ids ...string) {
	for _, id := range ids {
		h.Record(Event{Kind: kind, Action: "favorite", StoryID: id})
	}
}

func TestHistoryRecentWindow(t *testing.T) {
	h := NewHistory(3)
	actions(h, KindActionStart, "s1", "s2", "s3", "s4", "s5")

	got := h.Recent(20)
	if len(got) != 3 {
		t.Fatalf("Recent(20) returned %d events, want 3", len(got))
	}
	for i, want := range []string{"s3", "s4", "s5"} {
		if got[i].StoryID != want {
			t.Errorf("Recent[%d] = %s, want %s", i, got[i].StoryID, want)
		}
	}

	if last := h.Recent(1); len(last) != 1 || last[0].StoryID != "s5" {
		t.Errorf("Recent(1) = %+v", last)
	}
	if h.Recent(0) != nil {
		t.Error("Recent(0) should be nil")
	}
	if n, limit := h.Held(); n != 3 || limit != 3 {
		t.Errorf("Held = %d/%d, want 3/3", n, limit)
	}
}

func TestHistoryTotalsOutliveWindow(t *testing.T) {
	h := NewHistory(2)
	actions(h, KindActionStart, "s1", "s2", "s3")
	actions(h, KindActionComplete, "s1", "s2")
	actions(h, KindActionDropped, "s3")

	totals := h.Totals()
	if totals[KindActionStart] != 3 || totals[KindActionComplete] != 2 || totals[KindActionDropped] != 1 {
		t.Errorf("totals = %v", totals)
	}
	if h.Seen() != 6 {
		t.Errorf("Seen = %d, want 6", h.Seen())
	}

	totals[KindActionStart] = 100
	if h.Totals()[KindActionStart] != 3 {
		t.Error("Totals must return a copy")
	}
}

func TestHistoryDefaultsAndEmpty(t *testing.T) {
	h := NewHistory(0)
	if _, limit := h.Held(); limit != DefaultHistorySize {
		t.Errorf("limit = %d, want %d", limit, DefaultHistorySize)
	}
	if h.Recent(5) != nil || len(h.Totals()) != 0 {
		t.Error("new history should be empty")
	}
}

func TestHistoryCopiesExtra(t *testing.T) {
	h := NewHistory(4)
	extra := map[string]any{"view": "favorites"}
	h.Record(Event{Kind: KindAuthComplete, Extra: extra})
	extra["view"] = "mine"

	if got := h.Recent(1)[0].Extra["view"]; got != "favorites" {
		t.Errorf("recorded Extra changed to %v", got)
	}
}

func TestHistoryConcurrentRecord(t *testing.T) {
	h := NewHistory(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.Record(Event{Kind: KindKeyPress})
				h.Recent(20)
			}
		}()
	}
	wg.Wait()

	if h.Seen() != 800 || h.Totals()[KindKeyPress] != 800 {
		t.Errorf("seen = %d, totals = %v", h.Seen(), h.Totals())
	}
	if n, _ := h.Held(); n != 50 {
		t.Errorf("held = %d, want 50", n)
	}
}

func TestLoggerFeedsHistory(t *testing.T) {
	l := NewNullLogger()
	h := NewHistory(8)
	l.Attach(h)

	l.Emit(Event{Kind: KindActionStart, StoryID: "s1"})
	l.Emit(Event{Kind: KindActionError, StoryID: "s1", Err: "boom"})
	l.Close()

	got := h.Recent(8)
	if len(got) != 2 || got[1].Err != "boom" {
		t.Fatalf("history = %+v", got)
	}
	if got[0].RunID != l.RunID() {
		t.Error("recorded events should carry the run id")
	}
}
