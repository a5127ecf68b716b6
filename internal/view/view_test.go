package view

import (
	"testing"

	"github.com/abelbrown/snooze/internal/model"
)

var (
	storyA = model.Story{ID: "a", Title: "A", Author: "x", URL: "https://a.example/post", Username: "alice"}
	storyB = model.Story{ID: "b", Title: "B", Author: "y", URL: "https://b.example", Username: "bob"}
	storyC = model.Story{ID: "c", Title: "C", Author: "z", URL: "c.example/path", Username: "bob"}
)

func ids(d Display) []string {
	out := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		out = append(out, r.Story.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRenderAnonymous(t *testing.T) {
	feed := []model.Story{storyA, storyB}
	d := Render(AllStories, feed, nil)

	if !equal(ids(d), []string{"a", "b"}) {
		t.Fatalf("rows = %v", ids(d))
	}
	if d.Viewer != "" || d.EmptyMessage != "" {
		t.Errorf("display = %+v", d)
	}
	for _, r := range d.Rows {
		if r.ShowFavorite || r.HideAction != HideNone || r.CanDelete {
			t.Errorf("anonymous row offers actions: %+v", r)
		}
	}
	if d.Rows[0].Hostname != "a.example" {
		t.Errorf("Hostname = %q", d.Rows[0].Hostname)
	}

	for _, s := range []State{Favorites, OwnStories, Hidden} {
		if d := Render(s, feed, nil); !d.Empty() || d.EmptyMessage != s.EmptyMessage() {
			t.Errorf("%v for anonymous = %+v", s, d)
		}
	}
}

func TestRenderSourcesAndAffordances(t *testing.T) {
	feed := []model.Story{storyA, storyB, storyC}
	user := &model.User{
		Username:   "alice",
		Favorites:  []model.Story{storyB},
		OwnStories: []model.Story{storyA},
		Hidden:     []model.Story{storyC},
	}

	tests := []struct {
		state State
		want  []string
		hide  HideAction
	}{
		{AllStories, []string{"a", "b"}, HideShow},
		{Favorites, []string{"b"}, HideShow},
		{OwnStories, []string{"a"}, HideShow},
		{Hidden, []string{"c"}, HideUndo},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			d := Render(tt.state, feed, user)
			if !equal(ids(d), tt.want) {
				t.Fatalf("rows = %v, want %v", ids(d), tt.want)
			}
			if d.HiddenCount != 1 || d.Viewer != "alice" {
				t.Errorf("display = %+v", d)
			}
			for _, r := range d.Rows {
				if r.HideAction != tt.hide {
					t.Errorf("%s HideAction = %v, want %v", r.Story.ID, r.HideAction, tt.hide)
				}
				if r.CanDelete != (r.Story.Username == "alice") {
					t.Errorf("%s CanDelete = %v", r.Story.ID, r.CanDelete)
				}
				if r.Favorite != (r.Story.ID == "b") {
					t.Errorf("%s Favorite = %v", r.Story.ID, r.Favorite)
				}
			}
		})
	}
}

func TestRenderHiddenSuppressedEverywhereButHidden(t *testing.T) {
	user := &model.User{
		Username:   "bob",
		Favorites:  []model.Story{storyB},
		OwnStories: []model.Story{storyB},
		Hidden:     []model.Story{storyB},
	}
	for _, s := range []State{AllStories, Favorites, OwnStories} {
		d := Render(s, []model.Story{storyB}, user)
		if !d.Empty() {
			t.Errorf("%v shows a hidden story", s)
		}
		if d.EmptyMessage != s.EmptyMessage() {
			t.Errorf("%v EmptyMessage = %q", s, d.EmptyMessage)
		}
	}
}

func TestEmptyMessages(t *testing.T) {
	want := map[State]string{
		AllStories: "No stories have been submitted yet!",
		Favorites:  "No favorite stories to show!",
		OwnStories: "You haven't submitted any stories yet!",
		Hidden:     "No hidden stories to show!",
	}
	user := &model.User{Username: "u"}
	for s, msg := range want {
		if got := Render(s, nil, user).EmptyMessage; got != msg {
			t.Errorf("%v: %q, want %q", s, got, msg)
		}
	}
}

func TestRenderIsPure(t *testing.T) {
	feed := []model.Story{storyA}
	user := &model.User{Username: "alice", Hidden: []model.Story{}}
	d := Render(AllStories, feed, user)
	d.Rows[0].Story.Title = "mutated"
	if feed[0].Title != "A" {
		t.Error("Render must not alias the feed")
	}
}

func TestParseState(t *testing.T) {
	for _, s := range States {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", s.String(), got, err)
		}
	}
	if got, err := ParseState("MINE"); err != nil || got != OwnStories {
		t.Errorf("ParseState(MINE) = %v, %v", got, err)
	}
	if _, err := ParseState("top"); err == nil {
		t.Error("expected error for unknown view")
	}
}

func TestDisplayFind(t *testing.T) {
	d := Render(AllStories, []model.Story{storyA, storyB}, nil)
	if r, ok := d.Find("b"); !ok || r.Story.Title != "B" {
		t.Errorf("Find(b) = %+v, %v", r, ok)
	}
	if _, ok := d.Find("zzz"); ok {
		t.Error("Find should miss")
	}
}
