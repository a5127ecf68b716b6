// Package view turns state into something to draw and user intent into
// state changes.
//
// # Architecture
//
//	┌──────────────┐     ┌────────────┐     ┌─────────┐
//	│ Session/Feed │ ──> │   Render   │ ──> │ Display │ ──> ui
//	└──────────────┘     └────────────┘     └─────────┘
//	        ^                                    │
//	        └──────── Controller.Dispatch <──────┘ (Action)
//
// Render is a pure function of (active state, feed, user). The Controller
// owns the active state, applies Actions to the session and feed, and
// re-renders from memory afterwards. It never reloads the feed.
package view

import (
	"fmt"
	"strings"

	"github.com/abelbrown/snooze/internal/model"
)

// State is the active story display.
type State int

const (
	AllStories State = iota
	Favorites
	OwnStories
	Hidden
)

// States lists every display in navigation order.
var States = []State{AllStories, Favorites, OwnStories, Hidden}

// String returns the CLI name of the state.
func (s State) String() string {
	switch s {
	case AllStories:
		return "all"
	case Favorites:
		return "favorites"
	case OwnStories:
		return "mine"
	case Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Title is the heading shown above the list.
func (s State) Title() string {
	switch s {
	case Favorites:
		return "Favorites"
	case OwnStories:
		return "My stories"
	case Hidden:
		return "Hidden"
	default:
		return "All stories"
	}
}

// ParseState maps a CLI name back to a State.
func ParseState(name string) (State, error) {
	for _, s := range States {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return AllStories, fmt.Errorf("unknown view %q (want all, favorites, mine or hidden)", name)
}

// EmptyMessage is shown when the active display has no visible stories.
func (s State) EmptyMessage() string {
	switch s {
	case Favorites:
		return "No favorite stories to show!"
	case OwnStories:
		return "You haven't submitted any stories yet!"
	case Hidden:
		return "No hidden stories to show!"
	default:
		return "No stories have been submitted yet!"
	}
}

// HideAction is the hide/unhide affordance offered on a row.
type HideAction int

const (
	HideNone HideAction = iota
	HideShow            // "hide" icon
	HideUndo            // "unhide" icon
)

// Row is one rendered story.
type Row struct {
	Story        model.Story
	Hostname     string
	ShowFavorite bool // a viewer is signed in
	Favorite     bool
	HideAction   HideAction
	CanDelete    bool
}

// Display is everything a front-end needs to draw the active state.
type Display struct {
	State        State
	Rows         []Row
	EmptyMessage string // set only when Rows is empty
	Viewer       string // "" when anonymous
	HiddenCount  int
}

// Empty reports whether the display has no rows.
func (d Display) Empty() bool {
	return len(d.Rows) == 0
}

// Find returns the row for a story id.
func (d Display) Find(id string) (Row, bool) {
	for _, r := range d.Rows {
		if r.Story.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

// Render computes the display for state. user may be nil. Anonymous
// viewers only ever see the feed: the user-owned collections are empty.
func Render(state State, feed []model.Story, user *model.User) Display {
	d := Display{State: state}

	var source, favorites, hidden []model.Story
	if user != nil {
		d.Viewer = user.Username
		d.HiddenCount = len(user.Hidden)
		favorites = user.Favorites
		hidden = user.Hidden
	}

	switch state {
	case Favorites:
		if user != nil {
			source = user.Favorites
		}
	case OwnStories:
		if user != nil {
			source = user.OwnStories
		}
	case Hidden:
		source = hidden
	default:
		source = feed
	}

	rows := make([]Row, 0, len(source))
	for _, st := range source {
		if state != Hidden && model.Contains(hidden, st.ID) {
			continue
		}
		rows = append(rows, renderRow(state, st, d.Viewer, favorites))
	}
	d.Rows = rows

	if len(rows) == 0 {
		d.EmptyMessage = state.EmptyMessage()
	}
	return d
}

func renderRow(state State, st model.Story, viewer string, favorites []model.Story) Row {
	r := Row{
		Story:    st,
		Hostname: st.Hostname(),
	}
	if viewer == "" {
		return r
	}
	r.ShowFavorite = true
	r.Favorite = model.Contains(favorites, st.ID)
	r.HideAction = HideShow
	if state == Hidden {
		r.HideAction = HideUndo
	}
	r.CanDelete = st.Username == viewer
	return r
}
