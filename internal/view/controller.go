package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/abelbrown/snooze/internal/feed"
	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/session"
)

// ActionKind names what an Action does.
type ActionKind int

const (
	ActNavigate ActionKind = iota
	ActToggleFavorite
	ActHide
	ActUnhide
	ActDelete
	ActSubmit
)

func (k ActionKind) String() string {
	switch k {
	case ActNavigate:
		return "navigate"
	case ActToggleFavorite:
		return "favorite"
	case ActHide:
		return "hide"
	case ActUnhide:
		return "unhide"
	case ActDelete:
		return "delete"
	case ActSubmit:
		return "submit"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is a user intent. Only the fields its Kind needs are read.
type Action struct {
	Kind    ActionKind
	StoryID string         // favorite, hide, unhide, delete
	State   State          // navigate
	Draft   model.NewStory // submit
}

// NavigateTo switches the active display.
func NavigateTo(s State) Action { return Action{Kind: ActNavigate, State: s} }

// ToggleFavorite flips favorite membership of a story.
func ToggleFavorite(id string) Action { return Action{Kind: ActToggleFavorite, StoryID: id} }

// Hide suppresses a story from every display but Hidden.
func Hide(id string) Action { return Action{Kind: ActHide, StoryID: id} }

// Unhide reverses Hide.
func Unhide(id string) Action { return Action{Kind: ActUnhide, StoryID: id} }

// Delete removes a story the viewer posted.
func Delete(id string) Action { return Action{Kind: ActDelete, StoryID: id} }

// Submit posts a new story.
func Submit(d model.NewStory) Action { return Action{Kind: ActSubmit, Draft: d} }

// NeedsUser reports whether the action is a no-op for anonymous viewers.
func (a Action) NeedsUser() bool {
	return a.Kind != ActNavigate
}

// Controller is the active-display state machine over a session and a feed.
// Thread-safety: safe for concurrent use; the active state is mutex-guarded
// and the session and feed guard themselves.
type Controller struct {
	sess *session.Session
	feed *feed.Feed

	mu     sync.Mutex
	active State
}

// NewController starts on AllStories.
func NewController(sess *session.Session, f *feed.Feed) *Controller {
	return &Controller{sess: sess, feed: f, active: AllStories}
}

// Active returns the current display state.
func (c *Controller) Active() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Display renders the active state from memory.
func (c *Controller) Display() Display {
	return Render(c.Active(), c.feed.Stories(), c.sess.User())
}

// Navigate makes state active and renders it.
func (c *Controller) Navigate(state State) Display {
	c.mu.Lock()
	c.active = state
	c.mu.Unlock()
	return c.Display()
}

// Dispatch applies a to the session or feed and re-renders the active
// display. On error the display from before the action is returned with the
// error, and nothing has changed, unless only the preference write failed:
// then the new display comes back with the *session.PersistError. Actions that need a user do nothing for
// anonymous viewers.
func (c *Controller) Dispatch(ctx context.Context, a Action) (Display, error) {
	prior := c.Display()

	if a.Kind == ActNavigate {
		return c.Navigate(a.State), nil
	}
	if a.NeedsUser() && !c.sess.LoggedIn() {
		logging.Debug("action ignored without user", "action", a.Kind)
		return prior, nil
	}

	if err := c.apply(ctx, a); err != nil {
		logging.Warn("action failed", "action", a.Kind, "story", a.StoryID, "error", err)
		if session.IsPersistError(err) {
			return c.Display(), err
		}
		return prior, err
	}
	return c.Display(), nil
}

func (c *Controller) apply(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActToggleFavorite:
		_, err := c.sess.ToggleFavorite(ctx, a.StoryID)
		return err
	case ActHide:
		if c.sess.IsHidden(a.StoryID) {
			return nil
		}
		story, err := c.resolve(a.StoryID)
		if err != nil {
			return err
		}
		return c.sess.Hide(story)
	case ActUnhide:
		return c.sess.Unhide(a.StoryID)
	case ActDelete:
		return c.feed.Delete(ctx, a.StoryID, c.sess)
	case ActSubmit:
		_, err := c.feed.Submit(ctx, c.sess, a.Draft)
		return err
	default:
		return fmt.Errorf("unknown action %v", a.Kind)
	}
}

// resolve finds the story to hide: the feed first, then the viewer's own
// collections, which may hold stories beyond the loaded page.
func (c *Controller) resolve(id string) (model.Story, error) {
	if st, ok := c.feed.FindByID(id); ok {
		return st, nil
	}
	if u := c.sess.User(); u != nil {
		for _, coll := range [][]model.Story{u.OwnStories, u.Favorites} {
			if i := model.IndexOf(coll, id); i >= 0 {
				return coll[i], nil
			}
		}
	}
	return model.Story{}, fmt.Errorf("hide %s: %w", id, model.ErrNotFound)
}

// Login authenticates and shows AllStories.
func (c *Controller) Login(ctx context.Context, username, password string) (Display, error) {
	if _, err := c.sess.Authenticate(ctx, username, password); err != nil {
		return c.Display(), err
	}
	return c.Navigate(AllStories), nil
}

// Signup creates an account, signs it in and shows AllStories.
func (c *Controller) Signup(ctx context.Context, username, password, name string) (Display, error) {
	if _, err := c.sess.Signup(ctx, username, password, name); err != nil {
		return c.Display(), err
	}
	return c.Navigate(AllStories), nil
}

// Logout signs out and shows AllStories. The user is dropped even when the
// stored credentials cannot be cleared.
func (c *Controller) Logout() (Display, error) {
	err := c.sess.Logout()
	if err != nil {
		logging.Warn("clear credentials", "error", err)
	}
	return c.Navigate(AllStories), err
}
