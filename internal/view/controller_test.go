package view

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/abelbrown/snooze/internal/api"
	"github.com/abelbrown/snooze/internal/api/apitest"
	"github.com/abelbrown/snooze/internal/feed"
	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/session"
	"github.com/abelbrown/snooze/internal/store"
)

type harness struct {
	srv  *apitest.Server
	st   *store.Store
	sess *session.Session
	feed *feed.Feed
	c    *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer(t)
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	client := srv.Client()
	sess := session.New(client, st)
	f := feed.New(client, 0)
	srv.AddUser("alice", "pw", "Alice")
	return &harness{srv: srv, st: st, sess: sess, feed: f, c: NewController(sess, f)}
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	if err := h.feed.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if _, err := h.c.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

// Scenario: feed [a], favorites []. Toggle twice, membership follows the server.
func TestFavoriteScenario(t *testing.T) {
	h := newHarness(t)
	a := h.srv.AddStory(model.Story{Title: "A", Author: "x", URL: "https://a.example", Username: "bob"})
	h.load(t)
	h.login(t)
	ctx := context.Background()

	d, err := h.c.Dispatch(ctx, ToggleFavorite(a.ID))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if r, _ := d.Find(a.ID); !r.Favorite || !h.sess.IsFavorite(a.ID) {
		t.Error("a should be a favorite")
	}

	d, err = h.c.Dispatch(ctx, ToggleFavorite(a.ID))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if r, _ := d.Find(a.ID); r.Favorite || h.sess.IsFavorite(a.ID) {
		t.Error("a should no longer be a favorite")
	}
	if n := h.srv.Requests(apitest.RouteListStories); n != 1 {
		t.Errorf("feed reloaded: %d list requests", n)
	}
}

// Scenario: hide x with an empty store. AllStories excludes it; Hidden shows it.
func TestHideScenario(t *testing.T) {
	h := newHarness(t)
	x := h.srv.AddStory(model.Story{Title: "X", Author: "x", URL: "https://x.example", Username: "bob"})
	h.load(t)
	h.login(t)
	ctx := context.Background()

	d, err := h.c.Dispatch(ctx, Hide(x.ID))
	if err != nil {
		t.Fatalf("Dispatch(Hide) failed: %v", err)
	}
	stored, _ := h.st.LoadHidden()
	if len(stored) != 1 || stored[0].ID != x.ID {
		t.Fatalf("store = %+v", stored)
	}
	if _, ok := d.Find(x.ID); ok || d.HiddenCount != 1 {
		t.Errorf("AllStories still shows hidden story: %+v", d)
	}

	d, _ = h.c.Dispatch(ctx, NavigateTo(Hidden))
	if r, ok := d.Find(x.ID); !ok || r.HideAction != HideUndo {
		t.Errorf("Hidden view = %+v", d)
	}

	d, err = h.c.Dispatch(ctx, Unhide(x.ID))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Empty() || d.EmptyMessage != "No hidden stories to show!" {
		t.Errorf("Hidden after unhide = %+v", d)
	}
	if h.c.Active() != Hidden {
		t.Error("unhide must not change the active display")
	}
}

func TestHideUnknownStory(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	h.login(t)

	_, err := h.c.Dispatch(context.Background(), Hide("nowhere"))
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHideAlreadyHiddenOutsideFeed(t *testing.T) {
	h := newHarness(t)
	if err := h.st.SaveHidden([]model.Story{{ID: "gone", Title: "Gone"}}); err != nil {
		t.Fatal(err)
	}
	h.load(t)
	h.login(t)
	if !h.sess.IsHidden("gone") {
		t.Fatal("restored hidden list should contain gone")
	}

	d, err := h.c.Dispatch(context.Background(), Hide("gone"))
	if err != nil {
		t.Fatalf("hiding a hidden story should be a no-op, got %v", err)
	}
	if d.HiddenCount != 1 {
		t.Errorf("HiddenCount = %d, want 1", d.HiddenCount)
	}
	stored, _ := h.st.LoadHidden()
	if len(stored) != 1 || stored[0].ID != "gone" {
		t.Errorf("store = %+v", stored)
	}
}

type flakyPrefs struct {
	*store.Store
	fail bool
}

func (p *flakyPrefs) SaveHidden(stories []model.Story) error {
	if p.fail {
		return errors.New("disk full")
	}
	return p.Store.SaveHidden(stories)
}

func TestDeleteRendersWhenHiddenWriteFails(t *testing.T) {
	h := newHarness(t)
	prefs := &flakyPrefs{Store: h.st}
	sess := session.New(h.srv.Client(), prefs)
	c := NewController(sess, h.feed)
	ctx := context.Background()

	mine := h.srv.AddStory(model.Story{Title: "Mine", Author: "a", URL: "https://m.example", Username: "alice"})
	h.load(t)
	if _, err := c.Login(ctx, "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Dispatch(ctx, Hide(mine.ID)); err != nil {
		t.Fatal(err)
	}
	c.Navigate(Hidden)

	prefs.fail = true
	d, err := c.Dispatch(ctx, Delete(mine.ID))
	if !session.IsPersistError(err) {
		t.Fatalf("err = %v, want PersistError", err)
	}
	if _, ok := d.Find(mine.ID); ok {
		t.Errorf("display still shows the deleted story: %+v", d)
	}
	if _, ok := h.feed.FindByID(mine.ID); ok {
		t.Error("feed still holds the deleted story")
	}
	if sess.IsHidden(mine.ID) {
		t.Error("hidden list still holds the deleted story")
	}
}

func TestSubmitAndDelete(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	h.login(t)
	ctx := context.Background()

	d, err := h.c.Dispatch(ctx, Submit(model.NewStory{Title: "Mine", Author: "me", URL: "https://mine.example"}))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(d.Rows) != 1 || !d.Rows[0].CanDelete {
		t.Fatalf("display after submit = %+v", d)
	}
	id := d.Rows[0].Story.ID

	d = h.c.Navigate(OwnStories)
	if _, ok := d.Find(id); !ok {
		t.Error("own stories should include the submit")
	}

	d, err = h.c.Dispatch(ctx, Delete(id))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !d.Empty() || d.State != OwnStories {
		t.Errorf("display after delete = %+v", d)
	}
	if _, ok := h.feed.FindByID(id); ok {
		t.Error("feed still has the story")
	}
}

func TestDispatchErrorKeepsPriorDisplay(t *testing.T) {
	h := newHarness(t)
	a := h.srv.AddStory(model.Story{Title: "A", Author: "x", URL: "https://a.example", Username: "alice"})
	h.load(t)
	h.login(t)
	ctx := context.Background()
	before := h.c.Display()

	h.srv.Fail(apitest.RouteDeleteStory, http.StatusInternalServerError)
	d, err := h.c.Dispatch(ctx, Delete(a.ID))
	if api.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}
	if !equal(ids(d), ids(before)) {
		t.Errorf("display changed on error: %v -> %v", ids(before), ids(d))
	}

	_, err = h.c.Dispatch(ctx, Submit(model.NewStory{Title: "no url", Author: "a"}))
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "url" {
		t.Errorf("err = %v, want url ValidationError", err)
	}
}

func TestAnonymousActionsAreNoops(t *testing.T) {
	h := newHarness(t)
	a := h.srv.AddStory(model.Story{Title: "A", Author: "x", URL: "https://a.example", Username: "bob"})
	h.load(t)
	ctx := context.Background()

	for _, act := range []Action{
		ToggleFavorite(a.ID),
		Hide(a.ID),
		Unhide(a.ID),
		Delete(a.ID),
		Submit(model.NewStory{Title: "t", Author: "a", URL: "https://t.example"}),
	} {
		d, err := h.c.Dispatch(ctx, act)
		if err != nil {
			t.Errorf("%v: err = %v", act.Kind, err)
		}
		if len(d.Rows) != 1 {
			t.Errorf("%v changed the display: %+v", act.Kind, d)
		}
	}
	if h.srv.Requests(apitest.RouteAddFavorite)+h.srv.Requests(apitest.RouteDeleteStory)+h.srv.Requests(apitest.RouteCreateStory) != 0 {
		t.Error("anonymous actions must not reach the service")
	}
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	ctx := context.Background()

	if _, err := h.c.Login(ctx, "alice", "wrong"); !session.IsAuthKind(err, session.InvalidCredentials) {
		t.Errorf("err = %v", err)
	}

	h.c.Navigate(Favorites)
	d, err := h.c.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if d.Viewer != "alice" || d.State != AllStories {
		t.Errorf("after login = %+v", d)
	}

	d, err = h.c.Logout()
	if err != nil {
		t.Fatal(err)
	}
	if d.Viewer != "" || d.State != AllStories {
		t.Errorf("after logout = %+v", d)
	}

	d, err = h.c.Signup(ctx, "dave", "pw", "Dave")
	if err != nil || d.Viewer != "dave" {
		t.Errorf("signup = %+v, %v", d, err)
	}
}
