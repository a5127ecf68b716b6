package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abelbrown/snooze/internal/api/apitest"
	"github.com/abelbrown/snooze/internal/app"
	"github.com/abelbrown/snooze/internal/config"
	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/view"
)

func testConfig(t *testing.T, srv *apitest.Server, dataDir string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.DataDir = dataDir
	cfg.RequestsPerSecond = 0
	cfg.Retries = 0
	return cfg
}

func newCLI(t *testing.T, cfg *config.Config) (*cli, *bytes.Buffer) {
	t.Helper()
	rt, err := app.Open(cfg)
	if err != nil {
		t.Fatalf("app.Open failed: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	var out bytes.Buffer
	return &cli{rt: rt, cfg: cfg, out: &out}, &out
}

func TestStoriesCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddStory(model.Story{Title: "Hello snooze", Author: "Ann", URL: "https://example.com/hello", Username: "bob"})
	c, out := newCLI(t, testConfig(t, srv, t.TempDir()))

	if err := c.stories(context.Background(), "all"); err != nil {
		t.Fatalf("stories failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"All stories", "Hello snooze (example.com)", "by Ann · posted by bob"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.ContainsAny(got, "★☆") {
		t.Errorf("anonymous output should have no favorite markers:\n%s", got)
	}
}

func TestStoriesCommandBadView(t *testing.T) {
	srv := apitest.NewServer(t)
	c, _ := newCLI(t, testConfig(t, srv, t.TempDir()))
	if err := c.stories(context.Background(), "everything"); err == nil {
		t.Fatal("unknown view should fail")
	}
}

func TestStoryActionNeedsLogin(t *testing.T) {
	srv := apitest.NewServer(t)
	st := srv.AddStory(model.Story{Title: "T", Author: "A", URL: "https://example.com", Username: "bob"})
	c, _ := newCLI(t, testConfig(t, srv, t.TempDir()))

	err := c.storyAction(context.Background(), "favorite", st.ID)
	if !errors.Is(err, errNotSignedIn) {
		t.Fatalf("err = %v, want errNotSignedIn", err)
	}
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("alice", "pw", "Alice")
	st := srv.AddStory(model.Story{Title: "T", Author: "A", URL: "https://example.com", Username: "bob"})
	dir := t.TempDir()
	ctx := context.Background()

	first, out := newCLI(t, testConfig(t, srv, dir))
	if err := first.login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out.String(), "Signed in as alice.") {
		t.Errorf("login output = %q", out.String())
	}
	first.rt.Close()

	second, out := newCLI(t, testConfig(t, srv, dir))
	if err := second.storyAction(ctx, "favorite", st.ID); err != nil {
		t.Fatalf("favorite failed: %v", err)
	}
	if !strings.Contains(out.String(), "added to favorites") {
		t.Errorf("favorite output = %q", out.String())
	}
	if favs := srv.Favorites("alice"); len(favs) != 1 || favs[0] != st.ID {
		t.Errorf("server favorites = %v", favs)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("alice", "pw", "Alice")
	c, _ := newCLI(t, testConfig(t, srv, t.TempDir()))

	if err := c.login(context.Background(), "alice", "nope"); err == nil {
		t.Fatal("wrong password should fail")
	}
}

func TestSubmitDefaultsAuthor(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("alice", "pw", "Alice")
	c, out := newCLI(t, testConfig(t, srv, t.TempDir()))
	ctx := context.Background()

	if err := c.login(ctx, "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := c.submit(ctx, "https://example.com/new", "Brand new", ""); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.Contains(out.String(), "Brand new") {
		t.Errorf("submit output = %q", out.String())
	}

	stories := srv.Stories()
	if len(stories) != 1 {
		t.Fatalf("server has %d stories, want 1", len(stories))
	}
	if stories[0].Author != "Alice" || stories[0].Username != "alice" {
		t.Errorf("story = %+v", stories[0])
	}
}

const testFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Example Feed</title>
<item><title>First post</title><link>https://example.com/1</link></item>
<item><title>Second post</title><link>https://example.com/2</link></item>
</channel></rss>`

func TestImportListsDrafts(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer feedSrv.Close()

	srv := apitest.NewServer(t)
	c, out := newCLI(t, testConfig(t, srv, t.TempDir()))

	if err := c.importFeeds(context.Background(), []string{feedSrv.URL}, 1, false); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "1 entries") || !strings.Contains(got, "First post") {
		t.Errorf("import output:\n%s", got)
	}
	if strings.Contains(got, "Second post") {
		t.Errorf("limit should cut the second entry:\n%s", got)
	}
	if srv.Requests(apitest.RouteCreateStory) != 0 {
		t.Error("listing should not submit")
	}
}

func TestImportSubmitNeedsLogin(t *testing.T) {
	srv := apitest.NewServer(t)
	c, _ := newCLI(t, testConfig(t, srv, t.TempDir()))
	err := c.importFeeds(context.Background(), []string{"https://example.com/feed"}, 1, true)
	if !errors.Is(err, errNotSignedIn) {
		t.Fatalf("err = %v, want errNotSignedIn", err)
	}
}

func TestPrintDisplay(t *testing.T) {
	var buf bytes.Buffer
	printDisplay(&buf, view.Render(view.Favorites, nil, nil))
	if !strings.Contains(buf.String(), view.Favorites.EmptyMessage()) {
		t.Errorf("empty display output = %q", buf.String())
	}

	buf.Reset()
	st := model.Story{ID: "s1", Title: "Mine", Author: "me", URL: "https://example.com", Username: "alice"}
	u := &model.User{Username: "alice", Favorites: []model.Story{st}, OwnStories: []model.Story{st}, Hidden: []model.Story{}}
	printDisplay(&buf, view.Render(view.AllStories, []model.Story{st}, u))
	if !strings.Contains(buf.String(), "★ Mine (example.com) [mine]") {
		t.Errorf("display output = %q", buf.String())
	}
}

func TestPromptPasswordGiven(t *testing.T) {
	got, err := promptPassword("secret")
	if err != nil || got != "secret" {
		t.Errorf("promptPassword = %q, %v", got, err)
	}
}

func TestConfigCommand(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://stories.example.com"
	cfg.DataDir = t.TempDir()
	path := filepath.Join(cfg.DataDir, "config.yaml")

	var out bytes.Buffer
	if err := runConfig(&out, cfg, path, false); err != nil {
		t.Fatalf("runConfig failed: %v", err)
	}
	if !strings.Contains(out.String(), "https://stories.example.com") {
		t.Errorf("printed config = %q", out.String())
	}

	out.Reset()
	if err := runConfig(&out, cfg, path, true); err != nil {
		t.Fatalf("runConfig --write failed: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote "+path) {
		t.Errorf("output = %q", out.String())
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of written config failed: %v", err)
	}
	if loaded.BaseURL != cfg.BaseURL || loaded.DataDir != cfg.DataDir {
		t.Errorf("loaded = %+v", loaded)
	}
}
