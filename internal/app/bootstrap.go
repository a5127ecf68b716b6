// Package app wires the state layer together and runs the startup sequence:
// restore the saved session, load the feed, then hand over to a front-end.
package app

import (
	"context"
	"fmt"

	"github.com/abelbrown/snooze/internal/api"
	"github.com/abelbrown/snooze/internal/config"
	"github.com/abelbrown/snooze/internal/feed"
	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/session"
	"github.com/abelbrown/snooze/internal/store"
	"github.com/abelbrown/snooze/internal/view"
)

// Credentials reads the persisted login. *store.Store satisfies it.
type Credentials interface {
	Credentials() (username, token string, err error)
}

// Deps are the pieces Start drives.
type Deps struct {
	Credentials Credentials
	Session     *session.Session
	Feed        *feed.Feed
}

// Result describes how startup went.
type Result struct {
	User     *model.User // nil when the viewer is anonymous
	Restored bool
}

// ShowHidden reports whether the hidden-stories view should be offered.
func (r Result) ShowHidden() bool {
	return r.User != nil && len(r.User.Hidden) > 0
}

// Start restores any saved session, then loads the feed. Each step blocks
// the next. A failed restore is silent and leaves the viewer anonymous; a
// failed feed load is returned and must keep the first render from
// happening.
func Start(ctx context.Context, d Deps) (Result, error) {
	var res Result

	username, token, err := d.Credentials.Credentials()
	if err != nil {
		logging.Warn("read saved credentials", "error", err)
	}
	if token != "" {
		if u := d.Session.Restore(ctx, token, username); u != nil {
			res.User = u
			res.Restored = true
		}
	}

	if err := d.Feed.Load(ctx); err != nil {
		logging.Error("initial feed load failed", "error", err)
		return res, fmt.Errorf("load stories: %w", err)
	}

	logging.Info("bootstrap complete", "restored", res.Restored, "stories", d.Feed.Len())
	return res, nil
}

// Runtime is the fully wired application.
type Runtime struct {
	Store      *store.Store
	Client     *api.Client
	Session    *session.Session
	Feed       *feed.Feed
	Controller *view.Controller
}

// Open builds a Runtime from cfg. Close releases it.
func Open(cfg *config.Config) (*Runtime, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	return wire(st, api.New(cfg.APIOptions()), cfg.FeedLimit), nil
}

func wire(st *store.Store, client *api.Client, feedLimit int) *Runtime {
	sess := session.New(client, st)
	f := feed.New(client, feedLimit)
	return &Runtime{
		Store:      st,
		Client:     client,
		Session:    sess,
		Feed:       f,
		Controller: view.NewController(sess, f),
	}
}

// Start runs the startup sequence on the runtime's pieces.
func (r *Runtime) Start(ctx context.Context) (Result, error) {
	return Start(ctx, Deps{Credentials: r.Store, Session: r.Session, Feed: r.Feed})
}

// Close releases the preference store.
func (r *Runtime) Close() error {
	return r.Store.Close()
}
