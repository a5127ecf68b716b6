// Package feed holds the global story feed: every submitted story, newest
// first, as last loaded from the story service plus local submits and
// deletes.
package feed

import (
	"context"
	"sync"

	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/model"
)

// Client is the subset of the story service the feed needs.
// *api.Client satisfies it.
type Client interface {
	GetStories(ctx context.Context, limit int) ([]model.Story, error)
	CreateStory(ctx context.Context, token string, draft model.NewStory) (model.Story, error)
	DeleteStory(ctx context.Context, token, storyID string) error
}

// Session is what Submit and Delete need from the signed-in user.
// *session.Session satisfies it.
type Session interface {
	User() *model.User
	AddOwnStory(story model.Story) error
	RemoveStoryEverywhere(id string) error
}

// Feed is the ordered story collection.
// Thread-safety: all methods are safe for concurrent use. Network calls are
// made without holding the lock.
type Feed struct {
	client Client
	limit  int

	mu      sync.RWMutex
	stories []model.Story
	loaded  bool
}

// New creates an empty feed. limit caps Load; <= 0 uses the service default.
func New(client Client, limit int) *Feed {
	return &Feed{client: client, limit: limit, stories: []model.Story{}}
}

// Load replaces the feed with the service's current stories.
func (f *Feed) Load(ctx context.Context) error {
	stories, err := f.client.GetStories(ctx, f.limit)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.stories = model.Clone(stories)
	f.loaded = true
	f.mu.Unlock()

	logging.Info("feed loaded", "stories", len(stories))
	return nil
}

// Stories returns a copy of the feed.
func (f *Feed) Stories() []model.Story {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return model.Clone(f.stories)
}

// Len returns the number of stories in the feed.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.stories)
}

// Loaded reports whether Load has succeeded at least once.
func (f *Feed) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// FindByID looks a story up in the feed.
func (f *Feed) FindByID(id string) (model.Story, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i := model.IndexOf(f.stories, id); i >= 0 {
		return f.stories[i], true
	}
	return model.Story{}, false
}

// Submit validates draft and creates it as the session's user. The story the
// service returns is prepended to the feed and to the user's own stories.
// Invalid drafts fail with *model.ValidationError before any request is
// made. Without a user Submit returns nil, nil.
func (f *Feed) Submit(ctx context.Context, sess Session, draft model.NewStory) (*model.Story, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	user := sess.User()
	if user == nil {
		return nil, nil
	}

	story, err := f.client.CreateStory(ctx, user.Token, draft)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if !model.Contains(f.stories, story.ID) {
		f.stories = model.Prepend(f.stories, story)
	}
	f.mu.Unlock()

	if err := sess.AddOwnStory(story); err != nil {
		return &story, err
	}
	logging.Info("story submitted", "id", story.ID, "host", story.Hostname())
	return &story, nil
}

// Delete removes a story the user owns. On any service error, including a
// story that is already gone, local state is left as it was.
func (f *Feed) Delete(ctx context.Context, id string, sess Session) error {
	user := sess.User()
	if user == nil {
		return nil
	}

	if err := f.client.DeleteStory(ctx, user.Token, id); err != nil {
		return err
	}

	f.mu.Lock()
	f.stories, _ = model.Without(f.stories, id)
	f.mu.Unlock()

	logging.Info("story deleted", "id", id)
	return sess.RemoveStoryEverywhere(id)
}
