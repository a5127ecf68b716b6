// Package session holds the signed-in user and the three collections that
// belong to them: favorites, own stories and hidden stories.
//
// Favorites are server-authoritative and replaced wholesale after every
// toggle. Hidden stories never leave the machine; every change is written
// through to the preference store before it is visible in memory.
package session

import (
	"context"
	"sync"

	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/model"
)

// Client is the subset of the story service a session needs.
// *api.Client satisfies it.
type Client interface {
	Login(ctx context.Context, username, password string) (model.User, error)
	Signup(ctx context.Context, username, password, name string) (model.User, error)
	GetUser(ctx context.Context, token, username string) (model.User, error)
	AddFavorite(ctx context.Context, token, username, storyID string) ([]model.Story, error)
	RemoveFavorite(ctx context.Context, token, username, storyID string) ([]model.Story, error)
}

// Prefs is the local preference store. *store.Store satisfies it.
type Prefs interface {
	LoadHidden() ([]model.Story, error)
	SaveHidden(stories []model.Story) error
	SaveCredentials(username, token string) error
	ClearCredentials() error
}

// Session is the explicit current-user object.
// Thread-safety: all methods are safe for concurrent use. Network calls are
// made without holding the lock.
type Session struct {
	client Client
	prefs  Prefs

	mu   sync.RWMutex
	user *model.User // nil when anonymous
}

// New creates an anonymous session.
func New(client Client, prefs Prefs) *Session {
	return &Session{client: client, prefs: prefs}
}

// Authenticate logs in with a username and password. On success the session
// holds the returned user and the credentials are persisted.
func (s *Session) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.client.Login(ctx, username, password)
	if err != nil {
		logging.Warn("login failed", "username", username, "error", err)
		return nil, classifyAuth(err)
	}
	return s.adopt(u, true), nil
}

// Signup registers a new account and signs it in.
func (s *Session) Signup(ctx context.Context, username, password, name string) (*model.User, error) {
	u, err := s.client.Signup(ctx, username, password, name)
	if err != nil {
		logging.Warn("signup failed", "username", username, "error", err)
		return nil, classifyAuth(err)
	}
	return s.adopt(u, true), nil
}

// Restore re-authenticates with a stored token. It returns nil on any
// failure: a missing or expired session is an expected outcome. An empty
// username is read from the token's claims.
func (s *Session) Restore(ctx context.Context, token, username string) *model.User {
	if token == "" {
		return nil
	}
	if username == "" {
		var err error
		if username, err = usernameFromToken(token); err != nil {
			logging.Debug("restore skipped", "error", err)
			return nil
		}
	}

	u, err := s.client.GetUser(ctx, token, username)
	if err != nil {
		logging.Info("session not restored", "username", username, "error", err)
		return nil
	}
	u.Token = token
	return s.adopt(u, false)
}

// adopt installs u as the current user with hidden stories from the
// preference store.
func (s *Session) adopt(u model.User, persist bool) *model.User {
	hidden, err := s.prefs.LoadHidden()
	if err != nil {
		logging.Warn("load hidden stories", "error", err)
		hidden = nil
	}
	u.Hidden = model.Clone(hidden)
	if u.Favorites == nil {
		u.Favorites = []model.Story{}
	}
	if u.OwnStories == nil {
		u.OwnStories = []model.Story{}
	}

	if persist {
		if err := s.prefs.SaveCredentials(u.Username, u.Token); err != nil {
			logging.Warn("save credentials", "error", err)
		}
	}

	s.mu.Lock()
	s.user = &u
	snapshot := s.user.Clone()
	s.mu.Unlock()

	logging.Info("signed in", "username", u.Username, "favorites", len(u.Favorites), "hidden", len(u.Hidden))
	return snapshot
}

// Logout drops the current user and forgets the persisted credentials.
// Hidden stories stay in the preference store.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return s.prefs.ClearCredentials()
}

// User returns a deep copy of the current user, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// LoggedIn reports whether a user is signed in.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Username returns the signed-in username, or "".
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Username
}

// IsFavorite reports whether id is among the user's favorites.
func (s *Session) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && model.Contains(s.user.Favorites, id)
}

// IsHidden reports whether id is among the user's hidden stories.
func (s *Session) IsHidden(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && model.Contains(s.user.Hidden, id)
}

// ToggleFavorite adds id to the favorites when absent and removes it when
// present. The local list is replaced by the server's answer. On error the
// session is unchanged. Without a user it returns nil, nil.
func (s *Session) ToggleFavorite(ctx context.Context, id string) ([]model.Story, error) {
	s.mu.RLock()
	if s.user == nil {
		s.mu.RUnlock()
		return nil, nil
	}
	username, token := s.user.Username, s.user.Token
	remove := model.Contains(s.user.Favorites, id)
	s.mu.RUnlock()

	var (
		favorites []model.Story
		err       error
	)
	if remove {
		favorites, err = s.client.RemoveFavorite(ctx, token, username, id)
	} else {
		favorites, err = s.client.AddFavorite(ctx, token, username, id)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The user may have signed out while the request was in flight.
	if s.user == nil || s.user.Username != username {
		return model.Clone(favorites), nil
	}
	s.user.Favorites = model.Clone(favorites)
	return model.Clone(favorites), nil
}

// Hide adds story to the hidden list. Hiding a hidden story is a no-op.
func (s *Session) Hide(story model.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || model.Contains(s.user.Hidden, story.ID) {
		return nil
	}
	next := append(model.Clone(s.user.Hidden), story)
	return s.commitHidden(next)
}

// Unhide removes id from the hidden list. Unhiding a visible story is a no-op.
func (s *Session) Unhide(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	next, ok := model.Without(s.user.Hidden, id)
	if !ok {
		return nil
	}
	return s.commitHidden(next)
}

// commitHidden persists next and only then installs it. Caller holds s.mu.
func (s *Session) commitHidden(next []model.Story) error {
	if err := s.prefs.SaveHidden(next); err != nil {
		return err
	}
	s.user.Hidden = next
	return nil
}

// AddOwnStory puts a freshly created story at the front of the user's own
// stories.
func (s *Session) AddOwnStory(story model.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || model.Contains(s.user.OwnStories, story.ID) {
		return nil
	}
	s.user.OwnStories = model.Prepend(s.user.OwnStories, story)
	return nil
}

// RemoveStoryEverywhere drops id from favorites, own stories and hidden.
// Hidden is re-persisted only when it contained id. The story is already
// gone on the server, so memory always drops it; a failed write comes back
// as *PersistError.
func (s *Session) RemoveStoryEverywhere(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	s.user.Favorites, _ = model.Without(s.user.Favorites, id)
	s.user.OwnStories, _ = model.Without(s.user.OwnStories, id)
	next, ok := model.Without(s.user.Hidden, id)
	if !ok {
		return nil
	}
	s.user.Hidden = next
	if err := s.prefs.SaveHidden(next); err != nil {
		logging.Warn("persist hidden after delete", "story", id, "error", err)
		return &PersistError{Err: err}
	}
	return nil
}
