// Package apitest runs an in-memory fake of the Hack-or-Snooze story service.
//
// It implements the routes snooze uses, issues real HS256 tokens, counts
// requests per route and can be told to fail the next call on a route.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abelbrown/snooze/internal/api"
	"github.com/abelbrown/snooze/internal/model"
)

// Route names, usable with Requests and Fail.
const (
	RouteListStories    = "GET /stories"
	RouteCreateStory    = "POST /stories"
	RouteDeleteStory    = "DELETE /stories/{id}"
	RouteSignup         = "POST /signup"
	RouteLogin          = "POST /login"
	RouteGetUser        = "GET /users/{username}"
	RouteAddFavorite    = "POST /users/{username}/favorites/{storyId}"
	RouteRemoveFavorite = "DELETE /users/{username}/favorites/{storyId}"
	signingSecret       = "apitest-secret"
	defaultStoriesLimit = 25
)

type account struct {
	username  string
	password  string
	name      string
	createdAt time.Time
	favorites []string
}

// Server is the fake story service.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account
	stories  []model.Story // newest first
	counts   map[string]int
	faults   map[string][]int
	nextID   int
}

// NewServer starts a fake service that shuts down with the test.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[string]*account),
		counts:   make(map[string]int),
		faults:   make(map[string][]int),
	}

	mux := http.NewServeMux()
	routes := map[string]http.HandlerFunc{
		RouteListStories:    s.listStories,
		RouteCreateStory:    s.createStory,
		RouteDeleteStory:    s.deleteStory,
		RouteSignup:         s.signup,
		RouteLogin:          s.login,
		RouteGetUser:        s.getUser,
		RouteAddFavorite:    s.addFavorite,
		RouteRemoveFavorite: s.removeFavorite,
	}
	for pattern, h := range routes {
		mux.HandleFunc(pattern, s.track(pattern, h))
	}

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Client returns an api.Client pointed at the fake, without retries or rate limits.
func (s *Server) Client() *api.Client {
	return api.New(api.Options{BaseURL: s.URL, Timeout: 5 * time.Second})
}

// AddUser registers an account directly and returns a valid token for it.
func (s *Server) AddUser(username, password, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = &account{
		username:  username,
		password:  password,
		name:      name,
		createdAt: time.Now().UTC(),
		favorites: []string{},
	}
	return issueToken(username)
}

// Token returns a fresh valid token for username.
func (s *Server) Token(username string) string {
	return issueToken(username)
}

// AddStory inserts a story at the front of the feed, assigning an ID if empty.
func (s *Server) AddStory(st model.Story) model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = s.newID()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	s.stories = model.Prepend(s.stories, st)
	return st
}

// RemoveStory deletes a story as if another client had done it.
func (s *Server) RemoveStory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories, _ = model.Without(s.stories, id)
}

// Stories returns the server-side feed.
func (s *Server) Stories() []model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Clone(s.stories)
}

// Favorites returns the favorite story ids of username.
func (s *Server) Favorites(username string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	if !ok {
		return nil
	}
	return append([]string(nil), acct.favorites...)
}

// Requests returns how many requests hit route.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[route]
}

// Fail makes the next request on route answer with status.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = append(s.faults[route], status)
}

func (s *Server) track(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[route]++
		var fault int
		if q := s.faults[route]; len(q) > 0 {
			fault, s.faults[route] = q[0], q[1:]
		}
		s.mu.Unlock()

		if fault != 0 {
			writeError(w, fault, "injected failure")
			return
		}
		h(w, r)
	}
}

func (s *Server) newID() string {
	s.nextID++
	return fmt.Sprintf("story-%d", s.nextID)
}

// Handlers. Each takes s.mu for the duration of its state access.

func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	limit := defaultStoriesLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	s.mu.Lock()
	stories := model.Clone(s.stories)
	s.mu.Unlock()
	if len(stories) > limit {
		stories = stories[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"stories": stories})
}

func (s *Server) createStory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string         `json:"token"`
		Story model.NewStory `json:"story"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	username, ok := s.authorize(w, body.Token)
	if !ok {
		return
	}
	if body.Story.Title == "" || body.Story.Author == "" || body.Story.URL == "" {
		writeError(w, http.StatusBadRequest, "story requires title, author and url")
		return
	}
	story := s.AddStory(model.Story{
		Title:    body.Story.Title,
		Author:   body.Story.Author,
		URL:      body.Story.URL,
		Username: username,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"story": story})
}

func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	username, ok := s.authorize(w, body.Token)
	if !ok {
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.stories, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "no such story: "+id)
		return
	}
	story := s.stories[i]
	if story.Username != username {
		writeError(w, http.StatusForbidden, "only the poster may delete a story")
		return
	}
	s.stories, _ = model.Without(s.stories, id)
	for _, acct := range s.accounts {
		acct.favorites = removeID(acct.favorites, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "deleted", "story": story})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Name     string `json:"name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.User.Username == "" || body.User.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[body.User.Username]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	token := s.AddUser(body.User.Username, body.User.Password, body.User.Name)
	s.writeUser(w, http.StatusCreated, body.User.Username, token)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[body.User.Username]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no such user")
		return
	}
	if acct.password != body.User.Password {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	s.writeUser(w, http.StatusOK, acct.username, issueToken(acct.username))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	username, ok := s.authorize(w, r.URL.Query().Get("token"))
	if !ok {
		return
	}
	if username != r.PathValue("username") {
		writeError(w, http.StatusUnauthorized, "token does not match user")
		return
	}
	s.writeUser(w, http.StatusOK, username, "")
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	s.toggleFavorite(w, r, true)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	s.toggleFavorite(w, r, false)
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request, add bool) {
	var body struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	username, ok := s.authorize(w, body.Token)
	if !ok {
		return
	}
	if username != r.PathValue("username") {
		writeError(w, http.StatusUnauthorized, "token does not match user")
		return
	}

	id := r.PathValue("storyId")
	s.mu.Lock()
	if !model.Contains(s.stories, id) {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "no such story: "+id)
		return
	}
	acct := s.accounts[username]
	acct.favorites = removeID(acct.favorites, id)
	if add {
		acct.favorites = append(acct.favorites, id)
	}
	s.mu.Unlock()

	s.writeUser(w, http.StatusOK, username, "")
}

// authorize validates token and returns its username, writing 401 on failure.
func (s *Server) authorize(w http.ResponseWriter, token string) (string, bool) {
	username, err := parseToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}
	s.mu.Lock()
	_, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return "", false
	}
	return username, true
}

func (s *Server) writeUser(w http.ResponseWriter, status int, username, token string) {
	s.mu.Lock()
	acct := s.accounts[username]
	favorites := []model.Story{}
	for _, id := range acct.favorites {
		if i := model.IndexOf(s.stories, id); i >= 0 {
			favorites = append(favorites, s.stories[i])
		}
	}
	own := []model.Story{}
	for _, st := range s.stories {
		if st.Username == username {
			own = append(own, st)
		}
	}
	user := map[string]any{
		"username":  acct.username,
		"name":      acct.name,
		"createdAt": acct.createdAt,
		"favorites": favorites,
		"stories":   own,
	}
	s.mu.Unlock()

	payload := map[string]any{"user": user}
	if token != "" {
		payload["token"] = token
	}
	writeJSON(w, status, payload)
}

func issueToken(username string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"iat":      time.Now().Unix(),
	})
	signed, err := tok.SignedString([]byte(signingSecret))
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

func parseToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(signingSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", fmt.Errorf("token has no username")
	}
	return username, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"status":  status,
			"title":   http.StatusText(status),
			"message": msg,
		},
	})
}
