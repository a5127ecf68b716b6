// Package api is the HTTP client for the Hack-or-Snooze story service.
//
// The client knows the wire format and nothing else: it never caches and never
// touches session state. Callers own what happens to the returned values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/model"
)

// DefaultBaseURL is the public Hack-or-Snooze deployment.
const DefaultBaseURL = "https://hack-or-snooze-v3.herokuapp.com"

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 10 << 20
	maxRetryAfter  = 30 * time.Second
)

// Options configures a Client. Zero values pick defaults, except Retries:
// zero means "no retry".
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables rate limiting
	Retries           int     // extra attempts for GET requests
}

// Client talks to the story service.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retries int
	backoff time.Duration
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		retries: opts.Retries,
		backoff: 500 * time.Millisecond,
	}
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Wire payloads.

type storiesPayload struct {
	Stories []model.Story `json:"stories"`
}

type storyPayload struct {
	Story model.Story `json:"story"`
}

type userWire struct {
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	Favorites []model.Story `json:"favorites"`
	Stories   []model.Story `json:"stories"`
}

type userPayload struct {
	User  userWire `json:"user"`
	Token string   `json:"token,omitempty"`
}

type errorPayload struct {
	Error struct {
		Status  int    `json:"status"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"error"`
}

type tokenBody struct {
	Token string `json:"token"`
}

type createBody struct {
	Token string         `json:"token"`
	Story model.NewStory `json:"story"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type credentialsBody struct {
	User credentials `json:"user"`
}

func (w userWire) toUser(token string) model.User {
	return model.User{
		Username:   w.Username,
		Name:       w.Name,
		CreatedAt:  w.CreatedAt,
		Token:      token,
		Favorites:  model.Clone(w.Favorites),
		OwnStories: model.Clone(w.Stories),
		Hidden:     []model.Story{},
	}
}

// GetStories fetches the global feed, newest first. limit <= 0 uses the server default.
func (c *Client) GetStories(ctx context.Context, limit int) ([]model.Story, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out storiesPayload
	if err := c.do(ctx, http.MethodGet, "/stories", q, nil, &out); err != nil {
		return nil, err
	}
	return model.Clone(out.Stories), nil
}

// CreateStory submits a draft and returns the server's canonical story.
func (c *Client) CreateStory(ctx context.Context, token string, draft model.NewStory) (model.Story, error) {
	var out storyPayload
	body := createBody{Token: token, Story: draft.Normalize()}
	if err := c.do(ctx, http.MethodPost, "/stories", nil, body, &out); err != nil {
		return model.Story{}, err
	}
	return out.Story, nil
}

// DeleteStory removes a story the token's user owns.
func (c *Client) DeleteStory(ctx context.Context, token, storyID string) error {
	return c.do(ctx, http.MethodDelete, "/stories/"+url.PathEscape(storyID), nil, tokenBody{Token: token}, nil)
}

// Signup registers a new account. The returned user carries its token.
func (c *Client) Signup(ctx context.Context, username, password, name string) (model.User, error) {
	body := credentialsBody{User: credentials{Username: username, Password: password, Name: name}}
	var out userPayload
	if err := c.do(ctx, http.MethodPost, "/signup", nil, body, &out); err != nil {
		return model.User{}, err
	}
	return out.User.toUser(out.Token), nil
}

// Login exchanges a username and password for a user and token.
func (c *Client) Login(ctx context.Context, username, password string) (model.User, error) {
	body := credentialsBody{User: credentials{Username: username, Password: password}}
	var out userPayload
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &out); err != nil {
		return model.User{}, err
	}
	return out.User.toUser(out.Token), nil
}

// GetUser fetches a user with an existing token.
func (c *Client) GetUser(ctx context.Context, token, username string) (model.User, error) {
	q := url.Values{"token": {token}}
	var out userPayload
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username), q, nil, &out); err != nil {
		return model.User{}, err
	}
	return out.User.toUser(token), nil
}

// AddFavorite marks a story as favorite and returns the full favorites list.
func (c *Client) AddFavorite(ctx context.Context, token, username, storyID string) ([]model.Story, error) {
	return c.favorite(ctx, http.MethodPost, token, username, storyID)
}

// RemoveFavorite unmarks a story and returns the full favorites list.
func (c *Client) RemoveFavorite(ctx context.Context, token, username, storyID string) ([]model.Story, error) {
	return c.favorite(ctx, http.MethodDelete, token, username, storyID)
}

func (c *Client) favorite(ctx context.Context, method, token, username, storyID string) ([]model.Story, error) {
	path := "/users/" + url.PathEscape(username) + "/favorites/" + url.PathEscape(storyID)
	var out userPayload
	if err := c.do(ctx, method, path, nil, tokenBody{Token: token}, &out); err != nil {
		return nil, err
	}
	return model.Clone(out.User.Favorites), nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do executes a request. GET requests are retried on transport errors, 429
// and 5xx; mutating requests are sent exactly once.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	var last *response
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.retryDelay(attempt, last)); err != nil {
				return &NetworkError{Op: op, Err: err}
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: op, Err: err}
		}

		resp, err := c.roundTrip(ctx, method, endpoint, payload)
		if err != nil {
			lastErr = &NetworkError{Op: op, Err: err}
			last = nil
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}

		if resp.status >= 200 && resp.status < 300 {
			if out == nil {
				return nil
			}
			if err := decodeJSON(resp.body, out); err != nil {
				return fmt.Errorf("%s: decode response: %w", op, err)
			}
			return nil
		}

		lastErr = newServiceError(resp.status, resp.body)
		last = resp
		if !retryable(resp.status) {
			return lastErr
		}
	}

	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "snooze/0.1")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logging.Warn("request failed", "method", method, "url", req.URL.Path, "request_id", requestID, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logging.Debug("request",
		"method", method,
		"url", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"took", time.Since(start),
	)
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// retryDelay doubles the base backoff per attempt; a Retry-After header on
// the previous response wins when present and sane.
func (c *Client) retryDelay(attempt int, last *response) time.Duration {
	delay := c.backoff << (attempt - 1)
	if last == nil || last.status != http.StatusTooManyRequests {
		return delay
	}
	if secs, err := strconv.Atoi(last.header.Get("Retry-After")); err == nil && secs > 0 {
		if d := time.Duration(secs) * time.Second; d <= maxRetryAfter {
			return d
		}
		return maxRetryAfter
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func decodeJSON(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
