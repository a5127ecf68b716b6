// Package importer turns RSS/Atom feeds and web pages into story drafts.
//
// It fetches and parses only. Nothing is submitted here: callers decide
// which drafts to post.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/model"
)

// maxConcurrentFetches limits parallel feed fetches.
const maxConcurrentFetches = 5

const (
	userAgent     = "snooze/0.1 (+https://github.com/abelbrown/snooze)"
	maxTitleRunes = 200
	maxPageBytes  = 2 << 20
)

// ErrNoTitle is returned by LookupTitle when the page has no usable title.
var ErrNoTitle = errors.New("page has no title")

// Importer fetches feeds and pages.
type Importer struct {
	client *http.Client
}

// New creates an Importer with the given HTTP client timeout.
func New(timeout time.Duration) *Importer {
	return &Importer{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Batch is the outcome for one feed URL.
type Batch struct {
	Source string
	Drafts []model.NewStory
	Err    error
}

// Drafts fetches feedURL and converts every entry to a draft. Entries that
// would not pass validation and repeated links are dropped.
func (im *Importer) Drafts(ctx context.Context, feedURL string) ([]model.NewStory, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	body, err := im.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	seen := make(map[string]bool, len(feed.Items))
	drafts := make([]model.NewStory, 0, len(feed.Items))
	for _, item := range feed.Items {
		d := convertFeedItem(item, feed).Normalize()
		if d.Validate() != nil || seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		drafts = append(drafts, d)
	}

	logging.Debug("feed imported", "url", feedURL, "entries", len(feed.Items), "drafts", len(drafts))
	return drafts, nil
}

// DraftsFrom fetches several feeds in parallel. Results are in input order;
// a failing feed reports its error in its own Batch and does not stop the
// others.
func (im *Importer) DraftsFrom(ctx context.Context, urls []string) []Batch {
	out := make([]Batch, len(urls))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for i, u := range urls {
		g.Go(func() error {
			out[i].Source = u
			if ctx.Err() != nil {
				out[i].Err = ctx.Err()
				return nil
			}
			out[i].Drafts, out[i].Err = im.Drafts(ctx, u)
			return nil // never fail the group - errors reported per-feed
		})
	}

	_ = g.Wait()
	return out
}

// LookupTitle fetches a page and returns its og:title, falling back to
// <title>.
func (im *Importer) LookupTitle(ctx context.Context, pageURL string) (string, error) {
	body, err := im.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := cleanTitle(og); title != "" {
			return title, nil
		}
	}
	if title := cleanTitle(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}
	return "", ErrNoTitle
}

func (im *Importer) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	return resp.Body, nil
}

// convertFeedItem maps an entry to a draft. The author falls back to the
// feed's author and then to the feed title.
func convertFeedItem(item *gofeed.Item, feed *gofeed.Feed) model.NewStory {
	author := ""
	switch {
	case item.Author != nil && item.Author.Name != "":
		author = item.Author.Name
	case len(item.Authors) > 0 && item.Authors[0] != nil:
		author = item.Authors[0].Name
	case feed.Author != nil && feed.Author.Name != "":
		author = feed.Author.Name
	}
	if strings.TrimSpace(author) == "" {
		author = feed.Title
	}

	return model.NewStory{
		Title:  cleanTitle(item.Title),
		Author: author,
		URL:    item.Link,
	}
}

// cleanTitle collapses whitespace and caps the length.
func cleanTitle(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "), maxTitleRunes)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
// Uses rune-aware slicing to avoid breaking UTF-8 characters.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
