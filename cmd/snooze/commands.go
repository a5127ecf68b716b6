package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/abelbrown/snooze/internal/app"
	"github.com/abelbrown/snooze/internal/config"
	"github.com/abelbrown/snooze/internal/importer"
	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/session"
	"github.com/abelbrown/snooze/internal/view"
)

var errNotSignedIn = errors.New("not signed in: run 'snooze login' first")

// cli runs one subcommand against a wired runtime.
type cli struct {
	rt  *app.Runtime
	cfg *config.Config
	out io.Writer
}

// start bootstraps and, when needed, insists on a signed-in user.
func (c *cli) start(ctx context.Context, needUser bool) (app.Result, error) {
	res, err := c.rt.Start(ctx)
	if err != nil {
		return res, err
	}
	if needUser && res.User == nil {
		return res, errNotSignedIn
	}
	return res, nil
}

func (c *cli) stories(ctx context.Context, name string) error {
	state, err := view.ParseState(name)
	if err != nil {
		return err
	}
	if _, err := c.start(ctx, false); err != nil {
		return err
	}
	printDisplay(c.out, c.rt.Controller.Navigate(state))
	return nil
}

func (c *cli) login(ctx context.Context, username, password string) error {
	if _, err := c.start(ctx, false); err != nil {
		return err
	}
	password, err := promptPassword(password)
	if err != nil {
		return err
	}
	d, err := c.rt.Controller.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s.\n", d.Viewer)
	return nil
}

func (c *cli) signup(ctx context.Context, username, password, name string) error {
	if _, err := c.start(ctx, false); err != nil {
		return err
	}
	password, err := promptPassword(password)
	if err != nil {
		return err
	}
	d, err := c.rt.Controller.Signup(ctx, username, password, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Account created. Signed in as %s.\n", d.Viewer)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if _, err := c.start(ctx, false); err != nil {
		return err
	}
	if _, err := c.rt.Controller.Logout(); err != nil {
		return fmt.Errorf("logged out, but saved credentials remain: %w", err)
	}
	fmt.Fprintln(c.out, "Logged out.")
	return nil
}

func (c *cli) submit(ctx context.Context, link, title, author string) error {
	res, err := c.start(ctx, true)
	if err != nil {
		return err
	}

	im := importer.New(c.cfg.Timeout)
	if strings.TrimSpace(title) == "" {
		title, err = im.LookupTitle(ctx, link)
		if err != nil {
			return fmt.Errorf("no --title given and the page title could not be read: %w", err)
		}
	}
	if strings.TrimSpace(author) == "" {
		author = res.User.Name
		if author == "" {
			author = res.User.Username
		}
	}

	draft := model.NewStory{Title: title, Author: author, URL: link}
	if _, err := c.rt.Controller.Dispatch(ctx, view.Submit(draft)); err != nil {
		return err
	}
	if st := c.rt.Feed.Stories(); len(st) > 0 {
		fmt.Fprintf(c.out, "Submitted %s: %s\n", st[0].ID, st[0].Title)
	}
	return nil
}

func (c *cli) storyAction(ctx context.Context, verb, id string) error {
	if _, err := c.start(ctx, true); err != nil {
		return err
	}

	var act view.Action
	switch verb {
	case "favorite":
		act = view.ToggleFavorite(id)
	case "hide":
		act = view.Hide(id)
	case "unhide":
		act = view.Unhide(id)
	case "delete":
		act = view.Delete(id)
	default:
		return fmt.Errorf("unknown action %q", verb)
	}

	if _, err := c.rt.Controller.Dispatch(ctx, act); err != nil {
		if !session.IsPersistError(err) {
			return err
		}
		fmt.Fprintf(c.out, "warning: %v\n", err)
	}

	switch verb {
	case "favorite":
		if c.rt.Session.IsFavorite(id) {
			fmt.Fprintf(c.out, "★ %s added to favorites.\n", id)
		} else {
			fmt.Fprintf(c.out, "☆ %s removed from favorites.\n", id)
		}
	case "hide":
		fmt.Fprintf(c.out, "%s hidden.\n", id)
	case "unhide":
		fmt.Fprintf(c.out, "%s restored.\n", id)
	case "delete":
		fmt.Fprintf(c.out, "%s deleted.\n", id)
	}
	return nil
}

func (c *cli) importFeeds(ctx context.Context, urls []string, limit int, submit bool) error {
	if _, err := c.start(ctx, submit); err != nil {
		return err
	}

	im := importer.New(c.cfg.Timeout)
	var failed int
	for _, b := range im.DraftsFrom(ctx, urls) {
		if b.Err != nil {
			failed++
			fmt.Fprintf(c.out, "%s: %v\n", b.Source, b.Err)
			continue
		}
		drafts := b.Drafts
		if limit > 0 && len(drafts) > limit {
			drafts = drafts[:limit]
		}
		fmt.Fprintf(c.out, "%s: %d entries\n", b.Source, len(drafts))

		for _, d := range drafts {
			if !submit {
				fmt.Fprintf(c.out, "  %s\n    %s (by %s)\n", d.Title, d.URL, d.Author)
				continue
			}
			if _, err := c.rt.Controller.Dispatch(ctx, view.Submit(d)); err != nil {
				fmt.Fprintf(c.out, "  ✗ %s: %v\n", d.Title, err)
				continue
			}
			fmt.Fprintf(c.out, "  ✓ %s\n", d.Title)
		}
	}
	if failed == len(urls) && failed > 0 {
		return fmt.Errorf("no feed could be read")
	}
	return nil
}

// runConfig prints the effective settings, or saves them to path.
func runConfig(w io.Writer, cfg *config.Config, path string, write bool) error {
	if write {
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(w, "Wrote %s\n", path)
		return nil
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "# %s\n%s", path, data)
	return nil
}

// printDisplay writes a display as plain text, two lines per story.
func printDisplay(w io.Writer, d view.Display) {
	fmt.Fprintf(w, "%s\n\n", d.State.Title())
	if d.Empty() {
		fmt.Fprintln(w, d.EmptyMessage)
		return
	}
	for _, r := range d.Rows {
		star := " "
		if r.ShowFavorite {
			star = "☆"
			if r.Favorite {
				star = "★"
			}
		}
		var tags []string
		if r.HideAction == view.HideUndo {
			tags = append(tags, "hidden")
		}
		if r.CanDelete {
			tags = append(tags, "mine")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintf(w, "%s %s (%s)%s\n", star, r.Story.Title, r.Hostname, suffix)
		fmt.Fprintf(w, "  %s · by %s · posted by %s\n", r.Story.ID, r.Story.Author, r.Story.Username)
	}
}

// promptPassword returns given, or reads a password from the terminal
// without echo. Piped input is read as one line.
func promptPassword(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
