// Command snooze is a terminal client for a Hack-or-Snooze story service.
//
// With no subcommand it starts the TUI. The subcommands run one operation
// each and print the result, for scripts and quick checks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/docopt/docopt-go"

	"github.com/abelbrown/snooze/internal/app"
	"github.com/abelbrown/snooze/internal/config"
	"github.com/abelbrown/snooze/internal/logging"
	"github.com/abelbrown/snooze/internal/otel"
)

const usage = `snooze - a terminal client for Hack or Snooze.

Usage:
    snooze [--config=<path>]
    snooze stories [--config=<path>] [--view=<view>]
    snooze login [--config=<path>] --username=<username> [--password=<password>]
    snooze signup [--config=<path>] --username=<username> --name=<name> [--password=<password>]
    snooze logout [--config=<path>]
    snooze submit [--config=<path>] --url=<url> [--title=<title>] [--author=<author>]
    snooze (favorite|hide|unhide|delete) [--config=<path>] <story_id>
    snooze import [--config=<path>] [--submit] [--limit=<n>] <feed_url>...
    snooze events [--config=<path>] [--tail=<n>] [--kind=<prefix>] [--level=<level>] [--json] [--follow]
    snooze config [--config=<path>] [--write]
    snooze -h | --help
    snooze --version

With no command, snooze opens the interactive story list.

Options:
    -h --help                Show this screen.
    --version                Show version.
    --config=<path>          Config file (default ~/.snooze/config.yaml).
    --view=<view>            all, favorites, mine or hidden [default: all].
    --username=<username>
    --password=<password>    Prompted for when omitted.
    --name=<name>            Display name for a new account.
    --url=<url>              Link to submit.
    --title=<title>          Story title; looked up from the page when omitted.
    --author=<author>        Story author; defaults to your display name.
    --submit                 Submit imported entries instead of listing them.
    --limit=<n>              Entries to take from each feed [default: 10].
    --tail=<n>               Number of recent events to show [default: 50].
    --kind=<prefix>          Only events whose kind starts with prefix.
    --level=<level>          Minimum level: debug, info, warn, error.
    --json                   Print raw JSON lines.
    --follow                 Keep printing new events as they arrive.
    --write                  Save the effective settings to the config file.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], logging.Version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "snooze:", err)
		os.Exit(1)
	}
}

func run(opts docopt.Opts) error {
	path, _ := opts.String("--config")
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.LogDir(), cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "snooze: logging disabled: %v\n", err)
	}
	defer logging.Close()

	if on, _ := opts.Bool("events"); on {
		return runEvents(opts, otel.FilePath(cfg.LogDir()))
	}
	if on, _ := opts.Bool("config"); on {
		write, _ := opts.Bool("--write")
		return runConfig(os.Stdout, cfg, path, write)
	}

	events, err := otel.OpenFile(cfg.LogDir())
	if err != nil {
		logging.Warn("event log disabled", "error", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	cmd := command(opts)
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Msg: cmd})
	defer events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main", Msg: cmd})

	c := &cli{rt: rt, cfg: cfg, out: os.Stdout}
	switch cmd {
	case "stories":
		name, _ := opts.String("--view")
		return c.stories(ctx, name)
	case "login":
		username, _ := opts.String("--username")
		password, _ := opts.String("--password")
		return c.login(ctx, username, password)
	case "signup":
		username, _ := opts.String("--username")
		name, _ := opts.String("--name")
		password, _ := opts.String("--password")
		return c.signup(ctx, username, password, name)
	case "logout":
		return c.logout(ctx)
	case "submit":
		link, _ := opts.String("--url")
		title, _ := opts.String("--title")
		author, _ := opts.String("--author")
		return c.submit(ctx, link, title, author)
	case "favorite", "hide", "unhide", "delete":
		id, _ := opts.String("<story_id>")
		return c.storyAction(ctx, cmd, id)
	case "import":
		urls, _ := opts["<feed_url>"].([]string)
		submit, _ := opts.Bool("--submit")
		limit, err := opts.Int("--limit")
		if err != nil {
			return fmt.Errorf("--limit: %w", err)
		}
		return c.importFeeds(ctx, urls, limit, submit)
	default:
		return runTUI(ctx, cfg, rt, events)
	}
}

// command returns the subcommand docopt matched, or "" for the TUI.
func command(opts docopt.Opts) string {
	for _, name := range []string{
		"stories", "login", "signup", "logout", "submit",
		"favorite", "hide", "unhide", "delete", "import", "events", "config",
	} {
		if on, _ := opts.Bool(name); on {
			return name
		}
	}
	return ""
}
