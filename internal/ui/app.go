package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/snooze/internal/api"
	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/otel"
	"github.com/abelbrown/snooze/internal/session"
	"github.com/abelbrown/snooze/internal/view"
)

const defaultNoticeDuration = 4 * time.Second

// AppConfig wires the App to the rest of the client. Every function returns
// a tea.Cmd that does the work off the UI goroutine and reports back with
// BootstrapDone, ActionDone or AuthDone.
type AppConfig struct {
	Bootstrap func() tea.Cmd
	Dispatch  func(a view.Action) tea.Cmd
	Login     func(username, password string) tea.Cmd
	Signup    func(username, password, name string) tea.Cmd
	Logout    func() tea.Cmd

	NoticeDuration time.Duration

	Events  *otel.Logger  // nil discards
	History *otel.History // backs the debug overlay; may be nil
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the session or feed. It receives rendered
// displays via messages.
type App struct {
	cfg      AppConfig
	keys     keyMap
	formKeys formKeys
	help     help.Model
	spinner  spinner.Model
	spinning bool

	display view.Display
	cursor  int

	width  int
	height int
	ready  bool

	booting bool
	bootErr error

	pending    map[string]view.ActionKind // story id -> action in flight
	submitting bool

	notice    string
	noticeErr bool
	noticeSeq int

	form      *form
	showHelp  bool
	showDebug bool
}

// NewApp creates an App that starts by bootstrapping.
func NewApp(cfg AppConfig) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusBarKey

	a := App{
		cfg:      cfg,
		keys:     defaultKeyMap(),
		formKeys: defaultFormKeys(),
		help:     help.New(),
		spinner:  sp,
		booting:  true,
		pending:  make(map[string]view.ActionKind),
		display:  view.Render(view.AllStories, nil, nil),
	}
	a.syncKeys()
	return a
}

// Init starts the spinner and the bootstrap.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.startSpinner(), a.bootstrap())
}

func (a *App) bootstrap() tea.Cmd {
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindBootstrapStart, Comp: "ui"})
	if a.cfg.Bootstrap == nil {
		return nil
	}
	return a.cfg.Bootstrap()
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinning = true
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case BootstrapDone:
		return a.handleBootstrap(msg)

	case ActionDone:
		return a.handleAction(msg)

	case AuthDone:
		return a.handleAuth(msg)

	case noticeExpired:
		if msg.seq == a.noticeSeq {
			a.notice = ""
			a.noticeErr = false
		}
		return a, nil

	case tea.KeyMsg:
		if otel.TraceEnabled() {
			a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})
		}
		if a.form != nil {
			return a.handleFormKey(msg)
		}
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleBootstrap(msg BootstrapDone) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.bootErr = msg.Err
		a.syncKeys()
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindBootstrapError, Comp: "ui",
			Status: api.StatusOf(msg.Err), Err: msg.Err.Error()})
		return a, nil
	}

	a.booting = false
	a.bootErr = nil
	a.setDisplay(msg.Display)
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindBootstrapComplete, Comp: "ui",
		View: msg.Display.State.String(), Count: len(msg.Display.Rows)})
	return a, nil
}

func (a App) handleAction(msg ActionDone) (tea.Model, tea.Cmd) {
	act := msg.Action
	if act.StoryID != "" {
		delete(a.pending, act.StoryID)
	}
	if act.Kind == view.ActSubmit {
		a.submitting = false
	}

	if msg.Err != nil {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindActionError, Comp: "ui",
			Action: act.Kind.String(), StoryID: act.StoryID, Status: api.StatusOf(msg.Err), Err: msg.Err.Error()})
		text := actionErrorMessage(act, msg.Err)
		if session.IsPersistError(msg.Err) {
			a.setDisplay(msg.Display)
			return a, a.setNotice(text, true)
		}
		if act.Kind == view.ActSubmit && a.form != nil && a.form.kind == formSubmit {
			a.form.busy = false
			a.form.err = text
			return a, nil
		}
		return a, a.setNotice(text, true)
	}

	a.setDisplay(msg.Display)
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindActionComplete, Comp: "ui",
		Action: act.Kind.String(), StoryID: act.StoryID, View: msg.Display.State.String()})

	switch act.Kind {
	case view.ActSubmit:
		if a.form != nil && a.form.kind == formSubmit {
			a.form = nil
		}
		return a, a.setNotice("Story submitted.", false)
	case view.ActDelete:
		return a, a.setNotice("Story deleted.", false)
	case view.ActHide:
		return a, a.setNotice("Story hidden.", false)
	case view.ActUnhide:
		return a, a.setNotice("Story restored.", false)
	}
	return a, nil
}

func (a App) handleAuth(msg AuthDone) (tea.Model, tea.Cmd) {
	if msg.Logout {
		a.setDisplay(msg.Display)
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLogout, Comp: "ui"})
		if msg.Err != nil {
			return a, a.setNotice("Logged out, but saved credentials could not be cleared.", true)
		}
		return a, a.setNotice("Logged out.", false)
	}

	if msg.Err != nil {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindAuthError, Comp: "ui",
			Status: api.StatusOf(msg.Err), Err: msg.Err.Error()})
		if a.form != nil {
			a.form.busy = false
			a.form.err = authMessage(msg.Err)
			return a, nil
		}
		return a, a.setNotice(authMessage(msg.Err), true)
	}

	a.form = nil
	a.setDisplay(msg.Display)
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAuthComplete, Comp: "ui", Msg: msg.Display.Viewer})
	return a, a.setNotice("Signed in as "+msg.Display.Viewer+".", false)
}

// handleKey processes keyboard input on the story list.
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}
	if key.Matches(msg, a.keys.Debug) {
		a.showDebug = !a.showDebug
		return a, nil
	}
	if a.showDebug {
		return a, nil
	}
	if key.Matches(msg, a.keys.Help) {
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	}

	if a.booting {
		if key.Matches(msg, a.keys.Retry) {
			a.bootErr = nil
			a.syncKeys()
			return a, tea.Batch(a.startSpinner(), a.bootstrap())
		}
		return a, nil
	}

	n := len(a.display.Rows)
	switch {
	case key.Matches(msg, a.keys.Down):
		if a.cursor < n-1 {
			a.cursor++
		}
		return a, nil
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case key.Matches(msg, a.keys.Top):
		a.cursor = 0
		return a, nil
	case key.Matches(msg, a.keys.Bottom):
		if n > 0 {
			a.cursor = n - 1
		}
		return a, nil

	case key.Matches(msg, a.keys.All):
		return a, a.dispatch(view.NavigateTo(view.AllStories))
	case key.Matches(msg, a.keys.Favorites):
		return a, a.dispatch(view.NavigateTo(view.Favorites))
	case key.Matches(msg, a.keys.Mine):
		return a, a.dispatch(view.NavigateTo(view.OwnStories))
	case key.Matches(msg, a.keys.Hidden):
		return a, a.dispatch(view.NavigateTo(view.Hidden))

	case key.Matches(msg, a.keys.Favorite):
		if row, ok := a.selected(); ok && row.ShowFavorite {
			return a, a.storyAction(view.ToggleFavorite(row.Story.ID))
		}
		return a, nil
	case key.Matches(msg, a.keys.Hide):
		row, ok := a.selected()
		if !ok {
			return a, nil
		}
		switch row.HideAction {
		case view.HideShow:
			return a, a.storyAction(view.Hide(row.Story.ID))
		case view.HideUndo:
			return a, a.storyAction(view.Unhide(row.Story.ID))
		}
		return a, nil
	case key.Matches(msg, a.keys.Delete):
		if row, ok := a.selected(); ok && row.CanDelete {
			return a, a.storyAction(view.Delete(row.Story.ID))
		}
		return a, nil

	case key.Matches(msg, a.keys.Submit):
		if a.submitting {
			return a, nil
		}
		a.form = newForm(formSubmit)
		return a, textinput.Blink
	case key.Matches(msg, a.keys.Login):
		a.form = newForm(formLogin)
		return a, textinput.Blink
	case key.Matches(msg, a.keys.Logout):
		if a.cfg.Logout == nil {
			return a, nil
		}
		return a, a.cfg.Logout()
	}

	return a, nil
}

func (a App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	res, cmd := a.form.update(msg, a.formKeys)
	switch res {
	case formCancelled:
		a.form = nil
		return a, nil
	case formSwitched:
		a.form = a.form.switchAuth()
		return a, textinput.Blink
	case formSend:
		return a, a.send()
	}
	return a, cmd
}

// send validates the open form and issues its request.
func (a *App) send() tea.Cmd {
	f := a.form
	if err := f.validate(); err != nil {
		f.err = err.Error()
		return nil
	}
	f.err = ""

	switch f.kind {
	case formLogin:
		if a.cfg.Login == nil {
			return nil
		}
		f.busy = true
		return tea.Batch(a.startSpinner(), a.cfg.Login(f.value("username"), f.value("password")))
	case formSignup:
		if a.cfg.Signup == nil {
			return nil
		}
		f.busy = true
		return tea.Batch(a.startSpinner(), a.cfg.Signup(f.value("username"), f.value("password"), f.value("name")))
	case formSubmit:
		f.busy = true
		a.submitting = true
		act := view.Submit(f.draft())
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindActionStart, Comp: "ui", Action: act.Kind.String()})
		return tea.Batch(a.startSpinner(), a.dispatch(act))
	}
	return nil
}

// storyAction starts an action on a story unless one is already in flight
// for it.
func (a *App) storyAction(act view.Action) tea.Cmd {
	if prev, busy := a.pending[act.StoryID]; busy {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindActionDropped, Comp: "ui",
			Action: act.Kind.String(), StoryID: act.StoryID, Msg: "pending " + prev.String()})
		return nil
	}
	a.pending[act.StoryID] = act.Kind
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindActionStart, Comp: "ui",
		Action: act.Kind.String(), StoryID: act.StoryID})
	return tea.Batch(a.startSpinner(), a.dispatch(act))
}

func (a *App) dispatch(act view.Action) tea.Cmd {
	if a.cfg.Dispatch == nil {
		return nil
	}
	return a.cfg.Dispatch(act)
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

// busy reports whether anything is waiting on the network.
func (a App) busy() bool {
	return a.booting || len(a.pending) > 0 || a.submitting || (a.form != nil && a.form.busy)
}

// setDisplay adopts a new display. The cursor stays on the same story when
// it is still shown; switching state resets it to the top.
func (a *App) setDisplay(d view.Display) {
	var selectedID string
	if row, ok := a.selected(); ok && d.State == a.display.State {
		selectedID = row.Story.ID
	}
	prevCursor := a.cursor

	a.display = d
	a.cursor = 0
	if selectedID != "" {
		a.cursor = prevCursor
		for i, r := range d.Rows {
			if r.Story.ID == selectedID {
				a.cursor = i
				break
			}
		}
	}
	if a.cursor >= len(d.Rows) {
		a.cursor = len(d.Rows) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	a.syncKeys()
}

func (a App) selected() (view.Row, bool) {
	if a.cursor < 0 || a.cursor >= len(a.display.Rows) {
		return view.Row{}, false
	}
	return a.display.Rows[a.cursor], true
}

// syncKeys enables the bindings that make sense for the current viewer.
func (a *App) syncKeys() {
	viewer := a.display.Viewer != ""
	ready := !a.booting

	a.keys.Favorite.SetEnabled(ready && viewer)
	a.keys.Hide.SetEnabled(ready && viewer)
	a.keys.Delete.SetEnabled(ready && viewer)
	a.keys.Submit.SetEnabled(ready && viewer)
	a.keys.Logout.SetEnabled(ready && viewer)
	a.keys.Login.SetEnabled(ready && !viewer)
	a.keys.Hidden.SetEnabled(ready && viewer && a.display.HiddenCount > 0)
	a.keys.Retry.SetEnabled(a.booting && a.bootErr != nil)
}

func (a *App) setNotice(text string, isErr bool) tea.Cmd {
	a.noticeSeq++
	seq := a.noticeSeq
	a.notice = text
	a.noticeErr = isErr

	d := a.cfg.NoticeDuration
	if d <= 0 {
		d = defaultNoticeDuration
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return noticeExpired{seq: seq} })
}

// actionErrorMessage turns a failed action into one line for the user.
func actionErrorMessage(act view.Action, err error) string {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case session.IsPersistError(err):
		return fmt.Sprintf("Could not save hidden stories after %s: %v", act.Kind, errors.Unwrap(err))
	case errors.Is(err, model.ErrNotFound):
		return "That story is no longer available."
	case api.IsNetwork(err):
		return fmt.Sprintf("Could not %s: the story service is unreachable.", act.Kind)
	}
	if status := api.StatusOf(err); status != 0 {
		return fmt.Sprintf("Could not %s: the story service answered %d.", act.Kind, status)
	}
	return fmt.Sprintf("Could not %s: %v", act.Kind, err)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		overlay := debugOverlay(a.cfg.History, a.cfg.Events.RunID(), a.width, a.height-1)
		if overlay == "" {
			overlay = HelpStyle.Render("No event buffer attached.")
		}
		body := lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, overlay)
		return body + "\n" + debugStatusBar(a.width)
	}

	header := RenderHeader(a.display, a.width)

	var footer []string
	if a.notice != "" {
		style := NoticeStyle
		if a.noticeErr {
			style = ErrorStyle
		}
		footer = append(footer, style.Render(truncate(a.notice, a.width-2)))
	}
	if a.showHelp {
		footer = append(footer, a.help.View(a.keys))
	} else {
		status := ""
		if a.busy() && !a.booting {
			status = a.spinner.View() + " working"
		}
		footer = append(footer, RenderStatusBar(a.display, a.cursor, a.width, status, a.help.View(a.keys)))
	}
	foot := strings.Join(footer, "\n")

	bodyHeight := a.height - lipgloss.Height(header) - lipgloss.Height(foot)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	switch {
	case a.booting:
		lines := []string{a.spinner.View() + " Loading stories…"}
		if a.bootErr != nil {
			lines = append(lines, ErrorStyle.Render("Could not load stories: "+a.bootErr.Error()),
				StatusBarText.Render("Press r to retry, q to quit."))
		}
		body = HelpStyle.Render(strings.Join(lines, "\n"))
	case a.form != nil:
		body = lipgloss.Place(a.width, bodyHeight, lipgloss.Center, lipgloss.Center, a.form.view(a.spinner.View()))
	default:
		body = RenderStream(a.display, a.cursor, a.pending, a.width, bodyHeight)
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return header + "\n" + body + "\n" + foot
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Display returns the display being drawn (for testing).
func (a App) Display() view.Display {
	return a.display
}
