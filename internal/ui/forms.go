package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/snooze/internal/model"
	"github.com/abelbrown/snooze/internal/session"
)

type formKind int

const (
	formLogin formKind = iota
	formSignup
	formSubmit
)

func (k formKind) title() string {
	switch k {
	case formSignup:
		return "Create account"
	case formSubmit:
		return "Submit a story"
	default:
		return "Log in"
	}
}

// form is a stack of text inputs with one focused at a time.
type form struct {
	kind   formKind
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
	busy   bool // request in flight; input is frozen
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.PromptStyle = FormPrompt
	ti.TextStyle = FormText
	ti.Cursor.Style = FormPrompt
	ti.CharLimit = limit
	return ti
}

func newPasswordInput() textinput.Model {
	ti := newInput("password", 128)
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	return ti
}

func newForm(kind formKind) *form {
	f := &form{kind: kind}
	switch kind {
	case formLogin:
		f.labels = []string{"username", "password"}
		f.inputs = []textinput.Model{newInput("username", 64), newPasswordInput()}
	case formSignup:
		f.labels = []string{"name", "username", "password"}
		f.inputs = []textinput.Model{newInput("your name", 64), newInput("username", 64), newPasswordInput()}
	case formSubmit:
		f.labels = []string{"author", "title", "url"}
		f.inputs = []textinput.Model{newInput("author", 64), newInput("title", 200), newInput("https://", 2048)}
	}
	f.inputs[0].Focus()
	return f
}

// switchAuth turns a login form into a signup form and back, keeping the
// username.
func (f *form) switchAuth() *form {
	var next *form
	switch f.kind {
	case formLogin:
		next = newForm(formSignup)
		next.inputs[1].SetValue(f.value("username"))
	case formSignup:
		next = newForm(formLogin)
		next.inputs[0].SetValue(f.value("username"))
	default:
		return f
	}
	return next
}

func (f *form) value(label string) string {
	for i, l := range f.labels {
		if l == label {
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

func (f *form) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = (i%n + n) % n
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *form) last() bool {
	return f.focus == len(f.inputs)-1
}

// formResult is what a key press did to the form.
type formResult int

const (
	formEditing formResult = iota
	formCancelled
	formSend
	formSwitched
)

// update routes a key to the form. On formSend the caller validates and
// issues the request.
func (f *form) update(msg tea.KeyMsg, keys formKeys) (formResult, tea.Cmd) {
	if f.busy {
		return formEditing, nil
	}
	switch {
	case key.Matches(msg, keys.Cancel):
		return formCancelled, nil
	case key.Matches(msg, keys.Switch):
		return formSwitched, nil
	case key.Matches(msg, keys.Send):
		if !f.last() {
			return formEditing, f.setFocus(f.focus + 1)
		}
		return formSend, nil
	case key.Matches(msg, keys.Next):
		return formEditing, f.setFocus(f.focus + 1)
	case key.Matches(msg, keys.Prev):
		return formEditing, f.setFocus(f.focus - 1)
	}

	f.err = ""
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return formEditing, cmd
}

// draft builds the story draft from a submit form.
func (f *form) draft() model.NewStory {
	return model.NewStory{
		Author: f.value("author"),
		Title:  f.value("title"),
		URL:    f.value("url"),
	}
}

// validate checks required fields before anything is sent.
func (f *form) validate() error {
	if f.kind == formSubmit {
		return f.draft().Validate()
	}
	for _, l := range f.labels {
		if f.value(l) == "" {
			return &model.ValidationError{Field: l, Reason: "is required"}
		}
	}
	return nil
}

// authMessage turns a login/signup failure into one line for the form.
func authMessage(err error) string {
	var ae *session.AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case session.InvalidCredentials:
			return "Invalid username or password."
		case session.UsernameTaken:
			return "That username is already taken."
		case session.NetworkFailure:
			return "Could not reach the story service."
		}
	}
	return err.Error()
}

// view renders the form as a bordered box.
func (f *form) view(spin string) string {
	var b strings.Builder
	b.WriteString(FormTitle.Render(f.kind.title()))
	b.WriteString("\n")
	for i, in := range f.inputs {
		b.WriteString(FormLabel.Render(f.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	switch {
	case f.busy:
		b.WriteString(spin + " sending…")
	case f.err != "":
		b.WriteString(ErrorStyle.Padding(0).Render(f.err))
	}

	hints := []string{
		StatusBarKey.Render("enter") + StatusBarText.Render(":next/send"),
		StatusBarKey.Render("tab") + StatusBarText.Render(":field"),
		StatusBarKey.Render("esc") + StatusBarText.Render(":cancel"),
	}
	switch f.kind {
	case formLogin:
		hints = append(hints, StatusBarKey.Render("ctrl+t")+StatusBarText.Render(":sign up"))
	case formSignup:
		hints = append(hints, StatusBarKey.Render("ctrl+t")+StatusBarText.Render(":log in"))
	}
	body := lipgloss.JoinVertical(lipgloss.Left, b.String(), "", strings.Join(hints, " "))
	return FormBox.Render(body)
}
