package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap is every binding the story list responds to. Bindings that depend
// on who is signed in are enabled and disabled by App.syncKeys.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	All       key.Binding
	Favorites key.Binding
	Mine      key.Binding
	Hidden    key.Binding
	Favorite  key.Binding
	Hide      key.Binding
	Delete    key.Binding
	Submit    key.Binding
	Login     key.Binding
	Logout    key.Binding
	Retry     key.Binding
	Help      key.Binding
	Debug     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		All:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		Favorites: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorites")),
		Mine:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mine")),
		Hidden:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hidden")),
		Favorite:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "star")),
		Hide:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hide/unhide")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Submit:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Login:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log in")),
		Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Debug:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Favorite, k.Hide, k.Submit, k.Login, k.Logout, k.Retry, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.All, k.Favorites, k.Mine, k.Hidden},
		{k.Favorite, k.Hide, k.Delete, k.Submit},
		{k.Login, k.Logout, k.Retry, k.Debug, k.Help, k.Quit},
	}
}

// formKeys drive the login, signup and submit forms.
type formKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Send   key.Binding
	Switch key.Binding
	Cancel key.Binding
}

func defaultFormKeys() formKeys {
	return formKeys{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Switch: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/signup")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
