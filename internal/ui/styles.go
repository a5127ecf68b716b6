package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorStar      = lipgloss.Color("220") // Yellow
	colorError     = lipgloss.Color("196")
)

// SelectedItem style for the story under the cursor.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// NormalItem style for unselected stories.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// PendingItem dims a story while an action on it is in flight.
var PendingItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true)

// HostBadge style for the "(hostname)" suffix.
var HostBadge = lipgloss.NewStyle().
	Foreground(colorMuted)

// MetaItem style for the "by author / posted by user" line.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StarOn and StarOff render the favorite marker.
var (
	StarOn  = lipgloss.NewStyle().Foreground(colorStar).Bold(true)
	StarOff = lipgloss.NewStyle().Foreground(colorMuted)
)

// OwnMarker flags stories the viewer may delete.
var OwnMarker = lipgloss.NewStyle().
	Foreground(colorSuccess)

// Tab styles for the state header.
var (
	TabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(colorPrimary).
			Padding(0, 1)
	TabInactive = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Padding(0, 1)
	TabViewer = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Padding(0, 1)
)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// NoticeStyle for transient confirmations.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Padding(0, 1)

// HelpStyle for help text and empty-state messages.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// Form styles.
var (
	FormBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)
	FormTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight).
			MarginBottom(1)
	FormLabel = lipgloss.NewStyle().
			Foreground(colorSecondary)
	FormPrompt = lipgloss.NewStyle().
			Foreground(colorHighlight)
	FormText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))
)

// DebugPanel frames the event overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
