package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/snooze/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing session stats and recent events.
// Pure function with no side effects. Returns empty string if h is nil.
func debugOverlay(h *otel.History, runID string, width, height int) string {
	if h == nil {
		return ""
	}

	stats := h.Totals()
	recent := h.Recent(20)
	held, limit := h.Held()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Bootstrap:  %d complete, %d errors",
		stats[otel.KindBootstrapComplete], stats[otel.KindBootstrapError]))
	lines = append(lines, fmt.Sprintf("  Actions:    %d started, %d complete, %d errors, %d dropped",
		stats[otel.KindActionStart], stats[otel.KindActionComplete],
		stats[otel.KindActionError], stats[otel.KindActionDropped]))
	lines = append(lines, fmt.Sprintf("  Auth:       %d complete, %d errors, %d logout",
		stats[otel.KindAuthComplete], stats[otel.KindAuthError], stats[otel.KindLogout]))
	lines = append(lines, fmt.Sprintf("  Events:     %d this session, last %d of %d kept", h.Seen(), held, limit))
	if runID != "" {
		lines = append(lines, "  Run:        "+shortID(runID))
	}
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Action != "" {
			line += "  " + e.Action
		}
		if e.StoryID != "" {
			line += "  story:" + shortID(e.StoryID)
		}
		if e.Msg != "" {
			line += "  " + truncate(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncate(e.Err, 30)
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 86
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
