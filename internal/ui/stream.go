package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/snooze/internal/view"
)

// rowLines is the number of terminal lines one story occupies.
const rowLines = 2

// RenderHeader renders the state tabs and who is signed in.
func RenderHeader(d view.Display, width int) string {
	var tabs []string
	for _, s := range view.States {
		if s == view.Hidden && d.HiddenCount == 0 && d.State != view.Hidden {
			continue
		}
		label := s.Title()
		if s == view.Hidden {
			label = fmt.Sprintf("%s (%d)", label, d.HiddenCount)
		}
		if s == d.State {
			tabs = append(tabs, TabActive.Render(label))
		} else {
			tabs = append(tabs, TabInactive.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	who := "not signed in"
	if d.Viewer != "" {
		who = "@" + d.Viewer
	}
	right := TabViewer.Render(who)

	pad := width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

// RenderStream renders the rows of d. Stories with an action in flight are
// dimmed. Returns the empty-state message when there is nothing to show.
func RenderStream(d view.Display, cursor int, pending map[string]view.ActionKind, width, height int) string {
	if d.Empty() {
		return HelpStyle.Render(d.EmptyMessage)
	}

	visible := height / rowLines
	if visible < 1 {
		visible = 1
	}
	offset := calcScrollOffset(len(d.Rows), cursor, visible)

	var b strings.Builder
	for i := offset; i < len(d.Rows) && i < offset+visible; i++ {
		row := d.Rows[i]
		_, busy := pending[row.Story.ID]
		b.WriteString(renderRowLines(row, i == cursor, busy, width))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first row to draw so the cursor stays
// within a window of visible rows.
func calcScrollOffset(total, cursor, visible int) int {
	if total == 0 || cursor < 0 || visible < 1 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= visible {
		return cursor - visible + 1
	}
	return 0
}

// renderRowLines renders one story as a title line and a byline.
func renderRowLines(row view.Row, selected, busy bool, width int) string {
	star := " "
	switch {
	case row.ShowFavorite && row.Favorite:
		star = StarOn.Render("★")
	case row.ShowFavorite:
		star = StarOff.Render("☆")
	}

	var tags []string
	if row.HideAction == view.HideUndo {
		tags = append(tags, "hidden")
	}
	if row.CanDelete {
		tags = append(tags, "mine")
	}
	if busy {
		tags = append(tags, "…")
	}
	suffix := ""
	if len(tags) > 0 {
		suffix = " [" + strings.Join(tags, ", ") + "]"
	}

	host := " (" + row.Hostname + ")"
	titleWidth := width - 4 - runewidth.StringWidth(host) - runewidth.StringWidth(suffix)
	if titleWidth < 10 {
		titleWidth = 10
	}
	title := truncate(row.Story.Title, titleWidth)

	var line string
	switch {
	case selected:
		plain := fitWidth(title+host+suffix, width-2)
		line = SelectedItem.Render(plain)
	case busy:
		line = PendingItem.Render(title + host + suffix)
	default:
		line = NormalItem.Render(title) + HostBadge.Render(host)
		if suffix != "" {
			line += OwnMarker.Render(suffix)
		}
	}

	byline := fmt.Sprintf("by %s · posted by %s", row.Story.Author, row.Story.Username)
	byline = MetaItem.Render(truncate(byline, width-4))

	return star + " " + line + "\n" + "  " + byline
}

// truncate shortens s to at most w terminal cells, ending in an ellipsis.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

// fitWidth truncates or pads s to exactly w cells.
func fitWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.FillRight(truncate(s, w), w)
}

// RenderStatusBar renders the bottom status bar: position or status on the
// left, key hints on the right.
func RenderStatusBar(d view.Display, cursor, width int, status, hints string) string {
	left := status
	if left == "" {
		if d.Empty() {
			left = "0/0"
		} else {
			left = fmt.Sprintf("%d/%d", cursor+1, len(d.Rows))
		}
	}
	left = StatusBarText.Render(" " + left + " ")

	pad := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if pad < 1 {
		pad = 1
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", pad) + hints)
}
