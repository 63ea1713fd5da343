package tui

import (
	"fmt"
	"strings"

	"github.com/deckwatch/deckwatch/internal/model"

	"github.com/charmbracelet/lipgloss"
)

const cellInnerWidth = 18

// renderHeader draws the title bar with the connection indicator and clock.
func (m *Model) renderHeader() string {
	title := m.skin.titleStyle().Render("Deckwatch")

	var conn string
	switch {
	case m.connecting:
		conn = m.skin.mutedStyle().Render(m.spin.View() + " connecting...")
	case m.connected:
		conn = m.skin.connStyle(true).Render("● Connected")
	default:
		conn = m.skin.connStyle(false).Render("● Disconnected")
	}

	clock := m.skin.textStyle().Render(m.now.Format("15:04:05"))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(conn) - lipgloss.Width(clock) - 4
	if gap < 1 {
		gap = 1
	}
	return title + "  " + conn + strings.Repeat(" ", gap) + clock
}

// renderOperationLine draws the current-operation display field.
func (m *Model) renderOperationLine() string {
	label := m.skin.mutedStyle().Render("Operation:")
	return label + " " + m.skin.textStyle().Render(m.currentOp)
}

// renderCell draws one deck position. Labware tags arrive unvalidated and
// render verbatim; only the "empty" tag gets the friendlier "Empty" label.
func (m *Model) renderCell(id int, pos model.Position, glowing bool) string {
	labware := pos.Labware
	if labware == model.LabwareEmpty || labware == "" {
		labware = "Empty"
	}
	// Tags arrive unvalidated; truncate on a rune boundary so a multibyte
	// tag never renders as broken UTF-8.
	if runes := []rune(labware); len(runes) > cellInnerWidth {
		labware = string(runes[:cellInnerWidth])
	}

	header := m.skin.mutedStyle().Render(fmt.Sprintf("Position %d", id))
	if pos.Active {
		header += " " + m.skin.activeStyle().Render("●")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.skin.textStyle().Render(labware),
		m.skin.mutedStyle().Render(VolumeText(pos.Volume)),
	)

	style := m.skin.cellStyle()
	if glowing {
		style = m.skin.glowCellStyle()
	}
	return style.Width(cellInnerWidth + 2).Render(body)
}

// VolumeText formats a volume for display.
func VolumeText(volume int) string {
	return fmt.Sprintf("%d μL", volume)
}

// renderFeedPanel draws the bounded activity history, newest first.
func (m *Model) renderFeedPanel() string {
	title := m.skin.titleStyle().Render("Activity")

	entries := m.feed.Entries()
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, title)
	if len(entries) == 0 {
		lines = append(lines, m.skin.mutedStyle().Render("No activity yet"))
	}
	for _, e := range entries {
		stamp := m.skin.mutedStyle().Render(e.At.Format("15:04:05"))
		lines = append(lines, stamp+" "+m.skin.textStyle().Render(e.Message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderStatusLine draws the key help at the bottom.
func (m *Model) renderStatusLine() string {
	help := []string{
		m.keys.Quit.Help().Key + " " + m.keys.Quit.Help().Desc,
		m.keys.ToggleVolumes.Help().Key + " " + m.keys.ToggleVolumes.Help().Desc,
	}
	return m.skin.mutedStyle().Render(strings.Join(help, "  ·  "))
}
