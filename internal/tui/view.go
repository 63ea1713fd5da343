package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// deckRows is the fixed presentation order of the nine positions, matching
// the physical Bravo deck: three rows of three nests.
var deckRows = [3][3]int{
	{1, 2, 3},
	{4, 5, 6},
	{7, 8, 9},
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width <= 0 || m.height <= 0 {
		return "Initializing dashboard..."
	}
	if m.width < 70 || m.height < 24 {
		return "Terminal too small. Resize to at least 70x24."
	}

	sections := []string{
		m.renderHeader(),
		m.renderOperationLine(),
		m.renderDeckGrid(),
	}
	if m.showVolumes {
		sections = append(sections, m.renderVolumesPanel())
	}
	sections = append(sections, m.renderFeedPanel(), m.renderStatusLine())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDeckGrid draws the 3x3 position grid in two phases: first compute
// every cell from one state snapshot, then assemble. Reads and writes to the
// presentation surface never interleave inside one pass, so a batch of
// position updates appears atomically.
func (m *Model) renderDeckGrid() string {
	snapshot := m.store.Snapshot()
	glowing := m.store.GlowSet()

	// Phase one: compute all cells.
	cells := make(map[int]string, len(snapshot))
	for id, pos := range snapshot {
		cells[id] = m.renderCell(id, pos, glowing[id])
	}

	// Phase two: apply — join cells into rows, rows into the grid.
	rows := make([]string, 0, len(deckRows))
	for _, rowIDs := range deckRows {
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			cells[rowIDs[0]], cells[rowIDs[1]], cells[rowIDs[2]])
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
