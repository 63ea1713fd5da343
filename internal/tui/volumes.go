package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

const volumesChartHeight = 6

// renderVolumesPanel draws a bar chart of the nine positions' volumes.
func (m *Model) renderVolumesPanel() string {
	snapshot := m.store.Snapshot()

	chartWidth := m.width - 4
	if chartWidth < 20 {
		chartWidth = 20
	}

	bc := barchart.New(chartWidth, volumesChartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(5),
	)

	barStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.skin.Accent)).
		Background(lipgloss.Color(m.skin.Accent))

	for _, rowIDs := range deckRows {
		for _, id := range rowIDs {
			bc.Push(barchart.BarData{
				Label: fmt.Sprintf("P%d", id),
				Values: []barchart.BarValue{
					{Name: "volume", Value: float64(snapshot[id].Volume), Style: barStyle},
				},
			})
		}
	}
	bc.Draw()

	title := m.skin.titleStyle().Render("Volumes (μL)")
	return lipgloss.JoinVertical(lipgloss.Left, title, bc.View())
}
