package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"raceline.dev/raceline/race"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// renderResults formats one optimization run for the terminal.
func renderResults(trackName string, results []race.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(trackName) + "\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %-20s %10s %10s %10s",
		"vehicle", "model", "lap time", "top speed", "points")) + "\n")

	for _, res := range results {
		top := 0.0
		for _, v := range res.Speeds {
			if v > top {
				top = v
			}
		}
		line := fmt.Sprintf("%-10s %-20s %9.2fs %8.1fm/s %10d",
			res.VehicleID, res.ModelID, res.LapTime, top, len(res.Coordinates))
		if res.Fallback {
			line = fallbackStyle.Render(line + "  (fallback)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
