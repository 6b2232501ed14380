package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gitlanes/gitlanes/internal/graph"
)

// Palette is the ordered lane color list handed to the graph builder.
// Values are ANSI color codes, so graph.Color converts straight into a
// lipgloss color.
var Palette = []graph.Color{"2", "1", "4", "3", "5", "6", "9", "12"}

var (
	laneStyles = map[graph.Color]lipgloss.Style{}

	// taintedStyle renders provisional edges dim.
	taintedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)

	hashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	summaryStyle = lipgloss.NewStyle()
)

func init() {
	for _, c := range Palette {
		laneStyles[c] = lipgloss.NewStyle().Foreground(lipgloss.Color(string(c)))
	}
}

func laneStyle(c graph.Color) lipgloss.Style {
	if c == graph.TaintedColor || c == "" {
		return taintedStyle
	}
	if s, ok := laneStyles[c]; ok {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c)))
}
