package browser

import (
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Minimum cell dimensions including the border.
const (
	MinCellWidth  = 10
	MinCellHeight = 4
)

var (
	accentColor = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dimColor    = lipgloss.AdaptiveColor{Light: "240", Dark: "240"}
	readyColor  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	errorColor  = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}

	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(dimColor)
	readyStyle  = lipgloss.NewStyle().Foreground(readyColor)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor)
)

// CellBorder returns the style of one grid cell. The highlighted cell gets
// an accent-colored border.
func CellBorder(highlighted bool) lipgloss.Style {
	color := dimColor
	if highlighted {
		color = accentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Align(lipgloss.Center, lipgloss.Center)
}

// CellSize divides an area among rows and cols. Cells never shrink below
// MinCellWidth x MinCellHeight.
func CellSize(areaWidth, areaHeight, rows, cols int) (width, height int) {
	if rows < 1 || cols < 1 {
		return 0, 0
	}
	width = max(areaWidth/cols, MinCellWidth)
	height = max(areaHeight/rows, MinCellHeight)
	return width, height
}

// displayName shortens an asset locator to its last path element.
func displayName(identifier string) string {
	name := identifier
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = path.Base(strings.TrimRight(name, "/"))
	if name == "." || name == "/" || name == "" {
		return identifier
	}
	return name
}

// truncate cuts s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
