package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusColor maps a schedule status to its style.
func StatusColor(status contract.ScheduleStatus) lipgloss.Style {
	switch status {
	case contract.StatusConflicted:
		return StyleRed
	case contract.StatusCycle:
		return StylePurple
	case contract.StatusValid:
		return StyleGreen
	default:
		return StyleDim
	}
}

// StatusIndicator returns a colored status label such as "● CONFLICT".
func StatusIndicator(status contract.ScheduleStatus) string {
	switch status {
	case contract.StatusConflicted:
		return StyleRed.Render("● CONFLICT")
	case contract.StatusCycle:
		return StylePurple.Render("↻ CYCLE")
	case contract.StatusValid:
		return StyleGreen.Render("● OK")
	default:
		return StyleDim.Render("○ FREE")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
