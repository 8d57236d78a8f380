package formatter

import (
	"fmt"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(title) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanDate formats a calendar date as "Mon Mar 4, 2024".
func HumanDate(t time.Time) string {
	return t.Format("Mon Jan 2, 2006")
}

// ShortDate formats a calendar date as "03-04" within the reference year and
// as "2025-03-04" otherwise.
func ShortDate(t time.Time, refYear int) string {
	if t.Year() == refYear {
		return t.Format("01-02")
	}
	return calendar.FormatDate(t)
}

// HumanTimestamp returns a relative timestamp for recent times and the date
// otherwise.
func HumanTimestamp(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return HumanDate(t)
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// StatusPill returns a colored indicator for a project status.
func StatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectActive:
		return StyleGreen.Render("● Active")
	case domain.ProjectArchived:
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatDuration renders working minutes as days and hours of a 9-hour
// working day: 540 -> "1d", 810 -> "1d 4h 30m", 90 -> "1h 30m".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	days := minutes / calendar.MinutesPerWorkingDay
	rest := minutes % calendar.MinutesPerWorkingDay
	h, m := rest/60, rest%60

	out := ""
	if days > 0 {
		out = fmt.Sprintf("%dd", days)
	}
	if h > 0 {
		out += fmt.Sprintf(" %dh", h)
	}
	if m > 0 {
		out += fmt.Sprintf(" %dm", m)
	}
	if out[0] == ' ' {
		out = out[1:]
	}
	return out
}

// TaskLabel renders "#3 Pour" with the number dimmed.
func TaskLabel(t domain.Task) string {
	if t.Seq <= 0 {
		return t.Name
	}
	return StyleDim.Render(fmt.Sprintf("#%d", t.Seq)) + " " + t.Name
}
