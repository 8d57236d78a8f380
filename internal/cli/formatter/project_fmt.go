package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/scheduler"
	"github.com/charmbracelet/lipgloss"
)

// FormatProjectList renders projects inside a bordered box.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "START", "STATUS"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		start := Dim("--")
		if p.StartDate != nil {
			start = calendar.FormatDate(*p.StartDate)
		}
		rows = append(rows, []string{p.DisplayID(), Bold(p.Name), start, StatusPill(p.Status)})
	}
	return RenderBox("PROJECTS", RenderTable(headers, rows))
}

// FormatProjectShow renders project metadata next to its task tree.
func FormatProjectShow(resp *contract.ScheduleResponse, now time.Time) string {
	left := projectMetaPanel(resp, now)
	right := taskTreePanel(resp)
	return RenderBox("", lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right))
}

func projectMetaPanel(resp *contract.ScheduleResponse, now time.Time) string {
	p := resp.Project
	var b strings.Builder
	b.WriteString(StyleBold.Render(p.Name) + "\n\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-7s", label)), value)
	}
	field("STATUS", StatusPill(p.Status))
	field("ID", Dim(p.DisplayID()))
	if p.StartDate != nil {
		field("START", StyleFg.Render(HumanDate(*p.StartDate)))
	} else {
		field("START", Dim("not set"))
	}
	if start, end, ok := scheduleSpan(resp.Tasks); ok {
		field("SPAN", fmt.Sprintf("%s → %s %s", calendar.FormatDate(start), calendar.FormatDate(end),
			Dim(fmt.Sprintf("(%dd)", calendar.DaysBetween(start, end)+1))))
	}
	field("TASKS", fmt.Sprintf("%d", len(resp.Tasks)))
	if n := countStatus(resp.Statuses, contract.StatusConflicted); n > 0 {
		field("CONFLCT", StyleRed.Render(fmt.Sprintf("%d", n)))
	}
	field("UPDATED", HumanTimestamp(p.UpdatedAt, now))

	return lipgloss.NewStyle().Width(42).Render(b.String())
}

func taskTreePanel(resp *contract.ScheduleResponse) string {
	if len(resp.Tree) == 0 {
		return StyleDim.Render("No tasks")
	}
	var b strings.Builder
	b.WriteString(StyleHeader.Render("TASKS") + "\n\n")
	b.WriteString(RenderTree(TreeItems(resp)))
	return b.String()
}

// TreeItems flattens a schedule into tree lines with a date badge on each.
func TreeItems(resp *contract.ScheduleResponse) []TreeItem {
	flat := scheduler.Flatten(resp.Tree)
	items := make([]TreeItem, 0, len(flat))
	for _, f := range flat {
		n := f.Node
		items = append(items, TreeItem{
			Title:    n.Task.Name,
			Seq:      n.Task.Seq,
			Level:    f.Level,
			IsLast:   f.IsLast,
			Progress: n.Task.Progress,
			Status:   resp.Statuses[n.Task.ID],
			Detail:   fmt.Sprintf("%s → %s", calendar.FormatDate(n.Start), calendar.FormatDate(n.End)),
		})
	}
	return items
}

func scheduleSpan(dated []contract.DatedTask) (start, end time.Time, ok bool) {
	for i, d := range dated {
		if i == 0 || d.Start.Before(start) {
			start = d.Start
		}
		if i == 0 || d.End.After(end) {
			end = d.End
		}
	}
	return start, end, len(dated) > 0
}

func countStatus(statuses map[string]contract.ScheduleStatus, want contract.ScheduleStatus) int {
	n := 0
	for _, s := range statuses {
		if s == want {
			n++
		}
	}
	return n
}
