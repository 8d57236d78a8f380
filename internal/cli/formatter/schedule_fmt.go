package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

const (
	scheduleProgressWidth = 8
	timelineMaxColumns    = 60
)

// FormatSchedule renders the task tree as a table of resolved dates.
func FormatSchedule(resp *contract.ScheduleResponse) string {
	var b strings.Builder
	if len(resp.Tree) == 0 {
		b.WriteString(Dim("No tasks.") + "\n")
		return RenderBox(scheduleTitle(resp), b.String())
	}

	refYear := 0
	if start, _, ok := scheduleSpan(resp.Tasks); ok {
		refYear = start.Year()
	}

	headers := []string{"#", "TASK", "START", "END", "DAYS", "DURATION", "PROGRESS", "STATUS"}
	var rows [][]string
	for _, f := range scheduler.Flatten(resp.Tree) {
		n := f.Node
		name := strings.Repeat("  ", f.Level) + n.Task.Name
		if n.HasChildren {
			name = Bold(name)
		}
		start := ShortDate(n.Start, refYear)
		if n.StartDefaulted {
			start = StyleYellow.Render(start + "*")
		}
		if off := resp.Offsets[n.Task.ID]; off > 0 {
			start += Dim(fmt.Sprintf(" +%s", FormatDuration(off)))
		}
		end := ShortDate(n.End, refYear)
		if n.Fragmented {
			end += StyleBlue.Render(" ⋯")
		}
		duration := FormatDuration(n.Task.DurationMin)
		if n.HasChildren {
			duration = Dim("--")
		}
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", n.Task.Seq)),
			name,
			start,
			end,
			fmt.Sprintf("%d", n.DurationDays),
			duration,
			RenderProgress(n.Task.Progress, scheduleProgressWidth),
			StatusIndicator(resp.Statuses[n.Task.ID]),
		})
	}
	b.WriteString(RenderTable(headers, rows))

	if len(resp.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range resp.Warnings {
			b.WriteString(StyleYellow.Render("  WARNING: "+w) + "\n")
		}
	}
	return RenderBox(scheduleTitle(resp), b.String())
}

func scheduleTitle(resp *contract.ScheduleResponse) string {
	if resp.Project == nil {
		return "SCHEDULE"
	}
	return fmt.Sprintf("SCHEDULE · %s %s", resp.Project.DisplayID(), resp.Project.Name)
}

// FormatTimeline draws one bar per task across the project span. Long spans
// are compressed so the chart stays under timelineMaxColumns columns.
func FormatTimeline(resp *contract.ScheduleResponse) string {
	start, end, ok := scheduleSpan(resp.Tasks)
	if !ok {
		return ""
	}
	days := calendar.DaysBetween(start, end) + 1
	perCol := (days + timelineMaxColumns - 1) / timelineMaxColumns
	cols := (days + perCol - 1) / perCol
	col := func(t time.Time) int { return calendar.DaysBetween(start, t) / perCol }

	flat := scheduler.Flatten(resp.Tree)
	labels := make([]string, len(flat))
	width := 0
	for i, f := range flat {
		labels[i] = strings.Repeat(" ", f.Level) + fmt.Sprintf("#%d %s", f.Node.Task.Seq, f.Node.Task.Name)
		width = max(width, len([]rune(labels[i])))
	}

	var b strings.Builder
	scale := fmt.Sprintf("%s → %s", calendar.FormatDate(start), calendar.FormatDate(end))
	if perCol > 1 {
		scale += fmt.Sprintf(" (1 column = %d days)", perCol)
	}
	b.WriteString(strings.Repeat(" ", width+2) + Dim(scale) + "\n")

	for i, f := range flat {
		n := f.Node
		from, to := col(n.Start), col(n.End)
		done := from + (to-from+1)*n.Task.Progress/100

		var bar strings.Builder
		bar.WriteString(strings.Repeat(" ", from))
		glyph := "█"
		if n.HasChildren {
			glyph = "▀"
		}
		style := StatusColor(resp.Statuses[n.Task.ID])
		if resp.Statuses[n.Task.ID] == contract.StatusUnconstrained || resp.Statuses[n.Task.ID] == contract.StatusValid {
			style = StyleBlue
		}
		for c := from; c <= to && c < cols; c++ {
			if c < done {
				bar.WriteString(StyleGreen.Render(glyph))
			} else {
				bar.WriteString(style.Render(glyph))
			}
		}
		pad := width - len([]rune(labels[i]))
		b.WriteString(labels[i] + strings.Repeat(" ", pad) + "  " + bar.String() + "\n")
	}
	return b.String()
}

// FormatConstraint renders the result of checking one task.
func FormatConstraint(taskName string, res contract.ConstraintResult) string {
	var b strings.Builder
	switch {
	case res.Unconstrained:
		fmt.Fprintf(&b, "%s %s has no predecessors\n", StyleDim.Render("○"), Bold(taskName))
	case res.Valid:
		fmt.Fprintf(&b, "%s %s\n", StyleGreen.Render("✔"), res.Message)
	default:
		fmt.Fprintf(&b, "%s %s\n", StyleRed.Render("✖"), res.Message)
	}
	if res.MinStart != nil && !res.Unconstrained {
		fmt.Fprintf(&b, "  %s  %s\n", Dim("EARLIEST START"), calendar.FormatDate(*res.MinStart))
		if res.MinEnd != nil {
			fmt.Fprintf(&b, "  %s  %s\n", Dim("EARLIEST END  "), calendar.FormatDate(*res.MinEnd))
		}
	}
	for _, v := range res.Violations {
		fmt.Fprintf(&b, "  %s %s\n", StyleRed.Render("•"), v.Message)
	}
	return b.String()
}

// FormatCascade renders a cascade proposal. names resolves task IDs listed
// as cycle members.
func FormatCascade(res contract.CascadeResult, names map[string]string) string {
	var b strings.Builder
	if res.IsEmpty() {
		b.WriteString(StyleGreen.Render("✔ No successor needs to move.") + "\n")
		return b.String()
	}
	if len(res.Updates) > 0 {
		b.WriteString(Header(fmt.Sprintf("Cascade · %d task(s) to move", len(res.Updates))) + "\n")
		headers := []string{"TASK", "FROM", "TO", "SHIFT", "BECAUSE"}
		rows := make([][]string, 0, len(res.Updates))
		for _, u := range res.Updates {
			rows = append(rows, []string{
				Bold(u.TaskName),
				fmt.Sprintf("%s → %s", calendar.FormatDate(u.OldStart), calendar.FormatDate(u.OldEnd)),
				StyleYellow.Render(fmt.Sprintf("%s → %s", calendar.FormatDate(u.NewStart), calendar.FormatDate(u.NewEnd))),
				fmt.Sprintf("%+dd", calendar.DaysBetween(u.OldStart, u.NewStart)),
				Dim(u.Reason),
			})
		}
		b.WriteString(RenderTable(headers, rows))
	}
	if res.HasCycle() {
		quoted := make([]string, 0, len(res.TasksInCycle))
		for _, id := range res.TasksInCycle {
			name := names[id]
			if name == "" {
				name = id
			}
			quoted = append(quoted, fmt.Sprintf("%q", name))
		}
		b.WriteString(StylePurple.Render("↻ left unchanged, on a dependency cycle: "+strings.Join(quoted, ", ")) + "\n")
	}
	return b.String()
}

// FormatScheduleStatus summarises statuses and lists every task that needs
// attention.
func FormatScheduleStatus(resp *contract.ScheduleResponse) string {
	var b strings.Builder
	summary := []string{
		StyleGreen.Render(fmt.Sprintf("%d OK", countStatus(resp.Statuses, contract.StatusValid))),
		StyleDim.Render(fmt.Sprintf("%d Free", countStatus(resp.Statuses, contract.StatusUnconstrained))),
		StyleRed.Render(fmt.Sprintf("%d Conflicted", countStatus(resp.Statuses, contract.StatusConflicted))),
		StylePurple.Render(fmt.Sprintf("%d On cycle", countStatus(resp.Statuses, contract.StatusCycle))),
	}
	b.WriteString(strings.Join(summary, ", ") + "\n")

	var rows [][]string
	for _, d := range resp.Tasks {
		status := resp.Statuses[d.Task.ID]
		if status != contract.StatusConflicted && status != contract.StatusCycle {
			continue
		}
		rows = append(rows, []string{
			TaskLabel(d.Task),
			StatusIndicator(status),
			Dim(resp.Constraints[d.Task.ID].Message),
		})
	}
	if len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"TASK", "STATUS", "DETAIL"}, rows))
	}
	for _, w := range resp.Warnings {
		b.WriteString(StyleYellow.Render("  WARNING: "+w) + "\n")
	}
	return RenderBox("STATUS", b.String())
}
