package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a task tree, in pre-order.
type TreeItem struct {
	Title    string
	Seq      int // project-scoped number; 0 hides it
	Level    int
	IsLast   bool
	Progress int
	Status   contract.ScheduleStatus
	Detail   string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders items as an indented tree with box-drawing connectors.
// Finished tasks get a green ✔, conflicted ones a red ✖ and tasks on a
// dependency cycle a purple ↻. Detail badges are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type line struct {
		content string
		badge   string
	}
	lines := make([]line, len(items))
	// lastAt[l] records whether the open ancestor at level l was the last of
	// its siblings, which decides between a pipe and a blank.
	var lastAt []bool
	widest := 0

	for idx, item := range items {
		if item.Level >= len(lastAt) {
			lastAt = append(lastAt, make([]bool, item.Level-len(lastAt)+1)...)
		}
		lastAt[item.Level] = item.IsLast

		var prefix strings.Builder
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if lastAt[l] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := item.Title
		if item.Seq > 0 {
			title = StyleDim.Render(fmt.Sprintf("#%d ", item.Seq)) + title
		}
		marker := ""
		switch {
		case item.Status == contract.StatusCycle:
			marker = StylePurple.Render("↻ ")
		case item.Status == contract.StatusConflicted:
			marker = StyleRed.Render("✖ ")
			title = StyleRed.Render(title)
		case item.Progress >= 100:
			marker = StyleGreen.Render("✔ ")
			title = Dim(title)
		case item.Progress > 0:
			marker = StyleYellowBold.Render("▶ ")
		}

		content := StyleDim.Render(prefix.String()) + marker + title
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		widest = max(widest, lipgloss.Width(content))
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := widest - lipgloss.Width(li.content)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}
