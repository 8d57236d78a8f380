package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a completion bar like [████░░░░]  45%. Percentages
// outside 0-100 are clamped. Finished work is green, work under a third
// done is dim.
func RenderProgress(pct int, width int) string {
	pct = min(max(pct, 0), 100)
	width = max(width, 2)

	filled := pct * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleYellow
	switch {
	case pct == 100:
		style = StyleGreen
	case pct < 33:
		style = StyleDim
	}
	return fmt.Sprintf("[%s] %3d%%", style.Render(bar), pct)
}
