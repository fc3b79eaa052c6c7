package template

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reveal/internal/position"
)

// Tooltip is a small bordered box with a directional indicator.
type Tooltip struct {
	base
}

// NewTooltip creates an unmounted tooltip.
func NewTooltip() *Tooltip {
	return &Tooltip{base: newBase()}
}

func (t *Tooltip) View() string {
	if !t.mounted {
		return ""
	}
	st := t.styles()
	limit := 0
	if m := t.maxWidth(); m > frame {
		limit = m - frame
	}
	box := st.Box.Render(t.content(st, t.innerWidth(limit)))

	arrow, ok := t.c.Arrow()
	if !ok {
		return box
	}
	return withArrow(box, arrow, lipgloss.NewStyle().Foreground(t.c.Theme.SeverityColor(t.d.Severity)))
}

func withArrow(box string, a position.Arrow, style lipgloss.Style) string {
	w := lipgloss.Width(box)
	offset := min(max(a.Offset, 0), max(w-1, 0))
	line := strings.Repeat(" ", offset) + style.Render(a.Glyph())
	if a.Edge == position.EdgeTop {
		return line + "\n" + box
	}
	return box + "\n" + line
}
