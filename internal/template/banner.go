package template

import (
	"github.com/charmbracelet/lipgloss"

	"reveal/internal/position"
)

// Banner is a full-width strip pinned to the top of the viewport, or to the
// bottom for bottom-row quadrants.
type Banner struct {
	base
}

// NewBanner creates an unmounted banner.
func NewBanner() *Banner {
	return &Banner{base: newBase()}
}

func (b *Banner) View() string {
	if !b.mounted {
		return ""
	}
	st := b.styles()
	width := b.c.Viewport.Width
	if width <= 0 {
		width = b.maxWidth()
	}

	var row []string
	if b.d.Title != "" {
		row = append(row, st.Title.Render(b.d.Title))
	}
	if b.d.Body != "" {
		row = append(row, st.Body.Render(b.d.Body))
	}
	if cta := b.ctaLine(st); cta != "" {
		row = append(row, cta)
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, joinSpaced(row)...)

	strip := st.Box.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		Padding(0, 1)
	if width > 2 {
		strip = strip.Width(width)
	}
	return strip.Render(line)
}

// Place pins the banner to the top or bottom edge.
func (b *Banner) Place(overlay, viewport position.Size) position.Result {
	left := max((viewport.Width-overlay.Width)/2, 0)
	if position.IsTopRow(position.Normalize(b.d.Quadrant)) {
		return position.Result{Top: 0, Left: left}
	}
	return position.Result{Top: max(viewport.Height-overlay.Height, 0), Left: left}
}

func joinSpaced(parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, p)
	}
	return out
}
