package template

import (
	"github.com/charmbracelet/lipgloss"

	"reveal/internal/position"
)

// Modal is a centered box with a heavier border.
type Modal struct {
	base
}

// NewModal creates an unmounted modal.
func NewModal() *Modal {
	return &Modal{base: newBase()}
}

func (m *Modal) View() string {
	if !m.mounted {
		return ""
	}
	st := m.styles()
	st.Box = st.Box.Border(lipgloss.DoubleBorder()).Padding(1, 2)

	limit := 0
	if w := m.maxWidth(); w > frame+2 {
		limit = w - frame - 2
	}
	return st.Box.Render(m.content(st, m.innerWidth(limit)))
}

// Place centers the modal in the viewport.
func (m *Modal) Place(overlay, viewport position.Size) position.Result {
	return position.Center(overlay, viewport)
}
