package template

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reveal/internal/decision"
	"reveal/internal/events"
)

// KeyMap is the key bindings shared by the built-in templates.
type KeyMap struct {
	Dismiss key.Binding
	Action  key.Binding
}

// DefaultKeyMap returns esc to dismiss and enter to follow the CTA.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Action:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	}
}

// Click is a mouse press inside the overlay, in overlay-relative cells.
type Click struct {
	Row int
	Col int
}

// base carries the state and input handling common to every built-in.
type base struct {
	c       *Container
	d       decision.UINudgeDecision
	keys    KeyMap
	mounted bool
}

func newBase() base {
	return base{keys: DefaultKeyMap()}
}

func (b *base) Mount(c *Container, d decision.UINudgeDecision) {
	b.c = c
	b.d = d
	b.mounted = true
}

func (b *base) UpdateDecision(d decision.UINudgeDecision) {
	if b.mounted {
		b.d = d
	}
}

func (b *base) Unmount() {
	b.mounted = false
	b.c = nil
}

func (b *base) HandleMsg(msg tea.Msg) bool {
	if !b.mounted {
		return false
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Dismiss):
			if !b.d.Dismissible {
				return false
			}
			b.c.dismiss(b.d.ID, events.ReasonEsc)
			return true
		case key.Matches(msg, b.keys.Action):
			if b.d.CTAText == "" {
				return false
			}
			b.c.actionClick(b.d.ID)
			return true
		}
	case Click:
		if b.d.CTAText != "" {
			b.c.actionClick(b.d.ID)
		}
		return true
	}
	return false
}

func (b *base) styles() Styles {
	theme := DefaultTheme()
	if b.c != nil {
		theme = b.c.Theme
	}
	return theme.NewStyles(b.d)
}

// innerWidth is the text width inside a box with border and padding.
func (b *base) innerWidth(limit int) int {
	w := 0
	for _, s := range []string{b.d.Title, b.d.Body, b.ctaLine(b.styles())} {
		for _, line := range strings.Split(s, "\n") {
			w = max(w, lipgloss.Width(line))
		}
	}
	if limit > 0 && w > limit {
		w = limit
	}
	return max(w, 1)
}

func (b *base) ctaLine(st Styles) string {
	var parts []string
	if b.d.CTAText != "" {
		parts = append(parts, st.CTA.Render(b.d.CTAText))
	}
	if b.d.Dismissible {
		parts = append(parts, st.Hint.Render("esc to dismiss"))
	}
	return strings.Join(parts, " ")
}

// content renders the stacked title, body and CTA lines.
func (b *base) content(st Styles, width int) string {
	var rows []string
	if b.d.Title != "" {
		rows = append(rows, st.Title.Width(width).Render(b.d.Title))
	}
	if b.d.Body != "" {
		rows = append(rows, st.Body.Width(width).Render(b.d.Body))
	}
	if cta := b.ctaLine(st); cta != "" {
		rows = append(rows, cta)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// frame is the horizontal space taken by a box's border and padding.
const frame = 4

func (b *base) maxWidth() int {
	if b.c == nil || b.c.MaxWidth <= 0 {
		return 0
	}
	return b.c.MaxWidth
}
