// Package template renders a nudge decision as a terminal overlay.
//
// A Router picks the template for a decision's templateId. Templates are
// mounted into a Container supplied by the surface adapter, which gives them
// the event channel, the directional indicator and the maximum width.
package template

import (
	tea "github.com/charmbracelet/bubbletea"

	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/position"
)

// Emitter is the outbound half of the event channel a template may use.
type Emitter interface {
	EmitDismiss(events.Dismiss)
	EmitActionClick(events.ActionClick)
}

// Template renders one decision.
type Template interface {
	Mount(c *Container, d decision.UINudgeDecision)
	UpdateDecision(d decision.UINudgeDecision)
	Unmount()
	View() string
	// HandleMsg offers an input message; true means it was consumed.
	HandleMsg(msg tea.Msg) bool
}

// Placer is implemented by templates that choose their own placement instead
// of the quadrant grid.
type Placer interface {
	Place(overlay, viewport position.Size) position.Result
}

// Factory builds a fresh template instance.
type Factory func() Template

// Container is what a mounted template sees of the surface.
type Container struct {
	Events   Emitter
	Theme    Theme
	MaxWidth int
	Viewport position.Size

	arrow    position.Arrow
	hasArrow bool
}

// NewContainer creates a container with the default theme.
func NewContainer(emitter Emitter, maxWidth int) *Container {
	return &Container{Events: emitter, Theme: DefaultTheme(), MaxWidth: maxWidth}
}

// SetArrow sets the indicator the template should draw.
func (c *Container) SetArrow(a position.Arrow) {
	c.arrow = a
	c.hasArrow = true
}

// ClearArrow removes the indicator.
func (c *Container) ClearArrow() {
	c.arrow = position.Arrow{}
	c.hasArrow = false
}

// Arrow returns the indicator, if any.
func (c *Container) Arrow() (position.Arrow, bool) {
	return c.arrow, c.hasArrow
}

func (c *Container) dismiss(id string, reason events.DismissReason) {
	if c != nil && c.Events != nil {
		c.Events.EmitDismiss(events.Dismiss{ID: id, Reason: reason})
	}
}

func (c *Container) actionClick(id string) {
	if c != nil && c.Events != nil {
		c.Events.EmitActionClick(events.ActionClick{ID: id})
	}
}
