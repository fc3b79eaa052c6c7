package nudge

import (
	tea "github.com/charmbracelet/bubbletea"

	"reveal/internal/decision"
	"reveal/internal/events"
)

// DecisionMsg delivers a decision to a running program. A nil Decision
// clears the overlay.
type DecisionMsg struct {
	Decision *decision.WireNudgeDecision
}

// DismissMsg asks the engine to dismiss the active decision.
type DismissMsg struct {
	Reason events.DismissReason
}

// OptionsMsg replaces the engine's mapper options.
type OptionsMsg struct {
	Options decision.MapOptions
}

// EnvelopeMsg injects an event that arrived from outside the terminal, such
// as a dismissal decided by another process.
type EnvelopeMsg struct {
	Envelope events.Envelope
}

// dispatchMsg carries a timer callback onto the update loop.
type dispatchMsg struct {
	fn func()
}

// Overlay wraps a host model and draws the engine's overlay over its view.
type Overlay struct {
	host   tea.Model
	engine *Engine
}

// Wrap returns host with the engine's overlay on top.
func Wrap(host tea.Model, engine *Engine) *Overlay {
	return &Overlay{host: host, engine: engine}
}

// Attach routes the engine's timers through p. Call it after tea.NewProgram
// and before p.Run; callbacks that fire earlier are queued until then.
func (o *Overlay) Attach(p *tea.Program) {
	if o.engine.dispatcher == nil {
		return
	}
	o.engine.dispatcher.Bind(func(fn func()) {
		p.Send(dispatchMsg{fn: fn})
	})
}

// Host returns the wrapped model.
func (o *Overlay) Host() tea.Model {
	return o.host
}

// Engine returns the wrapped engine.
func (o *Overlay) Engine() *Engine {
	return o.engine
}

func (o *Overlay) Init() tea.Cmd {
	return o.host.Init()
}

func (o *Overlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	handled, cmd := o.engine.Update(msg)
	if handled {
		return o, cmd
	}
	var hostCmd tea.Cmd
	o.host, hostCmd = o.host.Update(msg)
	return o, tea.Batch(cmd, hostCmd)
}

func (o *Overlay) View() string {
	return o.engine.View(o.host.View())
}
