// Package nudge wires the decision mapper, lifecycle controller, surface
// adapter and event bridge into one engine, and wraps any Bubble Tea model
// so the engine's overlay is drawn on top of it.
package nudge

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reveal/internal/bridge"
	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/lifecycle"
	"reveal/internal/logging"
	"reveal/internal/position"
	"reveal/internal/schedule"
	"reveal/internal/surface"
	"reveal/internal/template"
)

// Options configures an Engine. Everything is optional.
type Options struct {
	Callbacks bridge.Callbacks
	// Registry defaults to bridge.ProcessRegistry.
	Registry bridge.ShownRegistry
	// Root defaults to surface.SharedRoot.
	Root   *surface.Root
	Router *template.Router
	// Scheduler defaults to a Dispatcher bound by Overlay.Attach.
	Scheduler schedule.Scheduler
	Targets   surface.TargetResolver
	Defaults  decision.MapOptions
	Now       func() time.Time

	MountPoint string
	Estimated  position.Size
	MaxWidth   int
	Retries    []time.Duration
}

// Engine renders at most one nudge decision at a time. Every method must be
// called from the UI loop.
type Engine struct {
	ctrl       *lifecycle.Controller
	bridge     *bridge.Bridge
	adapter    *surface.Adapter
	root       *surface.Root
	dispatcher *schedule.Dispatcher
	defaults   decision.MapOptions
	wire       *decision.WireNudgeDecision
	now        func() time.Time

	width, height int
	closed        bool
}

// New builds an engine and attaches its bridge.
func New(opts Options) *Engine {
	e := &Engine{defaults: opts.Defaults, now: opts.Now, root: opts.Root}
	if e.now == nil {
		e.now = time.Now
	}
	if e.root == nil {
		e.root = surface.SharedRoot()
	}

	sched := opts.Scheduler
	if sched == nil {
		e.dispatcher = schedule.NewDispatcher(nil)
		sched = e.dispatcher
	}

	e.ctrl = lifecycle.NewController(sched, nil)
	e.bridge = bridge.New(e.ctrl, opts.Registry, opts.Callbacks)
	e.ctrl.SetDismissHook(e.dismissed)
	e.adapter = surface.NewAdapter(surface.Options{
		Root:       e.root,
		MountPoint: opts.MountPoint,
		Router:     opts.Router,
		Scheduler:  sched,
		Targets:    opts.Targets,
		Estimated:  opts.Estimated,
		MaxWidth:   opts.MaxWidth,
		Retries:    opts.Retries,
	})
	e.bridge.Attach(e.adapter.Events())
	return e
}

// SetDecision installs the next wire decision; nil clears. Invalid and
// expired decisions clear as well.
func (e *Engine) SetDecision(w *decision.WireNudgeDecision) {
	if e.closed {
		return
	}
	e.wire = nil
	if w == nil {
		e.ctrl.SetDecision(nil)
		e.sync()
		return
	}
	if err := w.Validate(); err != nil {
		logging.DecisionDebug("ignoring decision: %v", err)
		e.ctrl.SetDecision(nil)
		e.sync()
		return
	}
	if w.Expired(e.now()) {
		logging.DecisionDebug("ignoring expired decision %s (expired %s)", w.NudgeID, w.ExpiresAt.Format(time.RFC3339))
		e.ctrl.SetDecision(nil)
		e.sync()
		return
	}

	held := *w
	e.wire = &held
	e.apply()
}

// SetOptions replaces the mapper options and re-maps the held decision, so
// a new auto-dismiss delay, target or dismissibility takes effect on the
// decision already on screen. A changed delay restarts the timer from now.
func (e *Engine) SetOptions(opts decision.MapOptions) {
	if e.closed {
		return
	}
	e.defaults = opts
	if e.wire == nil {
		return
	}
	e.apply()
}

func (e *Engine) apply() {
	ui := decision.MapWireToUI(*e.wire, &e.defaults)
	logging.DecisionDebug("decision %s mapped: template=%s quadrant=%s", ui.ID, ui.TemplateID, ui.Quadrant)
	e.ctrl.SetDecision(&ui)
	e.sync()
}

// Dismiss ends the active decision for a host-side reason such as
// navigation. It reports whether anything was dismissed.
func (e *Engine) Dismiss(reason events.DismissReason) bool {
	if e.closed {
		return false
	}
	id := e.ctrl.ActiveID()
	if id == "" {
		return false
	}
	return e.ctrl.Dismiss(id, reason)
}

// SetCallbacks replaces the host callbacks.
func (e *Engine) SetCallbacks(cb bridge.Callbacks) {
	e.bridge.SetCallbacks(cb)
}

// Resize tells the engine the viewport size.
func (e *Engine) Resize(width, height int) {
	e.width, e.height = width, height
	e.adapter.Resize(width, height)
}

// Update handles engine messages and input. handled is true when the message
// belonged to the engine and must not reach the host.
func (e *Engine) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	if e.closed {
		return false, nil
	}
	switch msg := msg.(type) {
	case DecisionMsg:
		e.SetDecision(msg.Decision)
		return true, nil
	case DismissMsg:
		e.Dismiss(msg.Reason)
		return true, nil
	case OptionsMsg:
		e.SetOptions(msg.Options)
		return true, nil
	case EnvelopeMsg:
		if err := msg.Envelope.Deliver(e.Events()); err != nil {
			logging.BridgeDebug("dropping injected event: %v", err)
		}
		return true, nil
	case dispatchMsg:
		msg.fn()
		return true, nil
	case tea.WindowSizeMsg:
		e.Resize(msg.Width, msg.Height)
		return false, nil
	case tea.BlurMsg:
		e.Dismiss(events.ReasonTabHidden)
		return false, nil
	case tea.KeyMsg, tea.MouseMsg:
		return e.adapter.HandleMsg(msg), nil
	}
	return false, nil
}

// View draws the overlay over base.
func (e *Engine) View(base string) string {
	return e.root.Composite(base, e.width, e.height)
}

// Visibility returns the lifecycle state of the held decision.
func (e *Engine) Visibility() lifecycle.Visibility {
	return e.ctrl.Visibility()
}

// Current returns the held decision.
func (e *Engine) Current() (decision.UINudgeDecision, bool) {
	return e.ctrl.Current()
}

// Position returns where the overlay is drawn, if it is.
func (e *Engine) Position() (position.Result, bool) {
	return e.adapter.Position()
}

// Events exposes the surface's event channel, for hosts that inject events
// from outside the terminal (see events.Envelope).
func (e *Engine) Events() *events.Channel {
	return e.adapter.Events()
}

// Close tears down the overlay and cancels all timers. No callback fires
// afterwards.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.bridge.Detach()
	e.adapter.Teardown()
	e.ctrl.Close()
}

func (e *Engine) dismissed(id string, reason events.DismissReason) {
	e.bridge.Dismissed(id, reason)
	e.sync()
}

func (e *Engine) sync() {
	cur, ok := e.ctrl.Current()
	if !ok {
		e.adapter.Render(nil, false)
		return
	}
	e.adapter.Render(&cur, e.ctrl.Visibility().IsVisible)
}
