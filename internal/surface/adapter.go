package surface

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/logging"
	"reveal/internal/position"
	"reveal/internal/schedule"
	"reveal/internal/template"
)

// DefaultLayoutRetries is when layout passes run after a mount or resize,
// measured from that moment.
var DefaultLayoutRetries = []time.Duration{0, 16 * time.Millisecond, 50 * time.Millisecond, 150 * time.Millisecond}

// TargetResolver finds the on-screen box of a host element by id.
type TargetResolver interface {
	Resolve(targetID string) (position.Rect, bool)
}

// TargetFunc adapts a function to TargetResolver.
type TargetFunc func(targetID string) (position.Rect, bool)

func (f TargetFunc) Resolve(targetID string) (position.Rect, bool) { return f(targetID) }

// Options configures an Adapter. Zero values fall back to defaults.
type Options struct {
	Root       *Root
	MountPoint string
	Router     *template.Router
	Scheduler  schedule.Scheduler
	Targets    TargetResolver
	Estimated  position.Size
	MaxWidth   int
	Retries    []time.Duration
}

func (o Options) withDefaults() Options {
	if o.Root == nil {
		o.Root = SharedRoot()
	}
	if o.MountPoint == "" {
		o.MountPoint = DefaultMountPoint
	}
	if o.Router == nil {
		o.Router = template.NewRouter()
	}
	if o.Estimated.IsZero() {
		o.Estimated = position.EstimatedSize
	}
	if o.Retries == nil {
		o.Retries = DefaultLayoutRetries
	}
	return o
}

// Adapter renders at most one decision into a layer of a shared mount point
// and reports shown/dismiss/action events on its channel.
type Adapter struct {
	opts Options
	ch   *events.Channel

	viewport position.Size

	id        string
	failedID  string
	current   decision.UINudgeDecision
	tpl       template.Template
	container *template.Container
	mp        *MountPoint
	layer     *Layer

	pos      position.Result
	size     position.Size
	placed   bool
	target   *position.Rect
	retry    schedule.Timer
	retryIdx int
	retryGen uint64
	prevPos  position.Result
	prevSize position.Size
	havePrev bool
	closed   bool
}

// NewAdapter creates an adapter with its own event channel.
func NewAdapter(opts Options) *Adapter {
	return &Adapter{opts: opts.withDefaults(), ch: events.NewChannel()}
}

// Events returns the channel the adapter emits on.
func (a *Adapter) Events() *events.Channel {
	return a.ch
}

// Render brings the surface in line with the decision. nil or !visible tears
// down any mounted template.
func (a *Adapter) Render(d *decision.UINudgeDecision, visible bool) {
	if a.closed {
		return
	}
	if d == nil || d.ID == "" || !visible {
		a.unmount()
		if d == nil || d.ID != a.failedID {
			a.failedID = ""
		}
		return
	}

	if a.tpl != nil && a.id == d.ID {
		if a.current.Equal(*d) {
			return
		}
		a.current = *d
		a.retarget()
		a.tpl.UpdateDecision(*d)
		a.layoutNow()
		return
	}
	if a.id != d.ID {
		a.unmount()
	}
	if a.failedID == d.ID {
		return
	}
	a.mount(*d)
}

func (a *Adapter) mount(d decision.UINudgeDecision) {
	a.target = nil
	if tid, ok := d.Target(); ok {
		rect, found := a.resolve(tid)
		if !found {
			logging.SurfaceDebug("target %q for %s not found", tid, d.ID)
			a.failedID = d.ID
			a.ch.EmitDismiss(events.Dismiss{ID: d.ID, Reason: events.ReasonTargetNotFound})
			return
		}
		a.target = &rect
	}

	tpl, ok := a.opts.Router.Route(d.TemplateID)
	if !ok {
		a.failedID = d.ID
		return
	}

	a.container = template.NewContainer(a.ch, a.opts.MaxWidth)
	a.container.Viewport = a.viewport
	tpl.Mount(a.container, d)

	a.mp = a.opts.Root.Acquire(a.opts.MountPoint)
	a.layer = a.opts.Root.AddLayer(a.mp, tpl.View)
	a.tpl = tpl
	a.id = d.ID
	a.current = d
	a.failedID = ""
	logging.SurfaceDebug("mounted %s (%s) in %s", d.ID, d.TemplateID, a.opts.MountPoint)

	// First paint uses the estimate; layout passes replace it with
	// measurements.
	a.apply(a.opts.Estimated)
	a.ch.EmitShown(events.Shown{ID: d.ID})
	a.startLayout()
}

// retarget follows a target id that changed on a mounted decision. A target
// that cannot be found falls back to quadrant placement.
func (a *Adapter) retarget() {
	a.target = nil
	tid, ok := a.current.Target()
	if !ok {
		return
	}
	if rect, found := a.resolve(tid); found {
		a.target = &rect
		return
	}
	logging.SurfaceDebug("target %q for %s not found, using quadrant", tid, a.id)
}

func (a *Adapter) resolve(id string) (position.Rect, bool) {
	if a.opts.Targets == nil {
		return position.Rect{}, false
	}
	return a.opts.Targets.Resolve(id)
}

func (a *Adapter) unmount() {
	a.cancelLayout()
	if a.tpl == nil {
		a.id = ""
		return
	}
	logging.SurfaceDebug("unmounting %s", a.id)
	a.tpl.Unmount()
	a.opts.Root.RemoveLayer(a.mp, a.layer)
	a.opts.Root.Release(a.mp)
	a.tpl = nil
	a.container = nil
	a.layer = nil
	a.mp = nil
	a.id = ""
	a.target = nil
	a.placed = false
	a.havePrev = false
}

// Resize records the viewport size and relays out immediately.
func (a *Adapter) Resize(width, height int) {
	a.viewport = position.Size{Width: width, Height: height}
	if a.container != nil {
		a.container.Viewport = a.viewport
	}
	if a.tpl == nil {
		return
	}
	a.layoutNow()
}

// layoutNow runs one pass and restarts the retry schedule.
func (a *Adapter) layoutNow() {
	a.apply(a.measure())
	a.startLayout()
}

func (a *Adapter) measure() position.Size {
	v := a.tpl.View()
	return position.Size{Width: lipgloss.Width(v), Height: lipgloss.Height(v)}
}

// apply computes the placement for an overlay of the given size and moves
// the layer when the result changed.
func (a *Adapter) apply(size position.Size) {
	if a.target != nil {
		if tid, ok := a.current.Target(); ok {
			if rect, found := a.resolve(tid); found {
				a.target = &rect
			}
		}
	}

	var pos position.Result
	switch {
	case a.isPlacer():
		pos = a.tpl.(template.Placer).Place(size, a.viewport)
		a.container.ClearArrow()
	case a.target != nil:
		var arrow position.Arrow
		pos, arrow = position.Anchor(*a.target, size, a.viewport)
		a.container.SetArrow(arrow)
	default:
		pos = position.Compute(a.current.Quadrant, size, a.viewport)
		a.container.SetArrow(position.ArrowFor(a.current.Quadrant, size.Width))
	}

	a.size = size
	if a.placed && pos == a.pos {
		return
	}
	a.pos = pos
	a.placed = true
	a.layer.Move(pos)
	logging.SurfaceDebug("%s placed at %d,%d (%dx%d)", a.id, pos.Top, pos.Left, size.Width, size.Height)
}

func (a *Adapter) isPlacer() bool {
	_, ok := a.tpl.(template.Placer)
	return ok
}

func (a *Adapter) startLayout() {
	a.cancelLayout()
	a.retryIdx = 0
	a.havePrev = false
	a.scheduleLayout()
}

func (a *Adapter) cancelLayout() {
	if a.retry != nil {
		a.retry.Stop()
		a.retry = nil
	}
	a.retryGen++
}

func (a *Adapter) scheduleLayout() {
	if a.opts.Scheduler == nil || a.retryIdx >= len(a.opts.Retries) {
		return
	}
	delay := a.opts.Retries[a.retryIdx]
	if a.retryIdx > 0 {
		delay -= a.opts.Retries[a.retryIdx-1]
	}
	gen := a.retryGen
	a.retry = a.opts.Scheduler.AfterFunc(max(delay, 0), func() {
		if gen != a.retryGen || a.tpl == nil {
			return
		}
		a.retry = nil
		a.layoutPass()
	})
}

func (a *Adapter) layoutPass() {
	a.retryIdx++
	a.apply(a.measure())
	if a.havePrev && a.prevPos == a.pos && a.prevSize == a.size {
		logging.SurfaceDebug("layout for %s settled after %d passes", a.id, a.retryIdx)
		return
	}
	a.prevPos, a.prevSize, a.havePrev = a.pos, a.size, true
	a.scheduleLayout()
}

// HandleMsg offers input to the mounted template and applies the
// click-outside and scroll dismissal rules. It reports whether the message
// was consumed by the overlay.
func (a *Adapter) HandleMsg(msg tea.Msg) bool {
	if a.tpl == nil || a.closed {
		return false
	}
	mouse, ok := msg.(tea.MouseMsg)
	if !ok {
		return a.tpl.HandleMsg(msg)
	}

	ev := tea.MouseEvent(mouse)
	if ev.IsWheel() {
		if a.current.Dismissible {
			a.ch.EmitDismiss(events.Dismiss{ID: a.id, Reason: events.ReasonScroll})
		}
		return false
	}
	if ev.Action != tea.MouseActionPress {
		return false
	}
	rect := a.Bounds()
	if rect.Contains(ev.Y, ev.X) {
		return a.tpl.HandleMsg(template.Click{Row: ev.Y - rect.Top, Col: ev.X - rect.Left})
	}
	if a.current.Dismissible {
		a.ch.EmitDismiss(events.Dismiss{ID: a.id, Reason: events.ReasonClick})
	}
	return false
}

// Bounds is the box the overlay occupies on screen.
func (a *Adapter) Bounds() position.Rect {
	return position.Rect{Top: a.pos.Top, Left: a.pos.Left, Width: a.size.Width, Height: a.size.Height}
}

// Position returns the current placement, if a template is mounted.
func (a *Adapter) Position() (position.Result, bool) {
	if a.tpl == nil {
		return position.Result{}, false
	}
	return a.pos, true
}

// Mounted returns the id of the mounted decision, or "".
func (a *Adapter) Mounted() string {
	return a.id
}

// LayoutPending reports whether a layout pass is scheduled.
func (a *Adapter) LayoutPending() bool {
	return a.retry != nil
}

// Teardown unmounts everything and closes the event channel. The adapter is
// inert afterwards.
func (a *Adapter) Teardown() {
	if a.closed {
		return
	}
	a.unmount()
	a.ch.Close()
	a.closed = true
}
