// Package lifecycle owns the visibility state machine of the active nudge.
//
// One decision is held at a time. A decision with a new id starts ACTIVE and
// visible; it ends DISMISSED through a manual dismiss or its auto-dismiss
// timer, exactly once. Replacing or clearing the decision never reports a
// dismissal for the superseded id.
package lifecycle

import (
	"time"

	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/logging"
	"reveal/internal/schedule"
)

// Phase is the state of the held decision.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseActive    Phase = "active"
	PhaseDismissed Phase = "dismissed"
)

// Visibility is the externally visible state for the held decision id.
type Visibility struct {
	IsVisible    bool
	HasBeenShown bool
	IsDismissed  bool
}

// DismissHook receives the single terminal dismissal of an id.
type DismissHook func(id string, reason events.DismissReason)

// Controller is the per-engine state machine. It is not safe for concurrent
// use; callers drive it from the UI loop.
type Controller struct {
	sched     schedule.Scheduler
	onDismiss DismissHook

	current *decision.UINudgeDecision
	phase   Phase
	vis     Visibility

	timer    schedule.Timer
	timerFor time.Duration
	timerGen uint64
	closed   bool
}

// NewController creates a controller. onDismiss may be nil.
func NewController(sched schedule.Scheduler, onDismiss DismissHook) *Controller {
	return &Controller{
		sched:     sched,
		onDismiss: onDismiss,
		phase:     PhaseIdle,
	}
}

// SetDismissHook replaces the dismissal hook.
func (c *Controller) SetDismissHook(h DismissHook) {
	c.onDismiss = h
}

// SetDecision installs the next decision. nil, or a decision without an id,
// clears the state without reporting a dismissal.
func (c *Controller) SetDecision(d *decision.UINudgeDecision) {
	if c.closed {
		return
	}
	if d == nil || d.ID == "" {
		if d != nil {
			logging.LifecycleDebug("ignoring decision without id")
		}
		c.clear()
		return
	}

	next := *d
	if c.current != nil && c.current.ID == next.ID {
		c.current = &next
		if c.phase == PhaseActive && next.AutoDismiss() != c.timerFor {
			logging.LifecycleDebug("auto-dismiss for %s changed to %s, re-arming", next.ID, next.AutoDismiss())
			c.arm(next.ID, next.AutoDismiss())
		}
		return
	}

	if c.current != nil {
		logging.LifecycleDebug("decision %s superseded by %s", c.current.ID, next.ID)
	}
	c.cancelTimer()
	c.current = &next
	c.phase = PhaseActive
	c.vis = Visibility{IsVisible: true}
	c.arm(next.ID, next.AutoDismiss())
}

// Dismiss ends the active decision. It reports whether this call performed
// the transition; stale ids and repeated calls return false.
func (c *Controller) Dismiss(id string, reason events.DismissReason) bool {
	if c.closed || c.current == nil || c.current.ID != id || c.phase != PhaseActive {
		return false
	}
	c.cancelTimer()
	c.phase = PhaseDismissed
	c.vis.IsVisible = false
	c.vis.IsDismissed = true
	logging.LifecycleDebug("decision %s dismissed (%s)", id, reason)

	if c.onDismiss != nil {
		c.onDismiss(id, reason)
	}
	return true
}

// MarkShown records that the active decision reached the screen.
func (c *Controller) MarkShown(id string) {
	if c.current != nil && c.current.ID == id && c.phase == PhaseActive {
		c.vis.HasBeenShown = true
	}
}

// Visibility returns a snapshot of the current state.
func (c *Controller) Visibility() Visibility {
	return c.vis
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Current returns the held decision, whatever its phase.
func (c *Controller) Current() (decision.UINudgeDecision, bool) {
	if c.current == nil {
		return decision.UINudgeDecision{}, false
	}
	return *c.current, true
}

// ActiveID returns the id of the held decision, or "".
func (c *Controller) ActiveID() string {
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

// Close cancels the timer; the controller ignores everything afterwards.
func (c *Controller) Close() {
	c.cancelTimer()
	c.closed = true
}

func (c *Controller) clear() {
	c.cancelTimer()
	c.current = nil
	c.phase = PhaseIdle
	c.vis = Visibility{}
}

// arm replaces the timer handle. Each handle carries a generation so a
// callback that raced with a replacement cannot touch newer state.
func (c *Controller) arm(id string, d time.Duration) {
	c.cancelTimer()
	c.timerFor = d
	if d <= 0 || c.sched == nil {
		return
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = c.sched.AfterFunc(d, func() {
		if gen != c.timerGen {
			return
		}
		c.timer = nil
		c.Dismiss(id, events.ReasonAuto)
	})
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
	c.timerFor = 0
}
