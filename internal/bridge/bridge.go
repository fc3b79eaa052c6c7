// Package bridge delivers interaction events from a rendering surface to the
// host's callbacks. It subscribes to a typed events.Channel, drops events for
// decisions that are no longer active, routes dismissals through the
// lifecycle gate so each id ends once, and guarantees at most one "shown"
// tracking event per id through a ShownRegistry.
package bridge

import (
	"reveal/internal/events"
	"reveal/internal/logging"
)

// Tracking vocabulary emitted through Callbacks.OnTrack.
const (
	TrackKind          = "nudge"
	TrackShown         = "nudge_shown"
	TrackDismissed     = "nudge_dismissed"
	TrackActionClicked = "nudge_action_clicked"
)

// Callbacks are the host-facing outputs. Any of them may be nil.
type Callbacks struct {
	OnDismiss     func(id string)
	OnActionClick func(id string)
	OnTrack       func(kind, name string, payload map[string]any)
}

// Gate is the authority on which decision is active and whether a dismissal
// is the first one for its id.
type Gate interface {
	ActiveID() string
	Dismiss(id string, reason events.DismissReason) bool
	MarkShown(id string)
}

// Bridge connects one event channel to host callbacks.
type Bridge struct {
	gate      Gate
	registry  ShownRegistry
	callbacks Callbacks

	unsubs   []events.Unsubscribe
	attached bool
}

// New creates a bridge. A nil registry falls back to ProcessRegistry.
func New(gate Gate, registry ShownRegistry, cb Callbacks) *Bridge {
	if registry == nil {
		registry = ProcessRegistry()
	}
	return &Bridge{gate: gate, registry: registry, callbacks: cb}
}

// SetCallbacks swaps the host callbacks without touching subscriptions, so a
// host re-rendering with fresh closures keeps its listeners.
func (b *Bridge) SetCallbacks(cb Callbacks) {
	b.callbacks = cb
}

// Attach subscribes to ch. Attaching again first detaches.
func (b *Bridge) Attach(ch *events.Channel) {
	b.Detach()
	b.unsubs = []events.Unsubscribe{
		ch.OnShown(b.handleShown),
		ch.OnDismiss(b.handleDismiss),
		ch.OnActionClick(b.handleActionClick),
	}
	b.attached = true
}

// Detach deregisters every listener. Nothing reaches the host afterwards.
func (b *Bridge) Detach() {
	for _, u := range b.unsubs {
		u()
	}
	b.unsubs = nil
	b.attached = false
}

// Attached reports whether listeners are registered.
func (b *Bridge) Attached() bool {
	return b.attached
}

// Dismissed is the lifecycle hook: the gate calls it once per id when the
// decision ends, whether by user action or auto-dismiss.
func (b *Bridge) Dismissed(id string, reason events.DismissReason) {
	if !b.attached {
		return
	}
	b.track(TrackDismissed, map[string]any{"nudgeId": id, "reason": string(reason)})
	if reason.Diagnostic() {
		return
	}
	if cb := b.callbacks.OnDismiss; cb != nil {
		b.safely("onDismiss", func() { cb(id) })
	}
}

func (b *Bridge) handleShown(p events.Shown) {
	if !b.correlated(events.NameShown, p.ID) {
		return
	}
	b.gate.MarkShown(p.ID)
	if !b.registry.MarkShown(p.ID) {
		logging.BridgeDebug("shown for %s already tracked", p.ID)
		return
	}
	b.track(TrackShown, map[string]any{"nudgeId": p.ID})
}

func (b *Bridge) handleDismiss(p events.Dismiss) {
	if !b.correlated(events.NameDismiss, p.ID) {
		return
	}
	reason := p.Reason
	if reason == "" {
		reason = events.ReasonManual
	}
	b.gate.Dismiss(p.ID, reason)
}

func (b *Bridge) handleActionClick(p events.ActionClick) {
	if !b.correlated(events.NameActionClick, p.ID) {
		return
	}
	b.track(TrackActionClicked, map[string]any{"nudgeId": p.ID})
	if cb := b.callbacks.OnActionClick; cb != nil {
		b.safely("onActionClick", func() { cb(p.ID) })
	}
}

func (b *Bridge) correlated(name events.Name, id string) bool {
	active := b.gate.ActiveID()
	if id == "" || id != active {
		logging.BridgeDebug("discarding %s for %q (active %q)", name, id, active)
		return false
	}
	return true
}

func (b *Bridge) track(name string, payload map[string]any) {
	if cb := b.callbacks.OnTrack; cb != nil {
		b.safely("onTrack", func() { cb(TrackKind, name, payload) })
	}
}

// safely runs a host callback; a panicking host must not take the engine
// down with it.
func (b *Bridge) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.BridgeError("host callback %s panicked: %v", name, r)
		}
	}()
	fn()
}
