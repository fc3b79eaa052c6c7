// Package events defines the cross-boundary event contract between a
// rendering surface and the code hosting it. Each wire name has its own typed
// payload and topic, so handlers never type-switch on a generic event.
package events

import (
	"encoding/json"
	"fmt"
)

// Name is a stable wire name for an event.
type Name string

const (
	NameShown       Name = "reveal:shown"
	NameDismiss     Name = "reveal:dismiss"
	NameActionClick Name = "reveal:action-click"
)

// DismissReason explains why a nudge went away.
type DismissReason string

const (
	ReasonClick      DismissReason = "click"
	ReasonFocus      DismissReason = "focus"
	ReasonScroll     DismissReason = "scroll"
	ReasonEsc        DismissReason = "esc"
	ReasonNavigation DismissReason = "navigation"
	ReasonTabHidden  DismissReason = "tab_hidden"
	ReasonManual     DismissReason = "manual"
	ReasonAuto       DismissReason = "auto"

	// ReasonTargetNotFound is diagnostic: the nudge never rendered.
	ReasonTargetNotFound DismissReason = "target_not_found"
)

// Diagnostic reports whether the reason describes a failure to render rather
// than something the user saw go away.
func (r DismissReason) Diagnostic() bool {
	return r == ReasonTargetNotFound
}

// Shown is the payload of reveal:shown.
type Shown struct {
	ID string `json:"id"`
}

// Dismiss is the payload of reveal:dismiss.
type Dismiss struct {
	ID     string        `json:"id"`
	Reason DismissReason `json:"reason,omitempty"`
}

// ActionClick is the payload of reveal:action-click.
type ActionClick struct {
	ID string `json:"id"`
}

// Envelope is the serialized form of an event for hosts that carry events
// across a process or transport boundary.
type Envelope struct {
	Type   Name            `json:"type"`
	Detail json.RawMessage `json:"detail"`
}

// Wrap serializes a typed payload into an envelope.
func Wrap(payload any) (Envelope, error) {
	var name Name
	switch payload.(type) {
	case Shown:
		name = NameShown
	case Dismiss:
		name = NameDismiss
	case ActionClick:
		name = NameActionClick
	default:
		return Envelope{}, fmt.Errorf("events: unsupported payload %T", payload)
	}
	detail, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: name, Detail: detail}, nil
}

// Deliver decodes the envelope and emits it on the channel.
func (e Envelope) Deliver(ch *Channel) error {
	switch e.Type {
	case NameShown:
		var p Shown
		if err := json.Unmarshal(e.Detail, &p); err != nil {
			return fmt.Errorf("events: decode %s: %w", e.Type, err)
		}
		ch.EmitShown(p)
	case NameDismiss:
		var p Dismiss
		if err := json.Unmarshal(e.Detail, &p); err != nil {
			return fmt.Errorf("events: decode %s: %w", e.Type, err)
		}
		ch.EmitDismiss(p)
	case NameActionClick:
		var p ActionClick
		if err := json.Unmarshal(e.Detail, &p); err != nil {
			return fmt.Errorf("events: decode %s: %w", e.Type, err)
		}
		ch.EmitActionClick(p)
	default:
		return fmt.Errorf("events: unknown event %q", e.Type)
	}
	return nil
}

// DecodeEnvelope parses the serialized form produced by Wrap. The event name
// must be known; the detail is decoded later by Deliver.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("events: decode envelope: %w", err)
	}
	switch e.Type {
	case NameShown, NameDismiss, NameActionClick:
		return e, nil
	default:
		return Envelope{}, fmt.Errorf("events: unknown event %q", e.Type)
	}
}
