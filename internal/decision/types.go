// Package decision defines the wire and UI representations of a nudge
// decision and the pure mapping between them.
package decision

import (
	"encoding/json"
	"errors"
	"maps"
	"time"
)

// TemplateID names the visual template that renders a nudge.
type TemplateID string

const (
	TemplateTooltip    TemplateID = "tooltip"
	TemplateModal      TemplateID = "modal"
	TemplateBanner     TemplateID = "banner"
	TemplateSpotlight  TemplateID = "spotlight"
	TemplateInlineHint TemplateID = "inline_hint"
)

// Quadrant is one of six viewport regions used for non-anchored placement.
type Quadrant string

const (
	QuadrantTopLeft      Quadrant = "topLeft"
	QuadrantTopCenter    Quadrant = "topCenter"
	QuadrantTopRight     Quadrant = "topRight"
	QuadrantBottomLeft   Quadrant = "bottomLeft"
	QuadrantBottomCenter Quadrant = "bottomCenter"
	QuadrantBottomRight  Quadrant = "bottomRight"
)

// DefaultQuadrant is used whenever a decision carries no quadrant.
const DefaultQuadrant = QuadrantTopCenter

// FrictionType describes how strongly a nudge interrupts the user.
type FrictionType string

const (
	FrictionNone FrictionType = "none"
	FrictionSoft FrictionType = "soft"
	FrictionHard FrictionType = "hard"
)

// Severity is a UI-only hint supplied by the consumer, never by the wire.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var (
	// ErrMissingID is returned for decisions without a nudge id.
	ErrMissingID = errors.New("decision: missing nudge id")
	// ErrInvalidDecision wraps schema and syntax failures on the wire payload.
	ErrInvalidDecision = errors.New("decision: invalid wire decision")
)

// WireNudgeDecision is the decision exactly as received from the backend.
// Treat values as immutable once received.
type WireNudgeDecision struct {
	NudgeID      string         `json:"nudgeId" yaml:"nudgeId"`
	TemplateID   TemplateID     `json:"templateId" yaml:"templateId"`
	Title        string         `json:"title,omitempty" yaml:"title,omitempty"`
	Body         string         `json:"body,omitempty" yaml:"body,omitempty"`
	CTAText      string         `json:"ctaText,omitempty" yaml:"ctaText,omitempty"`
	SlotID       string         `json:"slotId,omitempty" yaml:"slotId,omitempty"`
	Quadrant     Quadrant       `json:"quadrant,omitempty" yaml:"quadrant,omitempty"`
	FrictionType FrictionType   `json:"frictionType,omitempty" yaml:"frictionType,omitempty"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Extra        map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Validate reports structural problems that make a decision unusable.
func (w WireNudgeDecision) Validate() error {
	if w.NudgeID == "" {
		return ErrMissingID
	}
	return nil
}

// Expired reports whether the decision's expiry is at or before now.
func (w WireNudgeDecision) Expired(now time.Time) bool {
	return w.ExpiresAt != nil && !w.ExpiresAt.After(now)
}

// UINudgeDecision is the UI-normalized projection of a wire decision.
type UINudgeDecision struct {
	ID            string         `json:"id" yaml:"id"`
	TemplateID    TemplateID     `json:"templateId" yaml:"templateId"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	Body          string         `json:"body,omitempty" yaml:"body,omitempty"`
	CTAText       string         `json:"ctaText,omitempty" yaml:"ctaText,omitempty"`
	Severity      Severity       `json:"severity,omitempty" yaml:"severity,omitempty"`
	TargetID      *string        `json:"targetId" yaml:"targetId"`
	Dismissible   bool           `json:"dismissible" yaml:"dismissible"`
	AutoDismissMs *int           `json:"autoDismissMs" yaml:"autoDismissMs"`
	Quadrant      Quadrant       `json:"quadrant" yaml:"quadrant"`
	FrictionType  FrictionType   `json:"frictionType,omitempty" yaml:"frictionType,omitempty"`
	Extra         map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// AutoDismiss returns the auto-dismiss delay, or zero when the nudge persists.
func (d UINudgeDecision) AutoDismiss() time.Duration {
	if d.AutoDismissMs == nil || *d.AutoDismissMs <= 0 {
		return 0
	}
	return time.Duration(*d.AutoDismissMs) * time.Millisecond
}

// Target returns the target id and whether one is set.
func (d UINudgeDecision) Target() (string, bool) {
	if d.TargetID == nil {
		return "", false
	}
	return *d.TargetID, true
}

// Equal reports whether two UI decisions render the same. Extra values are
// compared as JSON scalars; any other value type counts as a change.
func (d UINudgeDecision) Equal(o UINudgeDecision) bool {
	return d.ID == o.ID &&
		d.TemplateID == o.TemplateID &&
		d.Title == o.Title &&
		d.Body == o.Body &&
		d.CTAText == o.CTAText &&
		d.Severity == o.Severity &&
		equalPtr(d.TargetID, o.TargetID) &&
		d.Dismissible == o.Dismissible &&
		equalPtr(d.AutoDismissMs, o.AutoDismissMs) &&
		d.Quadrant == o.Quadrant &&
		d.FrictionType == o.FrictionType &&
		maps.EqualFunc(d.Extra, o.Extra, sameScalar)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameScalar(x, y any) bool {
	switch x := x.(type) {
	case nil:
		return y == nil
	case string:
		v, ok := y.(string)
		return ok && x == v
	case bool:
		v, ok := y.(bool)
		return ok && x == v
	case float64:
		v, ok := y.(float64)
		return ok && x == v
	case int:
		v, ok := y.(int)
		return ok && x == v
	case json.Number:
		v, ok := y.(json.Number)
		return ok && x == v
	}
	return false
}
