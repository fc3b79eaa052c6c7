package decision

import "maps"

// MapOptions carries consumer-side overrides. Nil fields fall through to the
// wire value or the protocol default.
type MapOptions struct {
	TargetID      *string
	Dismissible   *bool
	AutoDismissMs *int
	Severity      Severity
}

// MapWireToUI projects a wire decision into its UI form.
//
// The resolution rules are part of the wire protocol and must match every
// other consumer of it:
//
//	targetId      = opts.TargetID ?? wire.slotId ?? null
//	dismissible   = opts.Dismissible ?? true
//	autoDismissMs = opts.AutoDismissMs ?? null
//	quadrant      = wire.quadrant ?? topCenter
func MapWireToUI(wire WireNudgeDecision, opts *MapOptions) UINudgeDecision {
	if opts == nil {
		opts = &MapOptions{}
	}

	ui := UINudgeDecision{
		ID:           wire.NudgeID,
		TemplateID:   wire.TemplateID,
		Title:        wire.Title,
		Body:         wire.Body,
		CTAText:      wire.CTAText,
		Severity:     opts.Severity,
		Dismissible:  true,
		Quadrant:     wire.Quadrant,
		FrictionType: wire.FrictionType,
	}

	switch {
	case opts.TargetID != nil:
		ui.TargetID = cloneString(opts.TargetID)
	case wire.SlotID != "":
		slot := wire.SlotID
		ui.TargetID = &slot
	}

	if opts.Dismissible != nil {
		ui.Dismissible = *opts.Dismissible
	}
	if opts.AutoDismissMs != nil {
		ms := *opts.AutoDismissMs
		ui.AutoDismissMs = &ms
	}
	if ui.Quadrant == "" {
		ui.Quadrant = DefaultQuadrant
	}
	if wire.Extra != nil {
		ui.Extra = maps.Clone(wire.Extra)
	}
	return ui
}

func cloneString(s *string) *string {
	v := *s
	return &v
}
