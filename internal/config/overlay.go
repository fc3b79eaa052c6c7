package config

import (
	"fmt"
	"time"

	"reveal/internal/decision"
	"reveal/internal/position"
)

// OverlayConfig tunes the rendering surface.
type OverlayConfig struct {
	MountPoint      string `yaml:"mount_point"`
	EstimatedWidth  int    `yaml:"estimated_width"`
	EstimatedHeight int    `yaml:"estimated_height"`
	MaxWidth        int    `yaml:"max_width"`

	// Offsets from mount at which placement is re-measured.
	LayoutRetries []time.Duration `yaml:"layout_retries"`
}

// Estimated is the size assumed for the first paint.
func (o OverlayConfig) Estimated() position.Size {
	return position.Size{Width: o.EstimatedWidth, Height: o.EstimatedHeight}
}

// DefaultsConfig holds engine-level presentation defaults. Values carried on
// a decision always win.
type DefaultsConfig struct {
	Dismissible bool              `yaml:"dismissible"`
	AutoDismiss time.Duration     `yaml:"auto_dismiss"` // 0 = persist until dismissed
	Severity    decision.Severity `yaml:"severity"`
}

// MapOptions builds the mapper options the engine applies to every decision.
func (d DefaultsConfig) MapOptions() decision.MapOptions {
	dismissible := d.Dismissible
	opts := decision.MapOptions{
		Dismissible: &dismissible,
		Severity:    d.Severity,
	}
	if d.AutoDismiss > 0 {
		ms := int(d.AutoDismiss / time.Millisecond)
		opts.AutoDismissMs = &ms
	}
	return opts
}

func (d DefaultsConfig) validSeverity() error {
	switch d.Severity {
	case "", decision.SeverityInfo, decision.SeveritySuccess, decision.SeverityWarning, decision.SeverityCritical:
		return nil
	}
	return fmt.Errorf("%w: unknown severity %q", ErrInvalid, d.Severity)
}
