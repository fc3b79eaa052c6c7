package position

import "reveal/internal/decision"

// Edge is the overlay edge that carries the directional indicator.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
)

// Direction is where the indicator points.
type Direction string

const (
	PointUp   Direction = "up"
	PointDown Direction = "down"
)

// Arrow describes a directional indicator relative to the overlay box.
type Arrow struct {
	Edge      Edge
	Direction Direction
	Offset    int // column inside the overlay
}

// Glyph returns the character drawn for the arrow.
func (a Arrow) Glyph() string {
	if a.Direction == PointUp {
		return "▲"
	}
	return "▼"
}

// ArrowFor places the indicator for a quadrant placement. Top-row overlays
// point down from their bottom edge, bottom-row overlays point up from their
// top edge. The column is always centered.
func ArrowFor(q decision.Quadrant, overlayWidth int) Arrow {
	offset := overlayWidth / 2
	if IsTopRow(q) {
		return Arrow{Edge: EdgeBottom, Direction: PointDown, Offset: offset}
	}
	return Arrow{Edge: EdgeTop, Direction: PointUp, Offset: offset}
}

// Anchor places the overlay next to a target box: below targets whose center
// is in the upper half, above the rest, horizontally centered on the target.
func Anchor(target Rect, overlay, viewport Size) (Result, Arrow) {
	if overlay.IsZero() {
		overlay = EstimatedSize
	}

	left := target.Left + (target.Width-overlay.Width)/2
	var top int
	var arrow Arrow
	if target.Top+target.Height/2 < viewport.Height/2 {
		top = target.Top + target.Height
		arrow = Arrow{Edge: EdgeTop, Direction: PointUp}
	} else {
		top = target.Top - overlay.Height
		arrow = Arrow{Edge: EdgeBottom, Direction: PointDown}
	}

	res := Result{
		Top:  clamp(top, 0, viewport.Height-overlay.Height),
		Left: clamp(left, 0, viewport.Width-overlay.Width),
	}

	// Keep the arrow over the target's center even after clamping.
	center := target.Left + target.Width/2
	arrow.Offset = clamp(center-res.Left, 0, overlay.Width-1)
	return res, arrow
}
