// Package position computes where an overlay lands inside the viewport.
// All coordinates are terminal cells with the origin at the top-left corner.
package position

import "reveal/internal/decision"

// Size is a width/height pair in cells.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether the size is unknown (not yet measured).
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Result is the top-left corner of an overlay.
type Result struct {
	Top  int
	Left int
}

// Rect is a placed box, used for anchor targets.
type Rect struct {
	Top    int
	Left   int
	Width  int
	Height int
}

// Contains reports whether the cell (row, col) lies inside the rectangle.
func (r Rect) Contains(row, col int) bool {
	return row >= r.Top && row < r.Top+r.Height && col >= r.Left && col < r.Left+r.Width
}

// EstimatedSize is substituted for an overlay that has not been laid out yet.
var EstimatedSize = Size{Width: 36, Height: 6}

type cell struct {
	row int // 0 = top, 1 = bottom
	col int // 0 = left, 1 = center, 2 = right
}

var cells = map[decision.Quadrant]cell{
	decision.QuadrantTopLeft:      {0, 0},
	decision.QuadrantTopCenter:    {0, 1},
	decision.QuadrantTopRight:     {0, 2},
	decision.QuadrantBottomLeft:   {1, 0},
	decision.QuadrantBottomCenter: {1, 1},
	decision.QuadrantBottomRight:  {1, 2},
}

// Normalize maps absent or unrecognized quadrants to the default.
func Normalize(q decision.Quadrant) decision.Quadrant {
	if _, ok := cells[q]; ok {
		return q
	}
	return decision.DefaultQuadrant
}

// IsTopRow reports whether the quadrant sits in the upper half.
func IsTopRow(q decision.Quadrant) bool {
	return cells[Normalize(q)].row == 0
}

// Compute centers the overlay inside its quadrant cell and clamps it to the
// viewport. An unknown overlay size is replaced by EstimatedSize.
func Compute(q decision.Quadrant, overlay, viewport Size) Result {
	if overlay.IsZero() {
		overlay = EstimatedSize
	}
	c := cells[Normalize(q)]

	colLeft := c.col * viewport.Width / 3
	colRight := (c.col + 1) * viewport.Width / 3
	rowTop := 0
	rowBottom := viewport.Height / 2
	if c.row == 1 {
		rowTop = viewport.Height / 2
		rowBottom = viewport.Height
	}

	left := colLeft + (colRight-colLeft-overlay.Width)/2
	top := rowTop + (rowBottom-rowTop-overlay.Height)/2

	return Result{
		Top:  clamp(top, 0, viewport.Height-overlay.Height),
		Left: clamp(left, 0, viewport.Width-overlay.Width),
	}
}

// Center places the overlay in the middle of the viewport.
func Center(overlay, viewport Size) Result {
	if overlay.IsZero() {
		overlay = EstimatedSize
	}
	return Result{
		Top:  clamp((viewport.Height-overlay.Height)/2, 0, viewport.Height-overlay.Height),
		Left: clamp((viewport.Width-overlay.Width)/2, 0, viewport.Width-overlay.Width),
	}
}

// clamp bounds v to [lo, hi]; when hi < lo (overlay larger than viewport)
// the overlay is pinned to lo.
func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
