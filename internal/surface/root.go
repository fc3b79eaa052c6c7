// Package surface attaches rendered templates to an isolated overlay region
// of the host's frame and composites them over it.
package surface

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"reveal/internal/logging"
	"reveal/internal/position"
)

// DefaultMountPoint is the name of the overlay region unless configured.
const DefaultMountPoint = "reveal-overlay"

// Root is a host view root. Mount points live on it and are shared by every
// adapter that asks for the same name.
type Root struct {
	mu     sync.Mutex
	mounts map[string]*MountPoint
	order  []string
	nextID uint64
}

// MountPoint is a named overlay region holding layers.
type MountPoint struct {
	name   string
	refs   int
	layers []*Layer
}

// Name returns the mount point's name.
func (m *MountPoint) Name() string { return m.name }

// Layer is one overlay drawn into a mount point.
type Layer struct {
	root    *Root
	id      uint64
	render  func() string
	pos     position.Result
	visible bool
}

// NewRoot creates an empty root.
func NewRoot() *Root {
	return &Root{mounts: make(map[string]*MountPoint)}
}

var sharedRoot = NewRoot()

// SharedRoot returns the process-wide root.
func SharedRoot() *Root {
	return sharedRoot
}

// Acquire returns the mount point called name, creating it if needed, and
// takes a reference on it.
func (r *Root) Acquire(name string) *MountPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.mounts[name]
	if !ok {
		mp = &MountPoint{name: name}
		r.mounts[name] = mp
		r.order = append(r.order, name)
		logging.SurfaceDebug("mount point %s created", name)
	}
	mp.refs++
	return mp
}

// Release drops a reference. The mount point is removed once nobody holds it
// and it has no layers left.
func (r *Root) Release(mp *MountPoint) {
	if mp == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if mp.refs > 0 {
		mp.refs--
	}
	if mp.refs == 0 && len(mp.layers) == 0 && r.mounts[mp.name] == mp {
		delete(r.mounts, mp.name)
		for i, n := range r.order {
			if n == mp.name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		logging.SurfaceDebug("mount point %s removed", mp.name)
	}
}

// Lookup returns the mount point called name, if it exists.
func (r *Root) Lookup(name string) (*MountPoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.mounts[name]
	return mp, ok
}

// Refs returns the reference count of the named mount point.
func (r *Root) Refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mp, ok := r.mounts[name]; ok {
		return mp.refs
	}
	return 0
}

// Layers returns how many layers the named mount point holds.
func (r *Root) Layers(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mp, ok := r.mounts[name]; ok {
		return len(mp.layers)
	}
	return 0
}

// AddLayer attaches a hidden layer drawn by render.
func (r *Root) AddLayer(mp *MountPoint, render func() string) *Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l := &Layer{root: r, id: r.nextID, render: render}
	mp.layers = append(mp.layers, l)
	return l
}

// RemoveLayer detaches l from mp.
func (r *Root) RemoveLayer(mp *MountPoint, l *Layer) {
	if mp == nil || l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range mp.layers {
		if x == l {
			mp.layers = append(mp.layers[:i], mp.layers[i+1:]...)
			return
		}
	}
}

// Move places the layer's top-left corner and makes it visible.
func (l *Layer) Move(pos position.Result) {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	l.pos = pos
	l.visible = true
}

// Position returns where the layer is drawn and whether it is visible.
func (l *Layer) Position() (position.Result, bool) {
	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	return l.pos, l.visible
}

type placed struct {
	render func() string
	pos    position.Result
}

// Composite draws every visible layer over base, a frame of the given
// viewport size. base is returned unchanged when nothing is visible.
func (r *Root) Composite(base string, width, height int) string {
	r.mu.Lock()
	var items []placed
	for _, name := range r.order {
		for _, l := range r.mounts[name].layers {
			if l.visible {
				items = append(items, placed{render: l.render, pos: l.pos})
			}
		}
	}
	r.mu.Unlock()

	if len(items) == 0 {
		return base
	}

	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	for _, it := range items {
		for i, ol := range strings.Split(it.render(), "\n") {
			row := it.pos.Top + i
			if row < 0 || row >= len(lines) || (height > 0 && row >= height) {
				continue
			}
			lines[row] = spliceLine(lines[row], ol, it.pos.Left, width)
		}
	}
	return strings.Join(lines, "\n")
}

const resetStyle = "\x1b[0m"

// spliceLine overwrites base starting at cell col with over, keeping whatever
// base has on both sides. ANSI sequences are preserved on both halves.
func spliceLine(base, over string, col, width int) string {
	col = max(col, 0)
	if width > 0 {
		if col >= width {
			return base
		}
		if ansi.StringWidth(over) > width-col {
			over = ansi.Truncate(over, width-col, "")
		}
	}
	ow := ansi.StringWidth(over)

	if bw := ansi.StringWidth(base); bw < col {
		base += strings.Repeat(" ", col-bw)
	}
	left := ansi.Truncate(base, col, "")
	right := ansi.TruncateLeft(base, col+ow, "")

	if strings.Contains(base, "\x1b[") || strings.Contains(over, "\x1b[") {
		return left + resetStyle + over + resetStyle + right
	}
	return left + over + right
}
