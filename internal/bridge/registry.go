package bridge

import "sync"

// ShownRegistry remembers which decision ids already produced a "shown"
// tracking event.
type ShownRegistry interface {
	// MarkShown records id and reports whether this was the first time.
	MarkShown(id string) bool
	// HasShown reports whether id was recorded.
	HasShown(id string) bool
}

// MemoryRegistry is an in-process ShownRegistry. It is never cleared; build a
// new one to start over.
type MemoryRegistry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{seen: make(map[string]struct{})}
}

func (r *MemoryRegistry) MarkShown(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	return true
}

func (r *MemoryRegistry) HasShown(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[id]
	return ok
}

// Len returns how many ids were recorded.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

var processRegistry = NewMemoryRegistry()

// ProcessRegistry returns the registry shared by every engine in the process
// that was not given its own.
func ProcessRegistry() *MemoryRegistry {
	return processRegistry
}
