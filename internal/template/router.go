package template

import (
	"sync"

	"reveal/internal/decision"
	"reveal/internal/logging"
)

// Router maps template ids to templates. Built-ins are dispatched by a
// switch; Register adds or overrides ids.
type Router struct {
	mu         sync.RWMutex
	extensions map[decision.TemplateID]Factory
}

// NewRouter creates a router with the built-in templates.
func NewRouter() *Router {
	return &Router{extensions: make(map[decision.TemplateID]Factory)}
}

// Register adds a template for id, replacing any previous registration.
func (r *Router) Register(id decision.TemplateID, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[id] = f
}

// Route returns a fresh template for id. Unknown and unimplemented ids
// return false and log one warning.
func (r *Router) Route(id decision.TemplateID) (Template, bool) {
	r.mu.RLock()
	f, ok := r.extensions[id]
	r.mu.RUnlock()
	if ok {
		return f(), true
	}

	switch id {
	case decision.TemplateTooltip:
		return NewTooltip(), true
	case decision.TemplateBanner:
		return NewBanner(), true
	case decision.TemplateModal:
		return NewModal(), true
	case decision.TemplateSpotlight, decision.TemplateInlineHint:
		logging.TemplateWarn("template %q is not implemented yet", id)
	default:
		logging.TemplateWarn("unknown template %q", id)
	}
	return nil, false
}

// Known reports whether Route would return a template for id.
func (r *Router) Known(id decision.TemplateID) bool {
	r.mu.RLock()
	_, ok := r.extensions[id]
	r.mu.RUnlock()
	if ok {
		return true
	}
	switch id {
	case decision.TemplateTooltip, decision.TemplateBanner, decision.TemplateModal:
		return true
	}
	return false
}
