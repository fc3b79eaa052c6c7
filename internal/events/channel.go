package events

import "sync"

// pendingLimit bounds how many events a topic holds while nobody listens.
const pendingLimit = 8

// Unsubscribe removes a handler. Calling it more than once is harmless.
type Unsubscribe func()

type topic[T any] struct {
	handlers map[uint64]func(T)
	order    []uint64
	pending  []T
}

func (t *topic[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(t.order))
	for _, id := range t.order {
		if h, ok := t.handlers[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (t *topic[T]) remove(id uint64) {
	delete(t.handlers, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// Channel is a typed publish/subscribe channel, one topic per event name.
// Events emitted while a topic has no handler are held (bounded) and replayed
// to the first handler that subscribes. After Close nothing is held or
// delivered.
type Channel struct {
	mu     sync.Mutex
	nextID uint64
	closed bool

	shown   topic[Shown]
	dismiss topic[Dismiss]
	action  topic[ActionClick]
}

// NewChannel creates an open channel.
func NewChannel() *Channel {
	return &Channel{
		shown:   topic[Shown]{handlers: make(map[uint64]func(Shown))},
		dismiss: topic[Dismiss]{handlers: make(map[uint64]func(Dismiss))},
		action:  topic[ActionClick]{handlers: make(map[uint64]func(ActionClick))},
	}
}

// OnShown registers a handler for reveal:shown.
func (c *Channel) OnShown(h func(Shown)) Unsubscribe {
	return subscribe(c, &c.shown, h)
}

// OnDismiss registers a handler for reveal:dismiss.
func (c *Channel) OnDismiss(h func(Dismiss)) Unsubscribe {
	return subscribe(c, &c.dismiss, h)
}

// OnActionClick registers a handler for reveal:action-click.
func (c *Channel) OnActionClick(h func(ActionClick)) Unsubscribe {
	return subscribe(c, &c.action, h)
}

// EmitShown publishes reveal:shown.
func (c *Channel) EmitShown(p Shown) { emit(c, &c.shown, p) }

// EmitDismiss publishes reveal:dismiss.
func (c *Channel) EmitDismiss(p Dismiss) { emit(c, &c.dismiss, p) }

// EmitActionClick publishes reveal:action-click.
func (c *Channel) EmitActionClick(p ActionClick) { emit(c, &c.action, p) }

// Close deregisters every handler and drops held events.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.shown = topic[Shown]{handlers: make(map[uint64]func(Shown))}
	c.dismiss = topic[Dismiss]{handlers: make(map[uint64]func(Dismiss))}
	c.action = topic[ActionClick]{handlers: make(map[uint64]func(ActionClick))}
}

// Closed reports whether Close was called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Subscribers returns the total number of registered handlers.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shown.handlers) + len(c.dismiss.handlers) + len(c.action.handlers)
}

func subscribe[T any](c *Channel, t *topic[T], h func(T)) Unsubscribe {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	c.nextID++
	id := c.nextID
	t.handlers[id] = h
	t.order = append(t.order, id)
	replay := t.pending
	t.pending = nil
	c.mu.Unlock()

	for _, p := range replay {
		h(p)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			t.remove(id)
			c.mu.Unlock()
		})
	}
}

func emit[T any](c *Channel, t *topic[T], p T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	handlers := t.snapshot()
	if len(handlers) == 0 {
		if len(t.pending) < pendingLimit {
			t.pending = append(t.pending, p)
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}
