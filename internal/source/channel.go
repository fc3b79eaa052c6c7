package source

import (
	"context"
	"sync"

	"reveal/internal/decision"
)

// ChannelSource is an in-process source fed by Publish.
type ChannelSource struct {
	mu     sync.RWMutex
	ch     chan *decision.WireNudgeDecision
	closed bool
}

// NewChannelSource creates a source with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{ch: make(chan *decision.WireNudgeDecision, max(buffer, 0))}
}

func (s *ChannelSource) Decisions() <-chan *decision.WireNudgeDecision {
	return s.ch
}

// Publish queues d, blocking while the buffer is full.
func (s *ChannelSource) Publish(ctx context.Context, d *decision.WireNudgeDecision) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Publishing afterwards returns ErrClosed.
func (s *ChannelSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
