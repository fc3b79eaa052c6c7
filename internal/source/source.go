// Package source supplies wire decisions to the engine from outside the UI
// loop: a watched JSON file or an in-process channel.
package source

import (
	"context"
	"errors"

	"reveal/internal/decision"
)

// ErrClosed is returned when publishing to a closed source.
var ErrClosed = errors.New("source: closed")

// Source yields wire decisions. A nil decision means "clear".
type Source interface {
	Decisions() <-chan *decision.WireNudgeDecision
}

// Forward delivers every decision from src to deliver until ctx is done or
// the source closes its channel.
func Forward(ctx context.Context, src Source, deliver func(*decision.WireNudgeDecision)) error {
	ch := src.Decisions()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-ch:
			if !ok {
				return nil
			}
			deliver(d)
		}
	}
}
