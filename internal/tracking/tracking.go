// Package tracking receives the engine's (kind, name, payload) tracking
// triples and forwards them to logs, files and metrics.
package tracking

import (
	"errors"

	"reveal/internal/logging"
)

// Sink accepts tracking events.
type Sink interface {
	Track(kind, name string, payload map[string]any) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(kind, name string, payload map[string]any) error

func (f SinkFunc) Track(kind, name string, payload map[string]any) error {
	return f(kind, name, payload)
}

// Callback turns a sink into a bridge.Callbacks.OnTrack function. Sink
// errors are logged and swallowed.
func Callback(s Sink) func(kind, name string, payload map[string]any) {
	return func(kind, name string, payload map[string]any) {
		if err := s.Track(kind, name, payload); err != nil {
			logging.TrackingError("track %s/%s failed: %v", kind, name, err)
		}
	}
}

type multi []Sink

// Multi fans every event out to all sinks and joins their errors.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Track(kind, name string, payload map[string]any) error {
	var errs []error
	for _, s := range m {
		if err := s.Track(kind, name, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(string, string, map[string]any) error { return nil })
