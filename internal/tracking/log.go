package tracking

import "go.uber.org/zap"

// LogSink writes each event as a structured zap entry.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink logs through l, or a no-op logger when l is nil.
func NewLogSink(l *zap.Logger) *LogSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogSink{logger: l.Named("tracking")}
}

func (s *LogSink) Track(kind, name string, payload map[string]any) error {
	s.logger.Info("nudge event",
		zap.String("kind", kind),
		zap.String("name", name),
		zap.Any("payload", payload),
	)
	return nil
}
