package tracking

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricName is the counter incremented for every tracking event.
const MetricName = "reveal.nudge.events"

// MetricSink counts events with an OpenTelemetry counter, attributed by
// kind, name and (for dismissals) reason.
type MetricSink struct {
	counter metric.Int64Counter
}

// NewMetricSink registers the counter on meter.
func NewMetricSink(meter metric.Meter) (*MetricSink, error) {
	counter, err := meter.Int64Counter(MetricName,
		metric.WithDescription("Nudge tracking events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricName, err)
	}
	return &MetricSink{counter: counter}, nil
}

func (s *MetricSink) Track(kind, name string, payload map[string]any) error {
	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("name", name),
	}
	if reason, ok := payload["reason"].(string); ok {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	s.counter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	return nil
}
