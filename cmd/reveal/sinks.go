package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"reveal/internal/tracking"
)

// runSinks is the tracking fan-out for one `reveal run` session.
type runSinks struct {
	sink     tracking.Sink
	jsonl    *tracking.JSONLSink
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

func (a *app) openSinks() (*runSinks, error) {
	s := &runSinks{logger: a.logger}
	all := []tracking.Sink{tracking.NewLogSink(a.logger)}

	if path := a.cfg.Tracking.JSONLPath; path != "" {
		j, err := tracking.OpenJSONL(path)
		if err != nil {
			return nil, err
		}
		s.jsonl = j
		all = append(all, j)
	}

	if a.cfg.Tracking.Metrics {
		s.reader = sdkmetric.NewManualReader()
		s.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(s.reader))
		m, err := tracking.NewMetricSink(s.provider.Meter("reveal"))
		if err != nil {
			s.close(io.Discard)
			return nil, err
		}
		all = append(all, m)
	}

	s.sink = tracking.Multi(all...)
	return s, nil
}

// close flushes the sinks and, when metrics are on, prints the event counts.
func (s *runSinks) close(w io.Writer) {
	if s.jsonl != nil {
		if err := s.jsonl.Close(); err != nil {
			s.logger.Warn("failed to close tracking file", zap.Error(err))
		}
	}
	if s.provider == nil {
		return
	}
	ctx := context.Background()
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		s.logger.Warn("failed to collect metrics", zap.Error(err))
	} else {
		writeSummary(w, rm)
	}
	if err := s.provider.Shutdown(ctx); err != nil {
		s.logger.Warn("failed to shut down meter provider", zap.Error(err))
	}
}

// writeSummary prints one line per event name and reason, sorted.
func writeSummary(w io.Writer, rm metricdata.ResourceMetrics) {
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != tracking.MetricName {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				label := attrString(dp.Attributes, "name")
				if reason := attrString(dp.Attributes, "reason"); reason != "" {
					label += " (" + reason + ")"
				}
				lines = append(lines, fmt.Sprintf("%-36s %d", label, dp.Value))
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	slices.Sort(lines)
	fmt.Fprintln(w, "nudge events:")
	for _, l := range lines {
		fmt.Fprintln(w, "  "+l)
	}
}

func attrString(set attribute.Set, k string) string {
	v, ok := set.Value(attribute.Key(k))
	if !ok {
		return ""
	}
	return v.AsString()
}
