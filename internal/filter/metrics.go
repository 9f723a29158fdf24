package filter

import (
	"context"
	"time"

	"github.com/tkingovr/noisegate/internal/metrics"
)

// MetricsFilter records the outcome of every request.
type MetricsFilter struct {
	metrics *metrics.Metrics
}

func NewMetricsFilter(m *metrics.Metrics) *MetricsFilter {
	return &MetricsFilter{metrics: m}
}

func (f *MetricsFilter) Name() string { return "metrics" }

func (f *MetricsFilter) Process(_ context.Context, fc *FilterContext) error {
	d := fc.Result()
	f.metrics.RecordDecision(string(fc.Entrypoint), string(d.Action), time.Since(fc.StartTime))
	if d.ShortCircuited() {
		f.metrics.RecordSuppressed(string(fc.Entrypoint), string(fc.Category), d.Status)
	}
	return nil
}
