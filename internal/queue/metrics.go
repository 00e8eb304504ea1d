package queue

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "commerce_sync/queue"

type Metrics struct {
	processed metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(meterName)
	m := &Metrics{}

	var err error
	m.processed, err = meter.Int64Counter(
		"queue.job.processed",
		metric.WithDescription("Jobs handled, by type and outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		m.processed, _ = meter.Int64Counter("queue.job.processed")
	}

	m.duration, err = meter.Float64Histogram(
		"queue.job.duration",
		metric.WithDescription("Handler duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.duration, _ = meter.Float64Histogram("queue.job.duration")
	}

	return m
}

func (m *Metrics) Record(ctx context.Context, jobType, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("job.type", jobType),
		attribute.String("job.outcome", outcome),
	)
	m.processed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(d.Milliseconds()), attrs)
}
