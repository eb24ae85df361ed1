package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sentinel"

// Metrics holds all sentinel metric instruments.
type Metrics struct {
	Screenings          metric.Int64Counter
	Approvals           metric.Int64Counter
	Rejections          metric.Int64Counter
	ExecutionsSucceeded metric.Int64Counter
	ExecutionsFailed    metric.Int64Counter
	StreamReconnects    metric.Int64Counter
	JudgmentDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Screenings, err = meter.Int64Counter("sentinel.screenings",
		metric.WithDescription("Number of proposals screened"))
	if err != nil {
		return nil, err
	}

	m.Approvals, err = meter.Int64Counter("sentinel.screenings.approved",
		metric.WithDescription("Number of proposals approved"))
	if err != nil {
		return nil, err
	}

	m.Rejections, err = meter.Int64Counter("sentinel.screenings.rejected",
		metric.WithDescription("Number of proposals rejected"))
	if err != nil {
		return nil, err
	}

	m.ExecutionsSucceeded, err = meter.Int64Counter("sentinel.executions.succeeded",
		metric.WithDescription("Number of on-chain executions that succeeded"))
	if err != nil {
		return nil, err
	}

	m.ExecutionsFailed, err = meter.Int64Counter("sentinel.executions.failed",
		metric.WithDescription("Number of on-chain executions that failed"))
	if err != nil {
		return nil, err
	}

	m.StreamReconnects, err = meter.Int64Counter("sentinel.stream.reconnects",
		metric.WithDescription("Number of event stream reconnect attempts"))
	if err != nil {
		return nil, err
	}

	m.JudgmentDuration, err = meter.Float64Histogram("sentinel.judgment.duration_seconds",
		metric.WithDescription("Judgment provider call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
