package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "foreman"

// Metrics holds all Foreman metric instruments.
type Metrics struct {
	RunsStarted    metric.Int64Counter
	RunsCompleted  metric.Int64Counter
	RunsFailed     metric.Int64Counter
	RunsAborted    metric.Int64Counter
	ToolCalls      metric.Int64Counter
	ActionsCreated metric.Int64Counter
	RunDuration    metric.Float64Histogram
	ToolDuration   metric.Float64Histogram
	RunCost        metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("foreman.runs.started",
		metric.WithDescription("Number of assistant runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("foreman.runs.completed",
		metric.WithDescription("Number of assistant runs completed"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("foreman.runs.failed",
		metric.WithDescription("Number of assistant runs failed"))
	if err != nil {
		return nil, err
	}

	m.RunsAborted, err = meter.Int64Counter("foreman.runs.aborted",
		metric.WithDescription("Number of assistant runs aborted on loop detection"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("foreman.toolcalls",
		metric.WithDescription("Number of tool calls dispatched"))
	if err != nil {
		return nil, err
	}

	m.ActionsCreated, err = meter.Int64Counter("foreman.actions.created",
		metric.WithDescription("Number of action records created"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("foreman.run.duration_seconds",
		metric.WithDescription("Run duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ToolDuration, err = meter.Float64Histogram("foreman.toolcall.duration_seconds",
		metric.WithDescription("Tool call duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.RunCost, err = meter.Float64Histogram("foreman.run.cost_usd",
		metric.WithDescription("Run cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
