package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments records run outcomes as OTel metrics. It implements
// browser.Recorder so it can sit next to the Prometheus collector.
type Instruments struct {
	submissions metric.Int64Counter
	polls       metric.Int64Counter
	tasks       metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewInstruments creates the run instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	submissions, err := meter.Int64Counter("browseruse.submissions",
		metric.WithDescription("Task submissions by outcome"))
	if err != nil {
		return nil, err
	}
	polls, err := meter.Int64Counter("browseruse.polls",
		metric.WithDescription("Status polls by observed state"))
	if err != nil {
		return nil, err
	}
	tasks, err := meter.Int64Counter("browseruse.tasks",
		metric.WithDescription("Finished runs by result status"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("browseruse.task.duration",
		metric.WithDescription("End-to-end run duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Instruments{
		submissions: submissions,
		polls:       polls,
		tasks:       tasks,
		duration:    duration,
	}, nil
}

// Meter returns a meter from the SDK provider, or from the global provider
// when telemetry is disabled.
func (p *Providers) Meter(name string) metric.Meter {
	if p != nil && p.mp != nil {
		return p.mp.Meter(name)
	}
	return otel.Meter(name)
}

// RecordSubmission counts a submission by outcome.
func (i *Instruments) RecordSubmission(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	i.submissions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordPoll counts a poll by observed state.
func (i *Instruments) RecordPoll(state string) {
	i.polls.Add(context.Background(), 1, metric.WithAttributes(attribute.String("state", state)))
}

// RecordTask counts a finished run and records its duration.
func (i *Instruments) RecordTask(status string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	i.tasks.Add(context.Background(), 1, attrs)
	i.duration.Record(context.Background(), d.Seconds(), attrs)
}
