package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds the polling phase of a run.
	DefaultTimeout = 300 * time.Second
	// DefaultInterval is the wait between two status queries.
	DefaultInterval = 2 * time.Second

	tracerName = "github.com/BaSui01/browseruse/agent/browser"
)

// Recorder receives run outcomes. internal/metrics.Collector implements it.
type Recorder interface {
	RecordSubmission(accepted bool)
	RecordPoll(state string)
	RecordTask(status string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordSubmission(bool)            {}
func (nopRecorder) RecordPoll(string)                {}
func (nopRecorder) RecordTask(string, time.Duration) {}

// MultiRecorder fans every event out to each non-nil recorder.
func MultiRecorder(recorders ...Recorder) Recorder {
	var rs multiRecorder
	for _, r := range recorders {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return rs
}

type multiRecorder []Recorder

func (m multiRecorder) RecordSubmission(accepted bool) {
	for _, r := range m {
		r.RecordSubmission(accepted)
	}
}

func (m multiRecorder) RecordPoll(state string) {
	for _, r := range m {
		r.RecordPoll(state)
	}
}

func (m multiRecorder) RecordTask(status string, d time.Duration) {
	for _, r := range m {
		r.RecordTask(status, d)
	}
}

// PollerOption configures a TaskPoller.
type PollerOption func(*TaskPoller)

// WithTimeout sets the polling deadline. Non-positive values keep the default.
func WithTimeout(d time.Duration) PollerOption {
	return func(p *TaskPoller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithInterval sets the wait between polls. Non-positive values keep the default.
func WithInterval(d time.Duration) PollerOption {
	return func(p *TaskPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) PollerOption {
	return func(p *TaskPoller) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) PollerOption {
	return func(p *TaskPoller) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithClock replaces the time source and the sleep used between polls.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *TaskPoller) {
		if now != nil {
			p.now = now
		}
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// TaskPoller drives one objective at a time through submit and poll until
// the task completes, fails or runs out of time.
type TaskPoller struct {
	client   Client
	timeout  time.Duration
	interval time.Duration
	recorder Recorder
	tracer   trace.Tracer
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	newID    func() string
	logger   *zap.Logger
}

// NewTaskPoller creates a poller over client.
func NewTaskPoller(client Client, logger *zap.Logger, opts ...PollerOption) *TaskPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &TaskPoller{
		client:   client,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		sleep:    sleepContext,
		newID:    uuid.NewString,
		logger:   logger.With(zap.String("component", "browseruse_poller")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout returns the polling deadline.
func (p *TaskPoller) Timeout() time.Duration { return p.timeout }

// Interval returns the wait between polls.
func (p *TaskPoller) Interval() time.Duration { return p.interval }

// Run submits objective and polls until a terminal state. It never panics
// and never returns an error: every failure is reported in the result.
func (p *TaskPoller) Run(ctx context.Context, objective string) (result ExecutionResult) {
	start := p.now()
	runID := p.newID()
	ctx = WithRequestID(ctx, runID)

	ctx, span := p.tracer.Start(ctx, "browseruse.run",
		trace.WithAttributes(attribute.String("browseruse.run_id", runID)))
	log := p.logger.With(zap.String("run_id", runID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("browser task panicked", zap.Any("panic", r))
			result = ErrorResult(fmt.Sprintf("An error occurred: %v", r))
		}
		elapsed := p.now().Sub(start)
		p.recorder.RecordTask(string(result.Status), elapsed)
		if result.OK() {
			span.SetStatus(codes.Ok, "")
		} else {
			span.SetStatus(codes.Error, result.Message)
		}
		span.End()
		log.Info("browser task finished",
			zap.String("status", string(result.Status)),
			zap.String("message", result.Message),
			zap.Duration("duration", elapsed))
	}()

	handle, err := p.client.Submit(ctx, objective)
	if err != nil || handle.IsZero() {
		p.recorder.RecordSubmission(false)
		log.Error("failed to submit browser task", zap.Error(err))
		return ErrorResult(MsgSubmitFailed)
	}
	p.recorder.RecordSubmission(true)
	span.SetAttributes(attribute.String("browseruse.task_id", string(handle)))
	log = log.With(zap.String("task_id", string(handle)))
	log.Info("browser task submitted")

	pollStart := p.now()
	for polls := 1; p.now().Sub(pollStart) < p.timeout; polls++ {
		status := p.client.Query(ctx, handle)
		p.recorder.RecordPoll(string(status.State))
		span.AddEvent("poll", trace.WithAttributes(
			attribute.Int("browseruse.poll", polls),
			attribute.String("browseruse.state", string(status.State))))

		switch status.State {
		case TaskCompleted:
			return SuccessResult(status.Result, status.Message)
		case TaskProcessing:
			log.Debug("browser task still processing", zap.Int("poll", polls))
			if err := p.sleep(ctx, p.interval); err != nil {
				return ErrorResult(fmt.Sprintf("An error occurred: %v", err))
			}
		default:
			msg := status.Message
			if msg == "" {
				msg = MsgUnknownStatus
			}
			return ErrorResult(msg)
		}
	}

	log.Warn("browser task timed out", zap.Duration("timeout", p.timeout))
	return ErrorResult(MsgTimedOut)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
