// Package browseruse is the top-level entry point for handing web objectives
// to a remote browser-use service.
//
// Usage:
//
//	import "github.com/BaSui01/browseruse"
//
//	cfg := config.DefaultBrowserUseConfig()
//	cfg.BaseURL = "http://localhost:8000"
//	kit, err := browseruse.New(cfg, browseruse.WithLogger(logger))
//	out := kit.ExecuteBrowserTask(ctx, "1. open example.com 2. read the title")
//
// The returned string is always a JSON object with "status" and "message".
package browseruse

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/browseruse/agent/browser"
	"github.com/BaSui01/browseruse/config"
	"github.com/BaSui01/browseruse/llm/tools"
)

// Option configures the Toolkit created by [New].
type Option func(*options)

type options struct {
	logger    *zap.Logger
	client    browser.Client
	recorder  browser.Recorder
	observer  browser.RequestObserver
	tracer    trace.Tracer
	clockNow  func() time.Time
	clockWait func(ctx context.Context, d time.Duration) error
}

// WithLogger sets a custom zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClient replaces the HTTP client, e.g. with a fake service.
func WithClient(c browser.Client) Option {
	return func(o *options) { o.client = c }
}

// WithRecorder installs a run recorder.
func WithRecorder(r browser.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithRequestObserver installs an observer for every request sent to the service.
func WithRequestObserver(ob browser.RequestObserver) Option {
	return func(o *options) { o.observer = ob }
}

// WithTracer overrides the OpenTelemetry tracer used for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithClock substitutes time for deterministic runs.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		o.clockNow = now
		o.clockWait = sleep
	}
}

// Toolkit bundles the poller and its browser_use tool.
type Toolkit struct {
	cfg    config.BrowserUseConfig
	poller *browser.TaskPoller
	logger *zap.Logger
}

// New validates cfg and wires the HTTP client and poller. A missing or
// malformed base URL fails here, not on the first call.
func New(cfg config.BrowserUseConfig, opts ...Option) (*Toolkit, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := o.client
	if client == nil {
		var clientOpts []browser.ClientOption
		if o.observer != nil {
			clientOpts = append(clientOpts, browser.WithRequestObserver(o.observer))
		}
		hc, err := browser.NewHTTPClient(cfg, o.logger, clientOpts...)
		if err != nil {
			return nil, err
		}
		client = hc
	}

	pollerOpts := []browser.PollerOption{
		browser.WithTimeout(cfg.Timeout),
		browser.WithInterval(cfg.PollInterval),
	}
	if o.recorder != nil {
		pollerOpts = append(pollerOpts, browser.WithRecorder(o.recorder))
	}
	if o.tracer != nil {
		pollerOpts = append(pollerOpts, browser.WithTracer(o.tracer))
	}
	if o.clockNow != nil && o.clockWait != nil {
		pollerOpts = append(pollerOpts, browser.WithClock(o.clockNow, o.clockWait))
	}

	kit := &Toolkit{
		cfg:    cfg,
		poller: browser.NewTaskPoller(client, o.logger, pollerOpts...),
		logger: o.logger.With(zap.String("component", "browseruse_toolkit")),
	}
	kit.logger.Info("browser use toolkit ready",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", kit.poller.Timeout()),
		zap.Duration("interval", kit.poller.Interval()))
	return kit, nil
}

// Poller exposes the underlying task poller.
func (k *Toolkit) Poller() *browser.TaskPoller {
	return k.poller
}

// ExecuteBrowserTask runs one objective and returns the result JSON text.
func (k *Toolkit) ExecuteBrowserTask(ctx context.Context, objective string) string {
	return k.poller.Run(ctx, objective).JSON()
}

// Tools returns the browser_use tool function and its metadata.
func (k *Toolkit) Tools() (tools.ToolFunc, tools.ToolMetadata) {
	return tools.NewBrowserUseTool(k.toolConfig(), k.logger)
}

// Register adds the browser_use tool to registry.
func (k *Toolkit) Register(registry tools.ToolRegistry) error {
	return tools.RegisterBrowserUseTool(registry, k.toolConfig(), k.logger)
}

func (k *Toolkit) toolConfig() tools.BrowserUseToolConfig {
	cfg := tools.BrowserUseToolConfig{Runner: k.poller}
	if k.cfg.MaxCallsPerMinute > 0 {
		cfg.RateLimit = &tools.RateLimitConfig{
			MaxCalls: k.cfg.MaxCallsPerMinute,
			Window:   time.Minute,
		}
	}
	return cfg
}
