package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/browseruse/agent/browser"
	"github.com/BaSui01/browseruse/types"
)

// BrowserUseToolName is the name the tool is registered under.
const BrowserUseToolName = "browser_use"

// toolTimeoutGrace keeps the executor deadline behind the poller's own
// timeout, which can overrun by one interval plus one request.
const toolTimeoutGrace = time.Minute

// ObjectiveRunner runs one objective to a terminal result.
// *browser.TaskPoller implements it.
type ObjectiveRunner interface {
	Run(ctx context.Context, objective string) browser.ExecutionResult
}

// BrowserUseToolConfig configures the browser use tool.
type BrowserUseToolConfig struct {
	Runner    ObjectiveRunner  // Submit/poll backend
	Timeout   time.Duration    // Executor timeout; 0 derives it from the runner
	RateLimit *RateLimitConfig // Rate limiting
}

// DefaultBrowserUseToolConfig returns sensible defaults.
func DefaultBrowserUseToolConfig() BrowserUseToolConfig {
	return BrowserUseToolConfig{
		RateLimit: &RateLimitConfig{
			MaxCalls: 10,
			Window:   time.Minute,
		},
	}
}

// browserUseArgs defines the input arguments for the browser use tool.
// Objective is accepted as a shorter alias.
type browserUseArgs struct {
	BrowserUseObjective string `json:"browser_use_objective"`
	Objective           string `json:"objective,omitempty"`
}

func (a browserUseArgs) objective() string {
	if s := strings.TrimSpace(a.BrowserUseObjective); s != "" {
		return a.BrowserUseObjective
	}
	return a.Objective
}

// NewBrowserUseTool creates a ToolFunc that hands an objective to the remote
// browser-use service and waits for the outcome. Task failures never surface
// as Go errors: the returned JSON always carries status and message.
func NewBrowserUseTool(config BrowserUseToolConfig, logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("tool", BrowserUseToolName))

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params browserUseArgs
		if err := json.Unmarshal(args, &params); err != nil {
			logger.Warn("invalid browser_use arguments", zap.Error(err))
			return encodeResult(browser.ErrorResult("invalid browser_use arguments: " + err.Error())), nil
		}

		objective := params.objective()
		if strings.TrimSpace(objective) == "" {
			return encodeResult(browser.ErrorResult("browser_use_objective is required")), nil
		}

		if config.Runner == nil {
			return encodeResult(browser.ErrorResult("browser use service not configured")), nil
		}

		logger.Info("executing browser task", zap.Int("objective_len", len(objective)))
		result := config.Runner.Run(ctx, objective)
		logger.Info("browser task returned",
			zap.String("status", string(result.Status)),
			zap.String("message", result.Message))

		return encodeResult(result), nil
	}

	metadata := ToolMetadata{
		Schema: types.ToolSchema{
			Name: BrowserUseToolName,
			Description: "Execute a browser automation task. Describe the objective as a detailed, " +
				"numbered list of steps (1, 2, 3, ...). Returns a JSON string with status, result and message, " +
				`e.g. {"status": "success", "result": {...}, "message": "Task completed"} or ` +
				`{"status": "error", "message": "Task timed out"}.`,
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"browser_use_objective": {
						"type": "string",
						"description": "The objective for the browser automation task, typically a numbered list of steps"
					}
				},
				"required": ["browser_use_objective"]
			}`),
		},
		Timeout:     browserUseTimeout(config),
		RateLimit:   config.RateLimit,
		Description: "Browser automation tool that submits an objective to a remote browser-use service and polls until it completes, fails or times out.",
	}

	return fn, metadata
}

// RegisterBrowserUseTool is a convenience function that creates and registers the browser use tool.
func RegisterBrowserUseTool(registry ToolRegistry, config BrowserUseToolConfig, logger *zap.Logger) error {
	fn, metadata := NewBrowserUseTool(config, logger)
	return registry.Register(BrowserUseToolName, fn, metadata)
}

func browserUseTimeout(config BrowserUseToolConfig) time.Duration {
	if config.Timeout > 0 {
		return config.Timeout
	}
	if t, ok := config.Runner.(interface{ Timeout() time.Duration }); ok && t.Timeout() > 0 {
		return t.Timeout() + toolTimeoutGrace
	}
	return browser.DefaultTimeout + toolTimeoutGrace
}

func encodeResult(r browser.ExecutionResult) json.RawMessage {
	return json.RawMessage(r.JSON())
}
