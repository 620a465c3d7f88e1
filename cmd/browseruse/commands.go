package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/browseruse/config"
	"github.com/BaSui01/browseruse/llm/tools"
	"github.com/BaSui01/browseruse/types"
)

// =============================================================================
// 🌐 run 命令
// =============================================================================

func (c *cli) runObjective(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	objective := fs.String("objective", "", "Objective to execute")
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", "", "Path to .env file")
	timeout := fs.Duration("timeout", 0, "Overall polling timeout")
	interval := fs.Duration("interval", 0, "Delay between status polls")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *objective == "" && fs.NArg() > 0 {
		*objective = fs.Arg(0)
	}
	if *objective == "" {
		fmt.Fprintln(c.stderr, "run: --objective is required")
		return 2
	}

	cfg, err := loadConfig(*configPath, *envFile, func(cfg *config.Config) {
		if *timeout > 0 {
			cfg.BrowserUse.Timeout = *timeout
		}
		if *interval > 0 {
			cfg.BrowserUse.PollInterval = *interval
		}
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "Invalid config: %v\n", err)
		return 1
	}

	rt := newAppRuntime(cfg)
	defer rt.close()

	kit, err := rt.toolkit()
	if err != nil {
		fmt.Fprintf(c.stderr, "Failed to create toolkit: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := kit.Poller().Run(ctx, *objective)
	fmt.Fprintln(c.stdout, result.JSON())
	if !result.OK() {
		return 1
	}
	return 0
}

// =============================================================================
// 🔧 call 命令
// =============================================================================

// runCall 从 stdin 读取单个 ToolCall 或 ToolCall 数组，经注册表与执行器运行
func (c *cli) runCall(args []string) int {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", "", "Path to .env file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	input, err := io.ReadAll(c.stdin)
	if err != nil {
		fmt.Fprintf(c.stderr, "Failed to read stdin: %v\n", err)
		return 1
	}
	calls, batch, err := parseToolCalls(input)
	if err != nil {
		fmt.Fprintf(c.stderr, "Invalid tool call: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(*configPath, *envFile, nil)
	if err != nil {
		fmt.Fprintf(c.stderr, "Invalid config: %v\n", err)
		return 1
	}

	rt := newAppRuntime(cfg)
	defer rt.close()

	kit, err := rt.toolkit()
	if err != nil {
		fmt.Fprintf(c.stderr, "Failed to create toolkit: %v\n", err)
		return 1
	}

	registry := tools.NewDefaultRegistry(rt.logger)
	if err := kit.Register(registry); err != nil {
		fmt.Fprintf(c.stderr, "Failed to register tool: %v\n", err)
		return 1
	}
	executor := tools.NewDefaultExecutor(registry, rt.logger, tools.WithObserver(rt.collector))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := executor.Execute(ctx, calls)
	rt.logger.Info("tool calls finished", zap.Int("count", len(results)))

	var out any = results
	if !batch {
		out = results[0]
	}
	if err := writeJSON(c.stdout, out); err != nil {
		fmt.Fprintf(c.stderr, "Failed to encode results: %v\n", err)
		return 1
	}

	for _, r := range results {
		if r.IsError() {
			return 1
		}
	}
	return 0
}

// parseToolCalls 接受单个对象或数组；缺失的 id 用 uuid 补齐
func parseToolCalls(input []byte) ([]types.ToolCall, bool, error) {
	input = bytes.TrimSpace(input)
	if len(input) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}

	var calls []types.ToolCall
	batch := input[0] == '['
	if batch {
		if err := json.Unmarshal(input, &calls); err != nil {
			return nil, true, err
		}
		if len(calls) == 0 {
			return nil, true, fmt.Errorf("no tool calls")
		}
	} else {
		var call types.ToolCall
		if err := json.Unmarshal(input, &call); err != nil {
			return nil, false, err
		}
		calls = []types.ToolCall{call}
	}

	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
		if calls[i].Name == "" {
			calls[i].Name = tools.BrowserUseToolName
		}
	}
	return calls, batch, nil
}

// =============================================================================
// 📋 schema 命令
// =============================================================================

func (c *cli) printSchema() int {
	_, meta := tools.NewBrowserUseTool(tools.DefaultBrowserUseToolConfig(), nil)
	if err := writeJSON(c.stdout, meta.Schema); err != nil {
		fmt.Fprintf(c.stderr, "Failed to encode schema: %v\n", err)
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
