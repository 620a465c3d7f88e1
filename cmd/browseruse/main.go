// =============================================================================
// browseruse 命令行入口
// =============================================================================
// 把网页自动化目标交给远程 browser-use 服务并打印 JSON 结果
//
// 使用方法:
//
//	browseruse run --objective "1. open example.com 2. read the title"
//	browseruse run --config browseruse.yaml --objective "..." --timeout 2m
//	echo '{"name":"browser_use","arguments":{...}}' | browseruse call
//	browseruse schema                     # 打印工具 schema
//	browseruse version                    # 显示版本信息
// =============================================================================

package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/browseruse/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli 持有标准输入输出，便于测试
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// runCLI 分发子命令并返回退出码
func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	if len(args) < 1 {
		c.printUsage()
		return 1
	}

	switch args[0] {
	case "run":
		return c.runObjective(args[1:])
	case "call":
		return c.runCall(args[1:])
	case "schema":
		return c.printSchema()
	case "version":
		c.printVersion()
		return 0
	case "help", "-h", "--help":
		c.printUsage()
		return 0
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n", args[0])
		c.printUsage()
		return 1
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func (c *cli) printVersion() {
	fmt.Fprintf(c.stdout, "browseruse %s\n", Version)
	fmt.Fprintf(c.stdout, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(c.stdout, "  Git Commit: %s\n", GitCommit)
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.stdout, `browseruse - hand web objectives to a browser-use service

Usage:
  browseruse <command> [options]

Commands:
  run       Submit an objective and wait for the result
  call      Execute tool call JSON read from stdin
  schema    Print the browser_use tool schema
  version   Show version information
  help      Show this help message

Options for 'run':
  --objective <text>    Objective to execute (required)
  --config <path>       Path to configuration file (YAML)
  --env-file <path>     Path to .env file (default .env)
  --timeout <duration>  Overall polling timeout (default 5m)
  --interval <duration> Delay between status polls (default 2s)

Options for 'call':
  --config <path>       Path to configuration file (YAML)
  --env-file <path>     Path to .env file (default .env)

Environment:
  BROWSER_USE_API_URL   Base URL of the browser-use service
  BROWSERUSE_API_*      Any browser_use setting, e.g. BROWSERUSE_API_TIMEOUT

Examples:
  browseruse run --objective "1. open https://example.com 2. return the page title"
  echo '{"name":"browser_use","arguments":{"browser_use_objective":"..."}}' | browseruse call
  browseruse schema`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		// stdout 留给结果 JSON
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
