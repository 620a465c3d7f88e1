package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/browseruse"
	"github.com/BaSui01/browseruse/agent/browser"
	"github.com/BaSui01/browseruse/config"
	"github.com/BaSui01/browseruse/internal/metrics"
	"github.com/BaSui01/browseruse/internal/server"
	"github.com/BaSui01/browseruse/internal/telemetry"
)

// =============================================================================
// 🧩 运行时装配
// =============================================================================

const instrumentationName = "github.com/BaSui01/browseruse"

// appRuntime 汇总一次命令执行所需的依赖
type appRuntime struct {
	cfg        *config.Config
	logger     *zap.Logger
	providers  *telemetry.Providers
	collector  *metrics.Collector
	recorder   browser.Recorder
	metricsSrv *server.Manager
	stopWatch  chan struct{}
}

// loadConfig 按 默认值 → YAML → .env → 环境变量 加载配置，
// override 在校验前应用命令行参数
func loadConfig(configPath, envFile string, override func(*config.Config)) (*config.Config, error) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	if envFile != "" {
		loader = loader.WithDotEnv(envFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newAppRuntime 初始化日志、遥测与指标
func newAppRuntime(cfg *config.Config) *appRuntime {
	logger := initLogger(cfg.Log)
	logger.Info("starting browseruse",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	rt := &appRuntime{cfg: cfg, logger: logger}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	rt.providers = providers

	rt.collector = metrics.NewCollector(cfg.Metrics.Namespace, nil, logger)
	rt.recorder = rt.collector
	if providers.Enabled() {
		inst, err := telemetry.NewInstruments(providers.Meter(instrumentationName))
		if err != nil {
			logger.Warn("otel instruments unavailable", zap.Error(err))
		} else {
			rt.recorder = browser.MultiRecorder(rt.collector, inst)
		}
	}
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rt.collector.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		srvCfg := server.DefaultConfig()
		srvCfg.Addr = cfg.Metrics.Addr
		rt.metricsSrv = server.NewManager(mux, srvCfg, logger)
		if err := rt.metricsSrv.Start(); err != nil {
			logger.Warn("metrics server not started", zap.Error(err))
			rt.metricsSrv = nil
		} else {
			rt.stopWatch = make(chan struct{})
			go watchServerErrors(rt.metricsSrv.Errors(), rt.stopWatch, logger)
		}
	}

	return rt
}

// toolkit 构建绑定了指标与追踪的 Toolkit
func (rt *appRuntime) toolkit() (*browseruse.Toolkit, error) {
	return browseruse.New(rt.cfg.BrowserUse,
		browseruse.WithLogger(rt.logger),
		browseruse.WithRecorder(rt.recorder),
		browseruse.WithRequestObserver(rt.collector),
		browseruse.WithTracer(rt.providers.Tracer(instrumentationName)),
	)
}

// watchServerErrors 记录指标服务在运行期间的异步失败，stop 关闭后退出
func watchServerErrors(errs <-chan error, stop <-chan struct{}, logger *zap.Logger) {
	select {
	case err := <-errs:
		logger.Error("metrics server stopped unexpectedly", zap.Error(err))
	case <-stop:
	}
}

// close 依次关闭指标服务、遥测与日志
func (rt *appRuntime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if rt.stopWatch != nil {
		close(rt.stopWatch)
	}
	if rt.metricsSrv != nil {
		if err := rt.metricsSrv.Shutdown(ctx); err != nil {
			rt.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if err := rt.providers.Shutdown(ctx); err != nil {
		rt.logger.Warn("telemetry shutdown error", zap.Error(err))
	}
	_ = rt.logger.Sync()
}
