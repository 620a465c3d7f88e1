// =============================================================================
// 📦 browseruse 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BrowserUse: DefaultBrowserUseConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultBrowserUseConfig 返回默认远程浏览器服务配置。
// BaseURL 没有默认值，必须显式提供。
func DefaultBrowserUseConfig() BrowserUseConfig {
	return BrowserUseConfig{
		BaseURL:           "",
		Timeout:           300 * time.Second,
		PollInterval:      2 * time.Second,
		RequestTimeout:    30 * time.Second,
		UserAgent:         "browseruse-go",
		MaxCallsPerMinute: 10,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "browseruse",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "browseruse",
		SampleRate:   0.1,
	}
}
