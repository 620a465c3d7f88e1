// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browseruse/types"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")

	cfg, err := NewLoader().WithDotEnv("").Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.BrowserUse.BaseURL)
	assert.Equal(t, 300*time.Second, cfg.BrowserUse.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
browser_use:
  base_url: "http://automation.internal:8000"
  api_key: "secret"
  timeout: 60s
  poll_interval: 500ms
  max_calls_per_minute: 3
  ca_file: "/etc/browseruse/ca.pem"

log:
  level: "debug"
  format: "console"

metrics:
  enabled: true
  addr: ":9999"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		WithDotEnv("").
		Load()
	require.NoError(t, err)

	assert.Equal(t, "http://automation.internal:8000", cfg.BrowserUse.BaseURL)
	assert.Equal(t, "secret", cfg.BrowserUse.APIKey)
	assert.Equal(t, 60*time.Second, cfg.BrowserUse.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.BrowserUse.PollInterval)
	assert.Equal(t, 3, cfg.BrowserUse.MaxCallsPerMinute)
	assert.Equal(t, "/etc/browseruse/ca.pem", cfg.BrowserUse.CAFile)
	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, 30*time.Second, cfg.BrowserUse.RequestTimeout)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")

	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")).
		WithDotEnv("").
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultBrowserUseConfig(), cfg.BrowserUse)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("browser_use: [unclosed"), 0644))

	_, err := NewLoader().WithConfigPath(configPath).WithDotEnv("").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("BROWSERUSE_API_URL", "http://env-host:8000")
	t.Setenv("BROWSERUSE_API_TIMEOUT", "45s")
	t.Setenv("BROWSERUSE_API_POLL_INTERVAL", "1s")
	t.Setenv("BROWSERUSE_LOG_LEVEL", "warn")
	t.Setenv("BROWSERUSE_LOG_OUTPUT_PATHS", "stdout, /tmp/browseruse.log")
	t.Setenv("BROWSERUSE_TELEMETRY_SAMPLE_RATE", "0.5")

	cfg, err := NewLoader().WithDotEnv("").Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env-host:8000", cfg.BrowserUse.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.BrowserUse.Timeout)
	assert.Equal(t, time.Second, cfg.BrowserUse.PollInterval)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"stdout", "/tmp/browseruse.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
}

func TestLoader_LegacyBaseURL(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "http://legacy:8000")

	cfg, err := NewLoader().WithDotEnv("").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://legacy:8000", cfg.BrowserUse.BaseURL)

	// 前缀变量优先
	t.Setenv("BROWSERUSE_API_URL", "http://prefixed:8000")
	cfg, err = NewLoader().WithDotEnv("").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed:8000", cfg.BrowserUse.BaseURL)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
browser_use:
  base_url: "http://yaml-host:8000"
  user_agent: "yaml-agent"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("BROWSERUSE_API_URL", "http://env-host:8000")

	cfg, err := NewLoader().WithConfigPath(configPath).WithDotEnv("").Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env-host:8000", cfg.BrowserUse.BaseURL)
	assert.Equal(t, "yaml-agent", cfg.BrowserUse.UserAgent)
}

func TestLoader_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dotEnv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte("DOTENVKEEP_API_URL=http://from-dotenv:8000\n"), 0644))

	// 已存在的环境变量不会被 .env 覆盖
	t.Setenv("DOTENVKEEP_API_URL", "http://from-process:8000")

	cfg, err := NewLoader().WithDotEnv(dotEnv).WithEnvPrefix("DOTENVKEEP").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://from-process:8000", cfg.BrowserUse.BaseURL)
}

func TestLoader_DotEnvFeedsConfig(t *testing.T) {
	dotEnv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte("DOTENVCASE_API_URL=http://from-dotenv:8000\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DOTENVCASE_API_URL") })

	cfg, err := NewLoader().WithDotEnv(dotEnv).WithEnvPrefix("DOTENVCASE").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8000", cfg.BrowserUse.BaseURL)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("BROWSERUSE_API_TIMEOUT", "soon")

	_, err := NewLoader().WithDotEnv("").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BROWSERUSE_API_TIMEOUT")
}

func TestLoader_Validators(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")

	_, err := NewLoader().
		WithDotEnv("").
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "base_url is required")
}

// --- 校验测试 ---

func TestBrowserUseConfig_Validate(t *testing.T) {
	valid := DefaultBrowserUseConfig()
	valid.BaseURL = "http://localhost:8000"

	tests := []struct {
		name    string
		mutate  func(c *BrowserUseConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *BrowserUseConfig) {}},
		{name: "missing base url", mutate: func(c *BrowserUseConfig) { c.BaseURL = "" }, wantErr: "base_url is required"},
		{name: "bad scheme", mutate: func(c *BrowserUseConfig) { c.BaseURL = "ftp://host" }, wantErr: "scheme must be http or https"},
		{name: "relative url", mutate: func(c *BrowserUseConfig) { c.BaseURL = "localhost:8000/api" }, wantErr: "scheme"},
		{name: "no host", mutate: func(c *BrowserUseConfig) { c.BaseURL = "http://" }, wantErr: "must have a host"},
		{name: "zero timeout", mutate: func(c *BrowserUseConfig) { c.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "zero interval", mutate: func(c *BrowserUseConfig) { c.PollInterval = 0 }, wantErr: "poll_interval must be positive"},
		{name: "negative rate", mutate: func(c *BrowserUseConfig) { c.MaxCallsPerMinute = -1 }, wantErr: "max_calls_per_minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, types.ErrInvalidConfig, types.GetErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BrowserUse.BaseURL = "https://automation.example.com"
	assert.NoError(t, cfg.Validate())

	cfg.Log.Format = "xml"
	cfg.Telemetry.SampleRate = 2
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log format")
	assert.Contains(t, err.Error(), "sample_rate")
}

func TestMustLoad_Panics(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")
	t.Setenv("BROWSERUSE_API_URL", "")

	tests := []struct {
		name    string
		content string
	}{
		{name: "type mismatch", content: "browser_use: [1, 2]\n"},
		{name: "unterminated flow sequence", content: "browser_use:\n  timeout: [\n"},
		{name: "missing base url", content: "log:\n  level: debug\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0644))

			assert.Panics(t, func() { MustLoad(configPath) })
		})
	}
}

func TestMustLoad_Valid(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")
	t.Setenv("BROWSERUSE_API_URL", "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("browser_use:\n  base_url: https://automation.example.com\n"), 0644))

	var cfg *Config
	require.NotPanics(t, func() { cfg = MustLoad(configPath) })
	assert.Equal(t, "https://automation.example.com", cfg.BrowserUse.BaseURL)
}

func TestLoadFromEnv_Validates(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "")
	t.Setenv("BROWSERUSE_API_URL", "")

	cfg, err := LoadFromEnv()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, types.ErrInvalidConfig, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "base_url is required")

	t.Setenv("BROWSERUSE_API_URL", "http://env-host:8000")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://env-host:8000", cfg.BrowserUse.BaseURL)
}
