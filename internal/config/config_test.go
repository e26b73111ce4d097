package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Timeouts: TimeoutConfig{
			PerRequest: 30 * time.Second,
			PerSite:    120 * time.Second,
			PerCrawl:   300 * time.Second,
		},
		Workers: WorkerPoolConfig{
			MaxWorkers:     16,
			PerHostMax:     1,
			ShutdownWindow: 5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		App:     AppConfig{Env: "development", SiteConfigDir: "testdata/sites"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid config"},
		{
			name:    "zero per-request timeout",
			modify:  func(c *Config) { c.Timeouts.PerRequest = 0 },
			wantErr: "invalid per-request timeout",
		},
		{
			name:    "per-request exceeds per-site",
			modify:  func(c *Config) { c.Timeouts.PerRequest = 200 * time.Second },
			wantErr: "should be less than PER_SITE_TIMEOUT",
		},
		{
			name:    "per-site exceeds per-crawl",
			modify:  func(c *Config) { c.Timeouts.PerSite = 400 * time.Second },
			wantErr: "should be less than PER_CRAWL_TIMEOUT",
		},
		{
			name:    "zero max workers",
			modify:  func(c *Config) { c.Workers.MaxWorkers = 0 },
			wantErr: "MAX_WORKERS must be at least 1",
		},
		{
			name:    "zero per-host max",
			modify:  func(c *Config) { c.Workers.PerHostMax = 0 },
			wantErr: "PER_HOST_MAX must be at least 1",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL must be one of",
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT must be one of",
		},
		{
			name:    "invalid env",
			modify:  func(c *Config) { c.App.Env = "test" },
			wantErr: "ENV must be one of",
		},
		{
			name:    "empty site config dir",
			modify:  func(c *Config) { c.App.SiteConfigDir = "" },
			wantErr: "SITE_CONFIG_DIR must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.modify != nil {
				tt.modify(cfg)
			}
			err := validate(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	envVarsToClear := []string{
		"PER_REQUEST_TIMEOUT", "PER_SITE_TIMEOUT", "PER_CRAWL_TIMEOUT",
		"MAX_WORKERS", "PER_HOST_MAX", "SHUTDOWN_WINDOW",
		"LOG_LEVEL", "LOG_FORMAT", "ENV", "SITE_CONFIG_DIR",
	}
	for _, key := range envVarsToClear {
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, validConfig(), cfg)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MAX_WORKERS", "32")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Workers.MaxWorkers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "production", cfg.App.Env)
}

func TestLoadConfigValidationError(t *testing.T) {
	t.Setenv("MAX_WORKERS", "0")
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}
