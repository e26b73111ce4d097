package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the process-wide ambient configuration: the three timeout
// tiers, the bounded worker pool dispatches under, and
// logging. Per-site behaviour (rate limits, retry, breaker thresholds)
// lives in domain.SiteConfig, loaded separately by internal/siteconfig —
// this type never duplicates that.
type Config struct {
	Timeouts TimeoutConfig
	Workers  WorkerPoolConfig
	Logging  LoggingConfig
	App      AppConfig
}

// TimeoutConfig is the three-tier timeout model: per-request,
// per-site, per-crawl. Exceeding a tier cancels the sub-tree below it.
type TimeoutConfig struct {
	PerRequest time.Duration `env:"PER_REQUEST_TIMEOUT" envDefault:"30s"`
	PerSite    time.Duration `env:"PER_SITE_TIMEOUT" envDefault:"120s"`
	PerCrawl   time.Duration `env:"PER_CRAWL_TIMEOUT" envDefault:"300s"`
}

// WorkerPoolConfig bounds the scheduler's concurrency.
type WorkerPoolConfig struct {
	MaxWorkers        int           `env:"MAX_WORKERS" envDefault:"16"`
	PerHostMax        int           `env:"PER_HOST_MAX" envDefault:"1"`
	ShutdownWindow    time.Duration `env:"SHUTDOWN_WINDOW" envDefault:"5s"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type AppConfig struct {
	Env             string `env:"ENV" envDefault:"development"`
	SiteConfigDir   string `env:"SITE_CONFIG_DIR" envDefault:"testdata/sites"`
}

// LoadConfig reads a .env file if present, parses environment variables
// into a Config, and validates it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using default environment values")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// MustLoadConfig loads the config or panics. Intended for cmd/ entrypoints
// where a bad config should abort startup immediately.
func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// validate checks the config values are self-consistent.
func validate(cfg *Config) error {
	if cfg.Timeouts.PerRequest <= 0 {
		return fmt.Errorf("invalid per-request timeout: %v, must be positive", cfg.Timeouts.PerRequest)
	}
	if cfg.Timeouts.PerSite <= 0 {
		return fmt.Errorf("invalid per-site timeout: %v, must be positive", cfg.Timeouts.PerSite)
	}
	if cfg.Timeouts.PerCrawl <= 0 {
		return fmt.Errorf("invalid per-crawl timeout: %v, must be positive", cfg.Timeouts.PerCrawl)
	}
	if cfg.Timeouts.PerRequest >= cfg.Timeouts.PerSite {
		return fmt.Errorf("PER_REQUEST_TIMEOUT (%s) should be less than PER_SITE_TIMEOUT (%s)",
			cfg.Timeouts.PerRequest, cfg.Timeouts.PerSite)
	}
	if cfg.Timeouts.PerSite >= cfg.Timeouts.PerCrawl {
		return fmt.Errorf("PER_SITE_TIMEOUT (%s) should be less than PER_CRAWL_TIMEOUT (%s)",
			cfg.Timeouts.PerSite, cfg.Timeouts.PerCrawl)
	}

	if cfg.Workers.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1; got %d", cfg.Workers.MaxWorkers)
	}
	if cfg.Workers.PerHostMax < 1 {
		return fmt.Errorf("PER_HOST_MAX must be at least 1; got %d", cfg.Workers.PerHostMax)
	}
	if cfg.Workers.ShutdownWindow <= 0 {
		return fmt.Errorf("SHUTDOWN_WINDOW must be positive; got %v", cfg.Workers.ShutdownWindow)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console; got %q", cfg.Logging.Format)
	}

	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[cfg.App.Env] {
		return fmt.Errorf("ENV must be one of: development, staging, production; got %q", cfg.App.Env)
	}

	if cfg.App.SiteConfigDir == "" {
		return fmt.Errorf("SITE_CONFIG_DIR must not be empty")
	}

	return nil
}
