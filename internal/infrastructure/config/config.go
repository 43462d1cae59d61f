package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Sandbox   SandboxConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SandboxConfig holds workspace and runtime configuration.
type SandboxConfig struct {
	Template          string        `envconfig:"SANDBOX_TEMPLATE" default:""`
	TimeoutDelay      time.Duration `envconfig:"SANDBOX_TIMEOUT_DELAY" default:"30s"`
	RecompileDelay    time.Duration `envconfig:"SANDBOX_RECOMPILE_DELAY" default:"500ms"`
	RecompileMode     string        `envconfig:"SANDBOX_RECOMPILE_MODE" default:"delayed"`
	ShowLoadingScreen bool          `envconfig:"SANDBOX_SHOW_LOADING" default:"true"`
	PoolSize          int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	ConsoleLimit      int           `envconfig:"SANDBOX_CONSOLE_LIMIT" default:"1000"`
	MaxFileBytes      int64         `envconfig:"SANDBOX_MAX_FILE_BYTES" default:"1048576"`
}

// PreviewOptions converts the sandbox settings into workspace options.
// Classes are left to the template.
func (s SandboxConfig) PreviewOptions() types.Options {
	return types.Options{
		TimeoutDelay:      int(s.TimeoutDelay / time.Millisecond),
		RecompileDelay:    int(s.RecompileDelay / time.Millisecond),
		RecompileMode:     types.RecompileMode(s.RecompileMode),
		ShowLoadingScreen: s.ShowLoadingScreen,
	}.WithDefaults()
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	if !types.RecompileMode(c.Sandbox.RecompileMode).Valid() {
		return fmt.Errorf("SANDBOX_RECOMPILE_MODE must be %q or %q, got %q",
			types.RecompileImmediate, types.RecompileDelayed, c.Sandbox.RecompileMode)
	}
	if c.Sandbox.TimeoutDelay <= 0 {
		return fmt.Errorf("SANDBOX_TIMEOUT_DELAY must be positive, got %s", c.Sandbox.TimeoutDelay)
	}
	if c.Sandbox.RecompileDelay < 0 {
		return fmt.Errorf("SANDBOX_RECOMPILE_DELAY must not be negative, got %s", c.Sandbox.RecompileDelay)
	}
	if c.Sandbox.PoolSize <= 0 {
		return fmt.Errorf("SANDBOX_POOL_SIZE must be positive, got %d", c.Sandbox.PoolSize)
	}
	return nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Sandbox: SandboxConfig{
			TimeoutDelay:      30 * time.Second,
			RecompileDelay:    500 * time.Millisecond,
			RecompileMode:     string(types.RecompileDelayed),
			ShowLoadingScreen: true,
			PoolSize:          4,
			ConsoleLimit:      1000,
			MaxFileBytes:      1 << 20,
		},
	}
}
