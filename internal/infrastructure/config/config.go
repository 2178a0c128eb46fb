package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	ViewHost  ViewHostConfig  `yaml:"view_host" toml:"view_host"`
	AI        AIConfig        `yaml:"ai" toml:"ai"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	View      ViewConfig      `yaml:"view" toml:"view"`
	Bridge    BridgeConfig    `yaml:"bridge" toml:"bridge"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host"`
	// CORSOrigins is a comma-separated list in the environment. Empty allows any origin.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" yaml:"cors_origins" toml:"cors_origins"`
}

// ViewHostConfig points at the process that owns the native views. An empty
// address runs the in-memory tab registry instead.
type ViewHostConfig struct {
	Address           string   `envconfig:"VIEW_HOST_ADDR" yaml:"address" toml:"address"`
	Timeout           Duration `envconfig:"VIEW_HOST_TIMEOUT" yaml:"timeout" toml:"timeout"`
	RequestsPerSecond float64  `envconfig:"VIEW_HOST_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
}

// AIConfig holds agent service configuration.
type AIConfig struct {
	Address   string `envconfig:"AI_ADDR" yaml:"address" toml:"address"`
	APIKey    string `envconfig:"AI_API_KEY" yaml:"api_key" toml:"api_key"`
	ModelTier string `envconfig:"AI_MODEL_TIER" yaml:"model_tier" toml:"model_tier"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
	Output      string `envconfig:"LOG_OUTPUT" yaml:"output" toml:"output"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// ViewConfig holds visibility and bounds tuning.
type ViewConfig struct {
	ShowDelay      Duration `envconfig:"VIEW_SHOW_DELAY" yaml:"show_delay" toml:"show_delay"`
	FallbackWidth  int      `envconfig:"VIEW_FALLBACK_WIDTH" yaml:"fallback_width" toml:"fallback_width"`
	FallbackHeight int      `envconfig:"VIEW_FALLBACK_HEIGHT" yaml:"fallback_height" toml:"fallback_height"`
}

// BridgeConfig holds session lifecycle bridge tuning.
type BridgeConfig struct {
	TombstoneSize int `envconfig:"BRIDGE_TOMBSTONES" yaml:"tombstones" toml:"tombstones"`
}

// Duration is a time.Duration that decodes from strings such as "150ms" in
// env vars, YAML and TOML alike.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load builds configuration from defaults, then the file named by CONFIG_FILE
// (if set), then environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := overlayFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns the defaults.
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
			Port: "8000",
			Host: "127.0.0.1",
		},
		ViewHost: ViewHostConfig{
			Timeout:           Duration(5 * time.Second),
			RequestsPerSecond: 50,
		},
		AI: AIConfig{
			Address:   "http://localhost:8001",
			ModelTier: "standard",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		View: ViewConfig{
			ShowDelay:      Duration(150 * time.Millisecond),
			FallbackWidth:  1280,
			FallbackHeight: 800,
		},
		Bridge: BridgeConfig{
			TombstoneSize: 256,
		},
	}
}

// Validate rejects values the orchestration core cannot work with.
func (c *Config) Validate() error {
	if c.View.ShowDelay < 0 {
		return fmt.Errorf("view show delay must not be negative: %s", c.View.ShowDelay.Std())
	}
	if c.View.FallbackWidth <= 0 || c.View.FallbackHeight <= 0 {
		return fmt.Errorf("fallback viewport must be positive: %dx%d", c.View.FallbackWidth, c.View.FallbackHeight)
	}
	if c.Bridge.TombstoneSize <= 0 {
		return fmt.Errorf("bridge tombstone size must be positive: %d", c.Bridge.TombstoneSize)
	}
	return nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
