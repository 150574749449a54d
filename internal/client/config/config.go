package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the notex client.
//
// Fields:
//   - ServerURL: base URL of the remote notes service.
//   - ProbePath: endpoint requested by the reachability probe.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - ProbeTimeout / RequestTimeout: bounds for a probe and a remote call.
//   - CachePath: SQLite file of the local cache.
//   - LogLevel / LogFormat: slog level name and "text" or "json".
type Config struct {
	ServerURL           string        `env:"NOTEX_SERVER_URL" env-upd:""`
	ProbePath           string        `env:"NOTEX_PROBE_PATH" env-upd:""`
	OnlineCheckInterval time.Duration `env:"NOTEX_ONLINE_CHECK_INTERVAL" env-upd:""`
	ProbeTimeout        time.Duration `env:"NOTEX_PROBE_TIMEOUT" env-upd:""`
	RequestTimeout      time.Duration `env:"NOTEX_REQUEST_TIMEOUT" env-upd:""`
	CachePath           string        `env:"NOTEX_CACHE_PATH" env-upd:""`
	LogLevel            string        `env:"NOTEX_LOG_LEVEL" env-upd:""`
	LogFormat           string        `env:"NOTEX_LOG_FORMAT" env-upd:""`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3000"
	c.ProbePath = "/api/seed"
	c.OnlineCheckInterval = 5 * time.Second
	c.ProbeTimeout = 5 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.CachePath = "notex.db"
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is empty")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.ProbeTimeout <= 0 || c.RequestTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then overlays an optional
// JSON file, the environment and finally args. Later sources take precedence
// over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config: json: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("config: flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
