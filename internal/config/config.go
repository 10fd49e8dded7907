// Package config loads the daemon's own runtime settings (poll defaults,
// pool sizing, health-check cadence) from YAML. It is deliberately
// separate from internal/inventory, which loads the HCL-described device
// target list: two formats, two concerns, matching the way the original
// system split "how the daemon behaves" from "what it polls".
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/logging"
)

// PollDefaults are applied to any PollingTask that does not override them.
type PollDefaults struct {
	Interval          time.Duration `yaml:"interval"`
	Retries           int           `yaml:"retries"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxVarsPerRequest int           `yaml:"max_vars_per_request"`
}

// PoolConfig sizes the SNMP session pool.
type PoolConfig struct {
	MaxConnections  int           `yaml:"max_connections"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxSessionAge   time.Duration `yaml:"max_session_age"`
}

// LoggingConfig controls the slog handler level/format and the optional
// syslog sink.
type LoggingConfig struct {
	Level  string               `yaml:"level"`
	Format string               `yaml:"format"`
	Syslog logging.SyslogConfig `yaml:"syslog"`
}

// Config is the daemon's top-level runtime configuration.
type Config struct {
	PollDefaults        PollDefaults  `yaml:"poll_defaults"`
	Pool                PoolConfig    `yaml:"pool"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	PolicyDirectory     string        `yaml:"policy_directory"`
	PolicyCacheTTL      time.Duration `yaml:"policy_cache_ttl"`
	InventoryPath       string        `yaml:"inventory_path"`
	Logging             LoggingConfig `yaml:"logging"`
}

// Default returns the configuration applied when no file is loaded, or to
// fill zero-valued fields after a partial YAML document is decoded.
func Default() *Config {
	return &Config{
		PollDefaults: PollDefaults{
			Interval:          60 * time.Second,
			Retries:           2,
			Timeout:           5 * time.Second,
			MaxVarsPerRequest: 10,
		},
		Pool: PoolConfig{
			MaxConnections:  16,
			CleanupInterval: 5 * time.Minute,
			MaxSessionAge:   30 * time.Minute,
		},
		HealthCheckInterval: time.Minute,
		PolicyDirectory:     "./policies",
		PolicyCacheTTL:      5 * time.Minute,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "pretty",
			Syslog: logging.DefaultSyslogConfig(),
		},
	}
}

// Load reads a YAML config file at path on top of Default(): fields the
// file leaves out keep their default values, and fields the file sets to
// zero are reset to the default too, except PollDefaults.Retries and the
// Logging.Syslog block, which are kept as decoded. A missing or empty file
// is not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fleeterrors.Wrapf(err, fleeterrors.KindDataStoreInternal, "reading config file %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fleeterrors.Wrapf(err, fleeterrors.KindParse, "parsing config file %s", path)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Default()

	if cfg.PollDefaults.Interval == 0 {
		cfg.PollDefaults.Interval = d.PollDefaults.Interval
	}
	if cfg.PollDefaults.Timeout == 0 {
		cfg.PollDefaults.Timeout = d.PollDefaults.Timeout
	}
	if cfg.PollDefaults.MaxVarsPerRequest == 0 {
		cfg.PollDefaults.MaxVarsPerRequest = d.PollDefaults.MaxVarsPerRequest
	}
	if cfg.Pool.MaxConnections == 0 {
		cfg.Pool.MaxConnections = d.Pool.MaxConnections
	}
	if cfg.Pool.CleanupInterval == 0 {
		cfg.Pool.CleanupInterval = d.Pool.CleanupInterval
	}
	if cfg.Pool.MaxSessionAge == 0 {
		cfg.Pool.MaxSessionAge = d.Pool.MaxSessionAge
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = d.HealthCheckInterval
	}
	if cfg.PolicyDirectory == "" {
		cfg.PolicyDirectory = d.PolicyDirectory
	}
	if cfg.PolicyCacheTTL == 0 {
		cfg.PolicyCacheTTL = d.PolicyCacheTTL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
}

// BuildLogger constructs the package-level logger described by cfg.Logging.
func BuildLogger(cfg *Config) (*logging.Logger, error) {
	level, err := logging.ValidateLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fleeterrors.Wrap(err, fleeterrors.KindParse, "invalid logging.level")
	}
	format, _ := logging.ValidateLogFormat(cfg.Logging.Format)

	return logging.New(os.Stderr, level, format), nil
}
