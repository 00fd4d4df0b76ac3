// Package config loads and validates the YAML-tagged configuration for the
// reference bulk-reader binary, following the teacher's LoadConfig /
// setDefaults / Validate pattern.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ExecutorConfig configures the blocking-I/O executor (internal/executor).
type ExecutorConfig struct {
	MaxWorkers int `yaml:"max_workers"`
	QueueSize  int `yaml:"queue_size"`
}

// GossipConfig configures the memberlist-backed Availability Oracle.
type GossipConfig struct {
	Enabled        bool          `yaml:"enabled"`
	BindPort       int           `yaml:"bind_port"`
	SeedNodes      []string      `yaml:"seed_nodes"`
	GossipInterval time.Duration `yaml:"gossip_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
}

// TransportConfig configures the reference listInstance gRPC transport.
type TransportConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// FetchConfig configures the replica fetcher's deadline and failover
// pacing.
type FetchConfig struct {
	PerReplicaTimeout time.Duration `yaml:"per_replica_timeout"`
	FailoverRatePerSec float64      `yaml:"failover_rate_per_sec"`
	FailoverBurst      int          `yaml:"failover_burst"`
}

// MetricsConfig configures the Prometheus Stats sink.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the complete configuration for the reference bulk-reader
// binary.
type Config struct {
	JobID     string          `yaml:"job_id"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Gossip    GossipConfig    `yaml:"gossip"`
	Transport TransportConfig `yaml:"transport"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load reads and parses a YAML config file, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.JobID == "" {
		cfg.JobID = "bulk-reader"
	}
	if cfg.Executor.MaxWorkers == 0 {
		cfg.Executor.MaxWorkers = 16
	}
	if cfg.Executor.QueueSize == 0 {
		cfg.Executor.QueueSize = 256
	}
	if cfg.Gossip.BindPort == 0 {
		cfg.Gossip.BindPort = 7946
	}
	if cfg.Gossip.GossipInterval == 0 {
		cfg.Gossip.GossipInterval = 200 * time.Millisecond
	}
	if cfg.Gossip.ProbeInterval == 0 {
		cfg.Gossip.ProbeInterval = time.Second
	}
	if cfg.Gossip.ProbeTimeout == 0 {
		cfg.Gossip.ProbeTimeout = 500 * time.Millisecond
	}
	if cfg.Transport.Port == 0 {
		cfg.Transport.Port = 9042
	}
	if cfg.Fetch.PerReplicaTimeout == 0 {
		cfg.Fetch.PerReplicaTimeout = 30 * time.Second
	}
	if cfg.Fetch.FailoverRatePerSec == 0 {
		cfg.Fetch.FailoverRatePerSec = 5
	}
	if cfg.Fetch.FailoverBurst == 0 {
		cfg.Fetch.FailoverBurst = 5
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks invariants setDefaults cannot fix on its own.
func (c *Config) Validate() error {
	if c.Executor.MaxWorkers <= 0 {
		return fmt.Errorf("executor.max_workers must be positive")
	}
	if c.Executor.QueueSize <= 0 {
		return fmt.Errorf("executor.queue_size must be positive")
	}
	if c.Fetch.PerReplicaTimeout <= 0 {
		return fmt.Errorf("fetch.per_replica_timeout must be positive")
	}
	if c.Fetch.FailoverRatePerSec <= 0 {
		return fmt.Errorf("fetch.failover_rate_per_sec must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
