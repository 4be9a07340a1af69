// Package config loads clusterproxy-demo's configuration from a YAML
// file, applying environment-variable overrides for anything secret.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration tree.
type Config struct {
	Cluster ClusterConfig `yaml:"cluster"`
	Logging LoggingConfig `yaml:"logging"`
	Gossip  GossipConfig  `yaml:"gossip"`
	Admin   AdminConfig   `yaml:"admin"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ClusterConfig describes how to reach the backend cluster.
type ClusterConfig struct {
	SeedIP         string        `yaml:"seed_ip"`
	SeedPort       int           `yaml:"seed_port"`
	UnixSocket     string        `yaml:"unix_socket"`
	AuthSecret     string        `yaml:"auth_secret"`
	UpdatePollEvery time.Duration `yaml:"update_poll_every"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GossipConfig configures the memberlist-backed drift detector.
type GossipConfig struct {
	BindAddr string   `yaml:"bind_addr"`
	BindPort int      `yaml:"bind_port"`
	NodeName string   `yaml:"node_name"`
	Join     []string `yaml:"join"`
}

// AdminConfig configures the read-only JWT-gated admin HTTP API.
type AdminConfig struct {
	Addr      string        `yaml:"addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads cfg from a YAML file at path and applies environment
// overrides for secrets, mirroring the override set a deployment
// typically wants to inject outside of version control.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if secret := os.Getenv("CLUSTERPROXY_AUTH_SECRET"); secret != "" {
		cfg.Cluster.AuthSecret = secret
	}
	if secret := os.Getenv("CLUSTERPROXY_ADMIN_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}
	if level := os.Getenv("CLUSTERPROXY_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Cluster.UpdatePollEvery == 0 {
		cfg.Cluster.UpdatePollEvery = 250 * time.Millisecond
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Admin.TokenTTL == 0 {
		cfg.Admin.TokenTTL = time.Hour
	}
}

// Validate checks the minimal set of fields required to start the
// demo: a seed to discover the cluster from, and a secret to sign
// admin API tokens with.
func (c *Config) Validate() error {
	if c.Cluster.SeedIP == "" && c.Cluster.UnixSocket == "" {
		return fmt.Errorf("cluster.seed_ip or cluster.unix_socket is required")
	}
	if c.Cluster.SeedIP != "" && c.Cluster.SeedPort == 0 {
		return fmt.Errorf("cluster.seed_port is required when cluster.seed_ip is set")
	}
	if c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin.jwt_secret is required")
	}
	return nil
}
