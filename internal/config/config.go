// Package config loads the dispatcher's runtime configuration from a YAML
// file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a restore run.
type Config struct {
	Worker struct {
		Count       int           `yaml:"count"`
		JobTimeout  time.Duration `yaml:"job_timeout"`
		ChannelSize int           `yaml:"channel_size"`
	} `yaml:"worker"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// Default returns sane defaults, used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Worker.Count = 4
	cfg.Worker.JobTimeout = 30 * time.Second
	cfg.Worker.ChannelSize = 64
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 9090
	return cfg
}

// Load reads and parses a YAML config file at path, falling back to
// Default() for any field left unset by the file (unset durations/ints
// become the zero value if the file provides them explicitly as 0, so
// callers that want the default must simply omit the key).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
