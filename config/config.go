// Package config loads the agent configuration from YAML with
// environment overrides for containerized deployments.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	// Listen is the control-surface bind address
	Listen string `yaml:"listen"`

	// DSN is the Postgres connection string
	DSN string `yaml:"dsn"`

	Poll  PollConfig `yaml:"poll"`
	Log   LogConfig  `yaml:"log"`
	Debug bool       `yaml:"debug"`
}

// PollConfig tunes the fleet schedule.
type PollConfig struct {
	// Schedule is a cron expression, e.g. "@every 10m"
	Schedule string `yaml:"schedule"`

	// Workers bounds concurrent device polls
	Workers int `yaml:"workers"`

	// TimeoutSec bounds one device poll end to end
	TimeoutSec int `yaml:"timeout_sec"`

	// SettingsTTLSec is the settings-cache lifetime
	SettingsTTLSec int `yaml:"settings_ttl_sec"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`

	// Encoding is "json" or "console"
	Encoding string `yaml:"encoding"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Listen: ":8090",
		DSN:    "host=127.0.0.1 user=fleetmon password=fleetmon dbname=fleetmon port=5432 sslmode=disable",
		Poll: PollConfig{
			Schedule:       "@every 10m",
			Workers:        4,
			TimeoutSec:     240,
			SettingsTTLSec: 30,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads the file when it exists, then applies FLEETMON_* overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.applyEnv()
	if cfg.Poll.Workers <= 0 {
		cfg.Poll.Workers = 4
	}
	if cfg.Poll.Schedule == "" {
		cfg.Poll.Schedule = "@every 10m"
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FLEETMON_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("FLEETMON_DSN"); v != "" {
		c.DSN = v
	}
	if v := os.Getenv("FLEETMON_POLL_SCHEDULE"); v != "" {
		c.Poll.Schedule = v
	}
	if v := os.Getenv("FLEETMON_POLL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Poll.Workers = n
		}
	}
	if v := os.Getenv("FLEETMON_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FLEETMON_DEBUG"); v != "" {
		c.Debug = v == "1" || v == "true"
	}
}
