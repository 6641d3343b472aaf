// Package config loads the service's small YAML configuration, following
// the teacher's config-file-plus-struct convention
// (internal/config/guards.go) rather than flag-only configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// ServiceConfig is the top-level configuration for orderbookd.
type ServiceConfig struct {
	RedisURL  string   `yaml:"redis_url"`
	HTTPAddr  string   `yaml:"http_addr"`
	Pairs     []string `yaml:"pairs"`
	Intervals []float64 `yaml:"intervals_seconds"`
	Workers   int      `yaml:"job_workers"`
}

// Default matches the reference system's defaults: Redis at the
// in-cluster hostname, the two supported pairs, and the three
// overlapping refresh cadences from app.py's start_up.
func Default() ServiceConfig {
	return ServiceConfig{
		RedisURL:  "redis://redis:6379/0",
		HTTPAddr:  ":8090",
		Pairs:     []string{"BTCUSD", "ETHUSD"},
		Intervals: []float64{1.2, 2.3, 3.4},
		Workers:   4,
	}
}

// Load reads a YAML config file at path if it exists, applying defaults
// for anything unset, then lets REDIS_URL and ORDERBOOKD_ADDR
// environment variables override the result.
func Load(path string) (ServiceConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var fromFile ServiceConfig
			if err := yaml.Unmarshal(data, &fromFile); err != nil {
				return cfg, err
			}
			mergeInto(&cfg, fromFile)
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("ORDERBOOKD_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	return cfg, nil
}

func mergeInto(base *ServiceConfig, override ServiceConfig) {
	if override.RedisURL != "" {
		base.RedisURL = override.RedisURL
	}
	if override.HTTPAddr != "" {
		base.HTTPAddr = override.HTTPAddr
	}
	if len(override.Pairs) > 0 {
		base.Pairs = override.Pairs
	}
	if len(override.Intervals) > 0 {
		base.Intervals = override.Intervals
	}
	if override.Workers > 0 {
		base.Workers = override.Workers
	}
}
