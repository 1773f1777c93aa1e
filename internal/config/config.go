// Package config loads server configuration from an optional YAML file and
// FASTIFY_-prefixed environment variables, with env taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Hooks     HooksConfig     `koanf:"hooks"`
}

type ServerConfig struct {
	Port           int    `koanf:"port"`
	RequestTimeout string `koanf:"request_timeout"` // Duration string like "30s"
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // memory, sqlite, none
	DSN    string `koanf:"dsn"`    // Database path for sqlite
}

type SchedulerConfig struct {
	Buffer int `koanf:"buffer"`
}

type HooksConfig struct {
	Webhooks []WebhookConfig `koanf:"webhooks"`
}

type WebhookConfig struct {
	Name     string            `koanf:"name"`
	URL      string            `koanf:"url"`
	Timeout  string            `koanf:"timeout"` // Duration string like "5s"
	Retries  int               `koanf:"retries"`
	FailOpen bool              `koanf:"fail_open"`
	Headers  map[string]string `koanf:"headers"`
}

// Load reads configuration. path may be empty, in which case only env vars
// and defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment variables override the file: FASTIFY_SERVER__PORT=9000
	// maps to server.port.
	if err := k.Load(env.Provider("FASTIFY_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "FASTIFY_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.request_timeout") {
		k.Set("server.request_timeout", "30s")
	}
	if !k.Exists("storage.driver") {
		k.Set("storage.driver", "memory")
	}
	if !k.Exists("scheduler.buffer") {
		k.Set("scheduler.buffer", 256)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseRequestTimeout parses the configured request timeout.
func (c *ServerConfig) ParseRequestTimeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	return d, nil
}
