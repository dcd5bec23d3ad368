// Package config loads server configuration from an optional YAML file,
// with environment variables taking precedence over file values.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	BindPortEnvVar         = "PORT"
	DBUrlEnvVar            = "DATABASE_URL"
	TelemetryEnabledEnvVar = "OTEL_ENABLED"

	ProviderURLEnvVar   = "PROVIDER_API_URL"
	ProviderTokenEnvVar = "PROVIDER_API_TOKEN"
)

const (
	DefaultBindPort = "8080"

	defaultRequestTimeoutSec = 30
	defaultRequestsPerSec    = 5
)

// ProviderConfig holds the upstream provider API settings.
type ProviderConfig struct {
	// BaseURL is the provider API root, eg- "https://api.example.com".
	BaseURL string `yaml:"base_url"`

	// Token authenticates all provider requests.
	Token string `yaml:"token"`

	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ServerConfig is the full server configuration.
type ServerConfig struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	Provider ProviderConfig `yaml:"provider"`

	TelemetryEnabled bool `yaml:"telemetry_enabled"`
}

// Load reads the configuration file at path if it exists, fills in
// defaults, and applies environment variable overrides. A missing file
// is not an error: everything can be supplied via the environment.
func Load(fs afero.Fs, path string) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port: DefaultBindPort,
		Provider: ProviderConfig{
			RequestTimeoutSec: defaultRequestTimeoutSec,
			RequestsPerSecond: defaultRequestsPerSec,
		},
	}

	if path != "" {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to check config file %s: %w", path, err)
		}
		if exists {
			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Port == "" {
		cfg.Port = DefaultBindPort
	}
	if cfg.Provider.RequestTimeoutSec <= 0 {
		cfg.Provider.RequestTimeoutSec = defaultRequestTimeoutSec
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *ServerConfig) error {
	if v := os.Getenv(BindPortEnvVar); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv(DBUrlEnvVar); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(ProviderURLEnvVar); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv(ProviderTokenEnvVar); v != "" {
		cfg.Provider.Token = v
	}

	if v := os.Getenv(TelemetryEnabledEnvVar); v != "" {
		switch strings.ToLower(v) {
		case "true", "1":
			cfg.TelemetryEnabled = true
		case "false", "0":
			cfg.TelemetryEnabled = false
		default:
			return fmt.Errorf(
				"invalid value for %s environment variable: '%s', valid values are 'true' or 'false'",
				TelemetryEnabledEnvVar, v,
			)
		}
	}

	return nil
}
