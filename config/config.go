// Package config loads the pmeeprom configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-pmeeprom/discovery"
	"github.com/moffa90/go-pmeeprom/dump"
	"github.com/moffa90/go-pmeeprom/transport"
)

// Config holds the pmeeprom configuration.
type Config struct {
	// Port skips discovery when set
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`

	DiscoveryPatterns []string      `yaml:"discovery_patterns"`
	DiscoveryInterval time.Duration `yaml:"discovery_interval"`

	ResponseTimeout     time.Duration `yaml:"response_timeout"`
	ResendAttempts      int           `yaml:"resend_attempts"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	QuietPeriod         time.Duration `yaml:"quiet_period"`
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`

	// TraceFile receives a CBOR protocol trace when set
	TraceFile string `yaml:"trace_file"`
	LogLevel  string `yaml:"log_level"`
	Format    string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaudRate:            transport.DefaultBaudRate,
		DiscoveryPatterns:   append([]string(nil), discovery.DefaultPatterns...),
		DiscoveryInterval:   discovery.DefaultPollInterval,
		ResponseTimeout:     transport.DefaultResponseTimeout,
		ResendAttempts:      transport.DefaultResendAttempts,
		PollInterval:        transport.DefaultPollInterval,
		QuietPeriod:         transport.DefaultQuietPeriod,
		MaintenanceInterval: transport.DefaultMaintenanceInterval,
		LogLevel:            "warn",
		Format:              dump.FormatBinary.String(),
	}
}

// DefaultPath returns the default config file path: ~/.pmeeprom/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".pmeeprom", "config.yaml")
	}
	return filepath.Join(home, ".pmeeprom", "config.yaml")
}

// Load reads the configuration from the given YAML file path. Keys missing
// from the file keep their defaults. If the file does not exist, Load
// returns the defaults with no error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate))
	}
	if c.ResendAttempts < 0 {
		errs = append(errs, fmt.Errorf("resend_attempts must not be negative, got %d", c.ResendAttempts))
	}
	for name, d := range map[string]time.Duration{
		"discovery_interval":   c.DiscoveryInterval,
		"response_timeout":     c.ResponseTimeout,
		"poll_interval":        c.PollInterval,
		"quiet_period":         c.QuietPeriod,
		"maintenance_interval": c.MaintenanceInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := dump.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

// SessionOptions returns the transport options the configuration selects.
func (c *Config) SessionOptions() []transport.Option {
	return []transport.Option{
		transport.WithResponseTimeout(c.ResponseTimeout),
		transport.WithResendAttempts(c.ResendAttempts),
		transport.WithPollInterval(c.PollInterval),
		transport.WithQuietPeriod(c.QuietPeriod),
		transport.WithMaintenanceInterval(c.MaintenanceInterval),
	}
}
