package transport

import (
	"time"

	"github.com/moffa90/go-pmeeprom/tracelog"
)

// Defaults measured against PM1703 pagers: a response typically starts ~130ms
// after the request.
const (
	DefaultResponseTimeout     = 500 * time.Millisecond
	DefaultResendAttempts      = 2
	DefaultPollInterval        = 1 * time.Millisecond
	DefaultQuietPeriod         = 5 * time.Millisecond
	DefaultMaintenanceInterval = 100 * time.Millisecond
	DefaultDialTimeout         = 2 * time.Second
)

// Config holds the session configuration.
type Config struct {
	// ResponseTimeout is how long to wait for the first response byte before resending
	ResponseTimeout time.Duration

	// ResendAttempts is how many times a request is resent before giving up
	ResendAttempts int

	// PollInterval is the readiness polling period while waiting for the link or a response
	PollInterval time.Duration

	// QuietPeriod is how long the stream must stay silent to end a response
	QuietPeriod time.Duration

	// MaintenanceInterval is the period of the background connect loop
	MaintenanceInterval time.Duration

	// DialTimeout bounds a single connection attempt
	DialTimeout time.Duration

	// Logger is used for operational logging (optional)
	Logger Logger

	// Tracer receives every frame and state change (optional)
	Tracer tracelog.Logger
}

func defaultConfig() Config {
	return Config{
		ResponseTimeout:     DefaultResponseTimeout,
		ResendAttempts:      DefaultResendAttempts,
		PollInterval:        DefaultPollInterval,
		QuietPeriod:         DefaultQuietPeriod,
		MaintenanceInterval: DefaultMaintenanceInterval,
		DialTimeout:         DefaultDialTimeout,
		Tracer:              tracelog.NoopLogger{},
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithResponseTimeout sets how long to wait for a response before resending.
//
// Example:
//
//	sess := transport.NewSession(d, ep, transport.WithResponseTimeout(800*time.Millisecond))
func WithResponseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ResponseTimeout = timeout
		}
	}
}

// WithResendAttempts sets the number of resends after a response timeout.
// Zero disables resending.
func WithResendAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts >= 0 {
			c.ResendAttempts = attempts
		}
	}
}

// WithPollInterval sets the readiness polling period.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}

// WithQuietPeriod sets the silence that terminates a response.
func WithQuietPeriod(period time.Duration) Option {
	return func(c *Config) {
		if period > 0 {
			c.QuietPeriod = period
		}
	}
}

// WithMaintenanceInterval sets the period of the background connect loop.
func WithMaintenanceInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.MaintenanceInterval = interval
		}
	}
}

// WithDialTimeout bounds each connection attempt.
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.DialTimeout = timeout
		}
	}
}

// WithLogger sets a logger for connection lifecycle messages.
// *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTracer records every frame and state change to tracer.
//
// Example:
//
//	ft, _ := tracelog.NewFileLogger("session.ptrace")
//	defer ft.Close()
//	sess := transport.NewSession(d, ep, transport.WithTracer(ft))
func WithTracer(tracer tracelog.Logger) Option {
	return func(c *Config) {
		if tracer != nil {
			c.Tracer = tracer
		}
	}
}

// Logger is an optional logging interface. *slog.Logger implements it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
