package eeprom

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called after every word (optional)
	ProgressCallback ProgressCallback

	// MismatchCallback is called for every byte Verify finds different (optional)
	MismatchCallback MismatchCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track batch progress.
//
// Example:
//
//	prog := eeprom.New(dev,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithMismatchCallback streams verification mismatches as they are found.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithMismatchCallback(func(m eeprom.Mismatch) {
//	    fmt.Println(m)
//	}))
func WithMismatchCallback(callback MismatchCallback) Option {
	return func(c *Config) {
		c.MismatchCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := eeprom.New(dev, eeprom.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
