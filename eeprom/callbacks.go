package eeprom

import "time"

// Progress contains information about the batch progress.
// Passed to ProgressCallback after every word.
type Progress struct {
	// Operation is the running batch mode
	Operation Operation

	// Address is the address of the word just processed
	Address uint16

	// WordsDone is the number of words processed so far
	WordsDone int

	// TotalWords is the number of words in the range
	TotalWords int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesTransferred is the number of EEPROM bytes read or written so far
	BytesTransferred int

	// ElapsedTime is the time elapsed since the batch started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every word to report progress.
// Implementations should return quickly; the link sits idle meanwhile.
//
// Example:
//
//	prog := eeprom.New(dev,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("\r%s [%d/%d]", p.Operation, p.WordsDone, p.TotalWords)
//	    }),
//	)
type ProgressCallback func(Progress)

// MismatchCallback is called by Verify for every differing byte, as soon as
// it is found.
type MismatchCallback func(Mismatch)

// Logger is an optional logging interface that can be provided to the programmer.
// *slog.Logger satisfies it.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...any)

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...any)

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...any)
}
