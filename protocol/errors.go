package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError reports a failed command. Err keeps the transport error kind,
// so errors.Is(err, transport.ErrTimeout) and friends work through it.
type ProtocolError struct {
	// Command is the command that failed
	Command Command

	// Address is the EEPROM address involved, when known
	Address uint16

	// HasAddress reports whether Address is set
	HasAddress bool

	// Err is the underlying error
	Err error
}

func (e *ProtocolError) Error() string {
	if e.HasAddress {
		return fmt.Sprintf("%s at 0x%04X failed: %v", e.Command, e.Address, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError returns true if the error is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
