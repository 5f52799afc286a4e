package eeprom

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOperation is returned by ParseOperation.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is a batch mode.
type Operation uint8

const (
	OpRead Operation = iota
	OpWrite
	OpVerify
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpVerify:
		return "verify"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// ParseOperation accepts the one-letter command-line form (r, w, v) as well
// as the full name.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "r", "read":
		return OpRead, nil
	case "w", "write":
		return OpWrite, nil
	case "v", "verify":
		return OpVerify, nil
	default:
		return 0, fmt.Errorf("%w %q: expected r, w or v", ErrUnknownOperation, s)
	}
}
