package dump

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown dump format")

// Format is a dump file encoding.
type Format uint8

const (
	// FormatBinary is raw bytes
	FormatBinary Format = iota

	// FormatHex is address-prefixed ASCII hex lines
	FormatHex
)

// Constants for the hex format.
const (
	// BytesPerLine is the number of data bytes per hex line
	BytesPerLine = 16

	// addressDigits is the width of the address column
	addressDigits = 4
)

// String returns the format name as accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "bin"
	case FormatHex:
		return "hex"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat parses "bin" or "hex". An empty string selects FormatBinary.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bin", "binary", "raw":
		return FormatBinary, nil
	case "hex":
		return FormatHex, nil
	default:
		return 0, fmt.Errorf("%w %q: expected bin or hex", ErrUnknownFormat, s)
	}
}
