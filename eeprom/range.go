package eeprom

import (
	"fmt"

	"github.com/moffa90/go-pmeeprom/protocol"
)

// Range is a half-open EEPROM address range [Start, End).
type Range struct {
	Start uint16
	End   uint16
}

// Validate checks that the range is non-empty.
func (r Range) Validate() error {
	if r.End <= r.Start {
		return &RangeError{Range: r, Reason: "end must be greater than start"}
	}
	return nil
}

// ValidateFor checks r for op. Reads accept an odd range and read its last
// word whole; writes and verifies need whole words of file data.
func (r Range) ValidateFor(op Operation) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if op != OpRead && r.Len()%protocol.WordSize != 0 {
		return &RangeError{Range: r, Reason: "length must be a multiple of 2 to " + op.String()}
	}
	return nil
}

// Len returns the number of bytes in the range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return int(r.End) - int(r.Start)
}

// Words returns the number of words that cover the range.
func (r Range) Words() int {
	return (r.Len() + protocol.WordSize - 1) / protocol.WordSize
}

// Address returns the address of word i.
func (r Range) Address(i int) uint16 {
	return r.Start + uint16(i*protocol.WordSize)
}

func (r Range) String() string {
	return fmt.Sprintf("0x%04X-0x%04X", r.Start, r.End)
}
