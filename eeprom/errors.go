package eeprom

import (
	"fmt"
)

// RangeError indicates an address range that cannot be processed.
type RangeError struct {
	Range  Range
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %s: %s", e.Range, e.Reason)
}

// SourceError indicates that the source holds fewer bytes than the range needs.
type SourceError struct {
	Want int
	Got  int
	Err  error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read source: %v", e.Err)
	}
	return fmt.Sprintf("source too short: need %d bytes, got %d", e.Want, e.Got)
}

// Unwrap returns the underlying error, if any.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// BatchError indicates that a batch stopped before the end of its range,
// because of a device error, a sink error or cancellation.
type BatchError struct {
	// Operation is the batch mode
	Operation Operation

	// Address is the word address being processed when the batch stopped
	Address uint16

	// Completed is the number of words completed before the failure
	Completed int

	// Err is the underlying error
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s stopped at 0x%04X after %d words: %v",
		e.Operation, e.Address, e.Completed, e.Err)
}

// Unwrap returns the underlying error.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// Mismatch is one byte that differs between the source and the device.
type Mismatch struct {
	Address  uint16
	Expected byte
	Actual   byte
}

func (m Mismatch) String() string {
	return fmt.Sprintf("0x%04X: expected 0x%02X, got 0x%02X", m.Address, m.Expected, m.Actual)
}

// VerifyReport is the outcome of a Verify run.
type VerifyReport struct {
	// Range is the verified address range
	Range Range

	// WordsChecked is the number of words read back
	WordsChecked int

	// Mismatches lists every differing byte in address order
	Mismatches []Mismatch
}

// Count returns the number of mismatched bytes.
func (r *VerifyReport) Count() int {
	return len(r.Mismatches)
}

// OK reports whether every checked byte matched.
func (r *VerifyReport) OK() bool {
	return len(r.Mismatches) == 0
}
