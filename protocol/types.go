package protocol

import "fmt"

// Word is one EEPROM access unit, in address order: Word[0] is stored at the
// even address and Word[1] at the next one.
type Word [WordSize]byte

// String returns the word as two hex bytes.
func (w Word) String() string {
	return fmt.Sprintf("%02X %02X", w[0], w[1])
}

// Command identifies a protocol command.
type Command uint8

const (
	// CmdSetAddress loads the device address register
	CmdSetAddress Command = iota

	// CmdReadBytes reads the word at the address register
	CmdReadBytes

	// CmdWriteBytes writes a word at the address register
	CmdWriteBytes
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdSetAddress:
		return "set address"
	case CmdReadBytes:
		return "read bytes"
	case CmdWriteBytes:
		return "write bytes"
	default:
		return fmt.Sprintf("command(%d)", uint8(c))
	}
}

// ResponsePattern returns the prefix a successful response to c starts with.
func (c Command) ResponsePattern() []byte {
	if c == CmdReadBytes {
		return DataAckPattern()
	}
	return AckPattern()
}
