package dump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sink writes the bytes of a read in address order.
//
// Sink is not safe for concurrent use.
type Sink struct {
	f      *os.File
	w      *bufio.Writer
	format Format

	// next is the address of the next byte appended
	next uint32

	// line holds the bytes of the current, incomplete hex line
	line []byte

	closed bool
}

// CreateSink truncates or creates path and opens it for appending. base is
// the EEPROM address of the first byte; the hex format prints it.
//
// Example:
//
//	sink, err := dump.CreateSink("dump.txt", dump.FormatHex, 0x0100)
func CreateSink(path string, format Format, base uint16) (*Sink, error) {
	if format != FormatBinary && format != FormatHex {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create dump file: %w", err)
	}

	return &Sink{
		f:      f,
		w:      bufio.NewWriter(f),
		format: format,
		next:   uint32(base),
		line:   make([]byte, 0, BytesPerLine),
	}, nil
}

// Append adds p to the dump.
func (s *Sink) Append(p []byte) error {
	if s.closed {
		return os.ErrClosed
	}

	if s.format == FormatBinary {
		if _, err := s.w.Write(p); err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
		s.next += uint32(len(p))
		return nil
	}

	for _, b := range p {
		s.line = append(s.line, b)
		if len(s.line) == BytesPerLine {
			if err := s.writeLine(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush hands everything appended so far to the operating system. In the
// hex format an incomplete last line is written past the end of the file
// without moving the write offset; the next line written overwrites it with a
// longer version of itself.
func (s *Sink) Flush() error {
	if s.closed {
		return os.ErrClosed
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}
	if s.format != FormatHex || len(s.line) == 0 {
		return nil
	}

	off, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}
	if _, err := s.f.WriteAt([]byte(FormatHexLine(s.next, s.line)), off); err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}
	return nil
}

// Close writes any incomplete hex line, flushes and closes the file.
// Close is idempotent.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if len(s.line) > 0 {
		err = s.writeLine()
	}
	if ferr := s.w.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("flush dump: %w", ferr)
	}
	if cerr := s.f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close dump: %w", cerr)
	}
	return err
}

// writeLine emits the pending hex line and starts a new one.
func (s *Sink) writeLine() error {
	addr := s.next
	s.next += uint32(len(s.line))
	line := FormatHexLine(addr, s.line)
	s.line = s.line[:0]

	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}

// FormatHexLine renders one hex line, newline included.
func FormatHexLine(addr uint32, data []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%0*X:", addressDigits, addr)
	for _, b := range data {
		fmt.Fprintf(&sb, " %02X", b)
	}
	sb.WriteByte('\n')
	return sb.String()
}
