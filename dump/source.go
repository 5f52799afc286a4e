package dump

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ShortSourceError indicates a dump holding fewer bytes than requested.
type ShortSourceError struct {
	Path string
	Want int
	Got  int
}

func (e *ShortSourceError) Error() string {
	return fmt.Sprintf("%s holds %d bytes, need %d", e.Path, e.Got, e.Want)
}

// SyntaxError indicates a malformed line in a hex dump.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// FileSource reads the leading bytes of a dump file.
type FileSource struct {
	Path   string
	Format Format
}

// NewFileSource returns a source for path.
func NewFileSource(path string, format Format) *FileSource {
	return &FileSource{Path: path, Format: format}
}

// ReadExactly returns the first n bytes of the dump.
func (s *FileSource) ReadExactly(n int) ([]byte, error) {
	return ReadExactly(s.Path, s.Format, n)
}

// ReadExactly opens path and returns its first count bytes. Files holding
// fewer bytes fail with a *ShortSourceError.
//
// Example:
//
//	data, err := dump.ReadExactly("eeprom_dump.hex", dump.FormatBinary, 1024)
func ReadExactly(path string, format Format, count int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadExactlyFrom(f, path, format, count)
}

// ReadExactlyFrom reads count bytes of a dump from r. name is used in errors.
func ReadExactlyFrom(r io.Reader, name string, format Format, count int) ([]byte, error) {
	switch format {
	case FormatBinary:
		buf := make([]byte, count)
		n, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ShortSourceError{Path: name, Want: count, Got: n}
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf, nil

	case FormatHex:
		data, err := parseHex(r, count)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if len(data) < count {
			return nil, &ShortSourceError{Path: name, Want: count, Got: len(data)}
		}
		return data[:count], nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// parseHex decodes hex lines until limit bytes are collected or the input ends.
func parseHex(r io.Reader, limit int) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	data := make([]byte, 0, limit)

	var next uint64
	first := true
	lineNum := 0
	for len(data) < limit && scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || line[0] == '#' {
			continue
		}

		addr, row, err := parseHexLine(line)
		if err != nil {
			return nil, &SyntaxError{Line: lineNum, Msg: err.Error()}
		}
		if !first && addr != next {
			return nil, &SyntaxError{Line: lineNum,
				Msg: fmt.Sprintf("address 0x%04X does not follow 0x%04X", addr, next)}
		}
		first = false
		next = addr + uint64(len(row))
		data = append(data, row...)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// parseHexLine parses "AAAA: XX XX ...".
func parseHexLine(line string) (uint64, []byte, error) {
	colon := strings.IndexByte(line, ':')
	if colon == -1 {
		return 0, nil, errors.New("missing ':' after address")
	}

	addr, err := strconv.ParseUint(strings.TrimSpace(line[:colon]), 16, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid address %q", line[:colon])
	}

	fields := strings.Fields(line[colon+1:])
	if len(fields) == 0 {
		return 0, nil, errors.New("no data bytes")
	}
	if len(fields) > BytesPerLine {
		return 0, nil, fmt.Errorf("%d data bytes, at most %d per line", len(fields), BytesPerLine)
	}

	row := make([]byte, len(fields))
	for i, f := range fields {
		if len(f) != 2 {
			return 0, nil, fmt.Errorf("invalid byte %q", f)
		}
		if _, err := hex.Decode(row[i:i+1], []byte(f)); err != nil {
			return 0, nil, fmt.Errorf("invalid byte %q", f)
		}
	}
	return addr, row, nil
}
