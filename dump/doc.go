// Package dump reads and writes EEPROM dump files.
//
// # Formats
//
// Binary (the default) stores the raw bytes of the range. Offset 0 of the
// file is the first address of the range.
//
// Hex stores one line per 16 bytes, prefixed with the EEPROM address:
//
//	0100: 12 34 56 78 9A BC DE F0 00 11 22 33 44 55 66 77
//	0110: 88 99
//
// Addresses are four hex digits. Lines must be contiguous: each line starts
// where the previous one ended. Blank lines and lines starting with '#' are
// ignored when reading.
//
// The format is never derived from the file name; the default file
// eeprom_dump.hex holds binary data.
//
// # Sink
//
//	sink, err := dump.CreateSink("eeprom_dump.hex", dump.FormatBinary, 0)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
// # Source
//
//	data, err := dump.NewFileSource("eeprom_dump.hex", dump.FormatBinary).ReadExactly(1024)
package dump
