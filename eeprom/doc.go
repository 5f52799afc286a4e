// Package eeprom provides a high-level API for reading, writing and verifying
// the EEPROM of Polimaster pagers.
//
// # Overview
//
// A Programmer drives a contiguous address Range through one operation:
//   - Read: every word of the range is read and appended to a Sink
//   - Write: the source bytes are written word by word
//   - Verify: every word is read back and compared with the source bytes
//
// The EEPROM is accessed one 16-bit word at a time, so a range always has an
// even length.
//
// # Basic Usage
//
//	sess := transport.NewSession(transport.NewSerialDialer(9600), ep)
//	defer sess.Close()
//
//	prog := eeprom.New(protocol.NewDevice(sess))
//
//	sink, err := dump.CreateSink("eeprom_dump.hex", dump.FormatBinary, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sink.Close()
//
//	err = prog.Read(ctx, eeprom.Range{Start: 0, End: 1024}, sink)
//
// # Progress Tracking
//
//	prog := eeprom.New(dev,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("%s [%d/%d] %.1f%%\n",
//	            p.Operation, p.WordsDone, p.TotalWords, p.Percentage)
//	    }),
//	)
//
// # Cancellation
//
// The context is checked before every word. A cancelled batch stops issuing
// exchanges but keeps what it already did: words read are in the sink, words
// written stay written.
//
// # Error Handling
//
// A batch that stops early returns a *BatchError naming the operation, the
// failing address and how many words completed. Its Err keeps the transport
// error kind, so transport.Classify works on it. Verify mismatches are not
// errors; they are collected in the VerifyReport.
package eeprom
