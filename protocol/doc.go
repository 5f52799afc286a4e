// Package protocol implements the Polimaster pager EEPROM command protocol.
//
// This package builds the command frames understood by PM1703/PM1401 series
// pagers, validates their responses and extracts the payload.
//
// # Protocol Overview
//
// The EEPROM is accessed one 16-bit word at a time through two exchanges:
// an address write followed by a data read or write.
//
//	SetAddress:  82 00 0A B1 00 72 00 05 <ADDR_L> <ADDR_H>
//	ReadBytes:   83 00 05 B1 9C
//	WriteBytes:  82 00 0A B1 9C 72 00 05 <B0> <B1>
//
// Frames carry no length prefix, terminator or checksum. A response is
// recognised by its leading bytes:
//
//	Ack:      A0 00 03                    (SetAddress, WriteBytes)
//	DataAck:  A0 00 08 72 00 05 <B0> <B1> (ReadBytes)
//
// # Command Builders
//
// Use the Build* functions to create command frames. Every call returns a
// fresh slice, so frames are never shared between exchanges:
//
//	frame := protocol.BuildSetAddressCmd(0x0100)
//	frame := protocol.BuildWriteBytesCmd(0x12, 0x34)
//
// # Device
//
// Device runs the commands over anything that implements Exchanger, usually
// a *transport.Session:
//
//	dev := protocol.NewDevice(sess)
//	word, err := dev.ReadWordAt(ctx, 0x0010)
//
// The composite ReadWordAt and WriteWordAt hold a device lock across both of
// their exchanges, so the address register is never changed between them.
package protocol
