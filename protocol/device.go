package protocol

import (
	"context"
	"sync"
)

// Exchanger performs one validated request/response exchange.
// *transport.Session implements it.
type Exchanger interface {
	ExchangeAndCheck(ctx context.Context, send, pattern []byte) ([]byte, error)
}

// Device runs EEPROM commands against a pager.
//
// Device is safe for concurrent use. Every public method holds the device
// lock for its whole duration, so the address register set by a composite
// operation cannot be moved by another caller before the data exchange.
type Device struct {
	link Exchanger
	mu   sync.Mutex
}

// NewDevice creates a Device on top of link.
func NewDevice(link Exchanger) *Device {
	if link == nil {
		panic("link cannot be nil")
	}
	return &Device{link: link}
}

// SetAddress loads the device address register.
func (d *Device) SetAddress(ctx context.Context, addr uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setAddress(ctx, addr)
}

// ReadWord reads the word at the current address register.
func (d *Device) ReadWord(ctx context.Context) (Word, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readWord(ctx, 0, false)
}

// WriteWord writes a word at the current address register.
func (d *Device) WriteWord(ctx context.Context, w Word) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeWord(ctx, w, 0, false)
}

// ReadWordAt sets the address and reads the word stored there.
func (d *Device) ReadWordAt(ctx context.Context, addr uint16) (Word, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setAddress(ctx, addr); err != nil {
		return Word{}, err
	}
	return d.readWord(ctx, addr, true)
}

// WriteWordAt sets the address and writes w there.
func (d *Device) WriteWordAt(ctx context.Context, addr uint16, w Word) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setAddress(ctx, addr); err != nil {
		return err
	}
	return d.writeWord(ctx, w, addr, true)
}

func (d *Device) setAddress(ctx context.Context, addr uint16) error {
	if err := d.ack(ctx, CmdSetAddress, BuildSetAddressCmd(addr)); err != nil {
		return &ProtocolError{Command: CmdSetAddress, Address: addr, HasAddress: true, Err: err}
	}
	return nil
}

func (d *Device) readWord(ctx context.Context, addr uint16, hasAddr bool) (Word, error) {
	resp, err := d.link.ExchangeAndCheck(ctx, BuildReadBytesCmd(), CmdReadBytes.ResponsePattern())
	if err == nil {
		var w Word
		if w, err = ParseReadBytesResponse(resp); err == nil {
			return w, nil
		}
	}
	return Word{}, &ProtocolError{Command: CmdReadBytes, Address: addr, HasAddress: hasAddr, Err: err}
}

func (d *Device) writeWord(ctx context.Context, w Word, addr uint16, hasAddr bool) error {
	if err := d.ack(ctx, CmdWriteBytes, BuildWriteBytesCmd(w[0], w[1])); err != nil {
		return &ProtocolError{Command: CmdWriteBytes, Address: addr, HasAddress: hasAddr, Err: err}
	}
	return nil
}

// ack sends an acknowledged command.
func (d *Device) ack(ctx context.Context, cmd Command, send []byte) error {
	resp, err := d.link.ExchangeAndCheck(ctx, send, cmd.ResponsePattern())
	if err != nil {
		return err
	}
	return ParseAckResponse(resp)
}
