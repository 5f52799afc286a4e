package transport

import (
	"context"
	"fmt"
	"os"

	"go.bug.st/serial"
)

// DefaultBaudRate is the IrCOMM rate the pagers negotiate.
const DefaultBaudRate = 9600

// SerialDialer opens IrCOMM / USB-IrDA serial devices.
type SerialDialer struct {
	Mode *serial.Mode
}

// NewSerialDialer returns a dialer for 8N1 serial links at the given baud rate.
// A non-positive rate selects DefaultBaudRate.
func NewSerialDialer(baudRate int) *SerialDialer {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &SerialDialer{
		Mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
}

// Dial opens the serial device at ep.Address.
func (d *SerialDialer) Dial(ctx context.Context, ep Endpoint) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := serial.Open(ep.Address, d.Mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %w", ep.Address, err)
	}

	return &serialStream{Port: port, path: ep.Address}, nil
}

// serialStream reports the link dead once the device node disappears, which
// is what happens when a USB-IrDA dongle is unplugged.
type serialStream struct {
	serial.Port
	path string
}

func (s *serialStream) Alive() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
