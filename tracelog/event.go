package tracelog

import (
	"fmt"
	"time"
)

// Event is one entry of a link trace.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the transport session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Direction of a frame event.
	Direction Direction `cbor:"4,keyasint,omitempty"`

	// Endpoint is the device the session is bound to.
	Endpoint string `cbor:"5,keyasint,omitempty"`

	// Attempt is 0 for the first transmission of a request and n for the n-th resend.
	Attempt int `cbor:"6,keyasint,omitempty"`

	// Data holds the raw frame bytes.
	Data []byte `cbor:"7,keyasint,omitempty"`

	// OldState and NewState describe a session state transition.
	OldState string `cbor:"8,keyasint,omitempty"`
	NewState string `cbor:"9,keyasint,omitempty"`

	// Message carries the error text of CategoryError events.
	Message string `cbor:"10,keyasint,omitempty"`
}

// Direction indicates the direction of a frame.
type Direction uint8

const (
	// DirectionIn is a response read from the device.
	DirectionIn Direction = 0
	// DirectionOut is a request written to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies events.
type Category uint8

const (
	// CategoryFrame is a request or response frame.
	CategoryFrame Category = 0
	// CategoryState is a session state transition.
	CategoryState Category = 1
	// CategoryError is a failed exchange.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// HexData returns Data as space separated upper-case hex, the way frames are
// written in the device documentation ("82 00 0A B1 ...").
func (e Event) HexData() string {
	return fmt.Sprintf("% X", e.Data)
}
