package protocol

import (
	"github.com/moffa90/go-pmeeprom/transport"
)

// ParseReadBytesResponse validates a ReadBytes response and extracts the word.
//
// Response structure:
//
//	[A0][00][08][72][00][05][B0][B1]
//
// A response shorter than DataResponseSize is rejected before any payload
// offset is touched.
func ParseReadBytesResponse(resp []byte) (Word, error) {
	if err := transport.CheckPrefix(resp, DataAckPattern()); err != nil {
		return Word{}, err
	}
	if len(resp) < DataResponseSize {
		return Word{}, &transport.ValidationError{
			Expected: DataAckPattern(),
			Got:      resp,
			Reason:   "data response too short",
		}
	}
	return Word{resp[DataOffset], resp[DataOffset+1]}, nil
}

// ParseAckResponse validates an acknowledgement to SetAddress or WriteBytes.
func ParseAckResponse(resp []byte) error {
	return transport.CheckPrefix(resp, AckPattern())
}
