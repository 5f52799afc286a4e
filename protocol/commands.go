package protocol

// BuildSetAddressCmd constructs a SetAddress command frame.
//
// Frame structure:
//
//	[82][00][0A][B1][00][72][00][05][ADDR_L][ADDR_H]
func BuildSetAddressCmd(addr uint16) []byte {
	frame := setAddressTemplate
	frame[PayloadOffset] = byte(addr)
	frame[PayloadOffset+1] = byte(addr >> 8)
	return frame[:]
}

// BuildReadBytesCmd constructs a ReadBytes command frame. It reads the word at
// the address last set with SetAddress.
//
// Frame structure:
//
//	[83][00][05][B1][9C]
func BuildReadBytesCmd() []byte {
	frame := readBytesTemplate
	return frame[:]
}

// BuildWriteBytesCmd constructs a WriteBytes command frame. b0 is stored at
// the address last set with SetAddress and b1 at the following one.
//
// Frame structure:
//
//	[82][00][0A][B1][9C][72][00][05][B0][B1]
func BuildWriteBytesCmd(b0, b1 byte) []byte {
	frame := writeBytesTemplate
	frame[PayloadOffset] = b0
	frame[PayloadOffset+1] = b1
	return frame[:]
}

// AckPattern returns the acknowledgement prefix for SetAddress and WriteBytes.
func AckPattern() []byte {
	p := ackPattern
	return p[:]
}

// DataAckPattern returns the prefix of a data-bearing ReadBytes response.
func DataAckPattern() []byte {
	p := dataAckPattern
	return p[:]
}
