package protocol

// Command frame templates. Mutable slots are at the end of each frame.
var (
	setAddressTemplate = [...]byte{0x82, 0x00, 0x0A, 0xB1, 0x00, 0x72, 0x00, 0x05, 0x00, 0x00}
	readBytesTemplate  = [...]byte{0x83, 0x00, 0x05, 0xB1, 0x9C}
	writeBytesTemplate = [...]byte{0x82, 0x00, 0x0A, 0xB1, 0x9C, 0x72, 0x00, 0x05, 0x00, 0x00}
)

// Expected response prefixes.
var (
	ackPattern     = [...]byte{0xA0, 0x00, 0x03}
	dataAckPattern = [...]byte{0xA0, 0x00, 0x08, 0x72, 0x00, 0x05}
)

// Frame layout.
const (
	// SetAddressFrameSize is the size of a SetAddress frame (10 bytes)
	SetAddressFrameSize = len(setAddressTemplate)

	// ReadBytesFrameSize is the size of a ReadBytes frame (5 bytes)
	ReadBytesFrameSize = len(readBytesTemplate)

	// WriteBytesFrameSize is the size of a WriteBytes frame (10 bytes)
	WriteBytesFrameSize = len(writeBytesTemplate)

	// PayloadOffset is where the two mutable bytes start in SetAddress and WriteBytes
	PayloadOffset = 8

	// DataOffset is where the word starts in a ReadBytes response
	DataOffset = 6

	// DataResponseSize is the minimum length of a valid ReadBytes response
	DataResponseSize = DataOffset + WordSize

	// WordSize is the EEPROM access unit in bytes
	WordSize = 2
)
