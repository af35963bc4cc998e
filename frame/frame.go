package frame

// Frame is a raw wire frame: a fixed header followed by one page of
// payload. Accessors read the header fields in place.
type Frame []byte

// Parse validates that raw has the exact frame size for the given page
// size and returns it as a Frame. The buffer is not copied.
func Parse(raw []byte, pageSize int) (Frame, error) {
	if len(raw) != Size(pageSize) {
		return nil, &SizeError{Got: len(raw), Want: Size(pageSize)}
	}
	return Frame(raw), nil
}

// Command returns the command byte.
func (f Frame) Command() Command {
	return Command(f[PosCommand])
}

// PageNumber returns the 16-bit page number (little-endian).
func (f Frame) PageNumber() uint16 {
	return uint16(f[PosPageLow]) | uint16(f[PosPageHigh])<<8
}

// Length returns the 16-bit payload length field (little-endian). The
// payload slice itself is always a full page; Length says how much of it
// the sender considers meaningful.
func (f Frame) Length() uint16 {
	return uint16(f[PosLengthLow]) | uint16(f[PosLengthHigh])<<8
}

// Checksum returns the 16-bit checksum field (little-endian).
func (f Frame) Checksum() uint16 {
	return uint16(f[PosChecksumLow]) | uint16(f[PosChecksumHigh])<<8
}

// Payload returns the page-sized payload section.
func (f Frame) Payload() []byte {
	return f[PayloadStart:]
}
