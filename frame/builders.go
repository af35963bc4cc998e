package frame

import "fmt"

// BuildProgramPageFrame constructs a frame that programs one flash page.
// The payload is padded to the page size with 0xFF; data longer than one
// page is an error.
//
// Frame structure:
//
//	[CMD][PAGE_L][PAGE_H][LEN_L][LEN_H][CRC_L][CRC_H][PAYLOAD(pageSize)]
func BuildProgramPageFrame(pageSize int, pageNumber uint16, data []byte) (Frame, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if len(data) > pageSize {
		return nil, &PayloadSizeError{Got: len(data), Max: pageSize}
	}

	f := newFrame(pageSize, CmdProgramPage, pageNumber, uint16(len(data)))
	pad(f.Payload())
	copy(f.Payload(), data)
	fillChecksum(f)

	return f, nil
}

// BuildRunApplicationFrame constructs a frame that tells the loader to
// persist the captured entry point and start the application. The
// payload carries no data.
func BuildRunApplicationFrame(pageSize int) (Frame, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	f := newFrame(pageSize, CmdRunApplication, 0, 0)
	pad(f.Payload())
	fillChecksum(f)

	return f, nil
}

// BuildWriteEEPROMFrame constructs a frame that writes data into EEPROM
// at page pageNumber. Data longer than one page is an error; the loader
// caps the length field at the page size anyway.
func BuildWriteEEPROMFrame(pageSize int, pageNumber uint16, data []byte) (Frame, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if len(data) > pageSize {
		return nil, &PayloadSizeError{Got: len(data), Max: pageSize}
	}

	f := newFrame(pageSize, CmdWriteEEPROM, pageNumber, uint16(len(data)))
	pad(f.Payload())
	copy(f.Payload(), data)
	fillChecksum(f)

	return f, nil
}

// BuildTestFrame constructs a link-check frame. The loader receives and
// discards it.
func BuildTestFrame(pageSize int) (Frame, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	f := newFrame(pageSize, CmdTest, 0, 0)
	pad(f.Payload())
	fillChecksum(f)

	return f, nil
}

// BuildExitFrame constructs an exit frame. Present for completeness; the
// loader treats it like CmdTest.
func BuildExitFrame(pageSize int) (Frame, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	f := newFrame(pageSize, CmdExitBootloader, 0, 0)
	pad(f.Payload())
	fillChecksum(f)

	return f, nil
}

// newFrame allocates a frame and writes the header fields except the
// checksum.
func newFrame(pageSize int, cmd Command, pageNumber, length uint16) Frame {
	f := make(Frame, Size(pageSize))
	f[PosCommand] = byte(cmd)
	f[PosPageLow] = byte(pageNumber)
	f[PosPageHigh] = byte(pageNumber >> 8)
	f[PosLengthLow] = byte(length)
	f[PosLengthHigh] = byte(length >> 8)
	return f
}

// pad fills a payload with the erased-flash value.
func pad(p []byte) {
	for i := range p {
		p[i] = 0xFF
	}
}
