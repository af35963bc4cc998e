// Package frame implements the wire frame format spoken by the audio
// bootloader.
//
// Every frame carries one command and one page worth of payload, so the
// frame size is fixed per device: Size(pageSize) = pageSize + HeaderSize.
//
// # Frame Layout
//
//	offset 0      command byte
//	offset 1..2   page number (little-endian)
//	offset 3..4   payload length (little-endian)
//	offset 5..6   checksum (little-endian, CRC-16/CCITT-FALSE)
//	offset 7..    payload, exactly pageSize bytes
//
// # Builders
//
// Use the Build* functions to create frames for sending:
//
//	f, err := frame.BuildProgramPageFrame(64, 3, pageData)
//	f, err := frame.BuildRunApplicationFrame(64)
//	// ... etc
//
// Builders fill the checksum field over the command, page number, length
// and payload bytes. The loader on the device side never verifies it; it
// is filled so recorded signals match what real senders transmit.
//
// # Parsing
//
// Use Parse to validate a raw buffer received from a decoder:
//
//	f, err := frame.Parse(raw, 64)
//	if err != nil {
//	    return err
//	}
//	switch f.Command() {
//	case frame.CmdProgramPage:
//	    program(f.PageNumber(), f.Payload())
//	}
package frame
