package frame

// Header field offsets. The header is followed by exactly one page of
// payload, so every field sits at a fixed position.
const (
	// PosCommand is the offset of the command byte
	PosCommand = 0

	// PosPageLow is the offset of the page number low byte
	PosPageLow = 1

	// PosPageHigh is the offset of the page number high byte
	PosPageHigh = 2

	// PosLengthLow is the offset of the payload length low byte
	PosLengthLow = 3

	// PosLengthHigh is the offset of the payload length high byte
	PosLengthHigh = 4

	// PosChecksumLow is the offset of the checksum low byte
	PosChecksumLow = 5

	// PosChecksumHigh is the offset of the checksum high byte
	PosChecksumHigh = 6

	// PayloadStart is the offset of the first payload byte
	PayloadStart = 7

	// HeaderSize is the total header size in bytes
	HeaderSize = 7
)

// Command identifies the operation requested by a frame.
type Command byte

// Command codes understood by the loader.
const (
	// CmdNone marks an idle frame; the loader takes no action on it
	CmdNone Command = 0

	// CmdTest is reserved for link checks; the loader ignores it
	CmdTest Command = 1

	// CmdProgramPage programs one flash page
	CmdProgramPage Command = 2

	// CmdRunApplication persists the captured entry point and starts
	// the application
	CmdRunApplication Command = 3

	// CmdWriteEEPROM writes payload bytes into EEPROM, then leaves the
	// loader if an entry point was ever persisted
	CmdWriteEEPROM Command = 4

	// CmdExitBootloader is accepted but not acted on by the loader
	CmdExitBootloader Command = 5
)

// String returns a human-readable command name.
func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdTest:
		return "test"
	case CmdProgramPage:
		return "program page"
	case CmdRunApplication:
		return "run application"
	case CmdWriteEEPROM:
		return "write eeprom"
	case CmdExitBootloader:
		return "exit bootloader"
	default:
		return "unknown"
	}
}

// Size returns the full frame size in bytes for a device page size.
func Size(pageSize int) int {
	return pageSize + HeaderSize
}
