package boot

import "github.com/wonkystuff/audioboot/avr"

// Line is a sampled digital input.
type Line interface {
	// Level returns the current logic level
	Level() (bool, error)
}

// Clock is the single timer the loader owns. It is reset and read for
// every timing decision; there is no other time source.
type Clock interface {
	// Reset restarts the count from zero
	Reset()

	// Ticks returns the count since the last Reset
	Ticks() uint16
}

// Flash is the self-programming surface of the part. Words staged with
// FillWord live in a separate page buffer until WritePage commits them,
// so filling before erasing is legal.
type Flash interface {
	// ErasePage erases the page at the given byte address
	ErasePage(page avr.ByteAddr) error

	// FillWord stages one little-endian word in the page buffer
	FillWord(addr avr.ByteAddr, w uint16) error

	// WritePage commits the page buffer to the page at the given byte
	// address
	WritePage(page avr.ByteAddr) error

	// ReadWord reads a committed little-endian word
	ReadWord(addr avr.ByteAddr) uint16

	// Busy reports whether an erase or write is still in progress
	Busy() bool

	// ReenableRWW re-enables the read-while-write section after
	// programming
	ReenableRWW()
}

// Eeprom is byte-granular EEPROM write access.
type Eeprom interface {
	// Write stores one byte. Addresses beyond the end of the EEPROM
	// clamp to its last byte.
	Write(addr uint16, value byte) error

	// Busy reports whether a write is still in progress
	Busy() bool
}

// StatusLamp drives the indicator LED.
type StatusLamp interface {
	On()
	Off()
	Toggle()
}

// Interrupts gates the global interrupt flag around flash operations.
type Interrupts interface {
	// Suspend disables interrupts and returns a function that restores
	// the previous state
	Suspend() func()
}

// Hardware bundles the capabilities the loader runs against. Every
// field must be non-nil.
type Hardware struct {
	// Audio carries the coded bit stream
	Audio Line

	// BootCheck is the stay-resident request input
	BootCheck Line

	// Clock is the reused timing source
	Clock Clock

	// Flash programs the part's own flash
	Flash Flash

	// Eeprom writes the part's EEPROM
	Eeprom Eeprom

	// Lamp is the status indicator
	Lamp StatusLamp

	// Interrupts gates the interrupt flag
	Interrupts Interrupts
}
