// Package device describes the flash and EEPROM geometry of supported
// parts.
//
// A Profile carries everything the loader and the host tools need to
// know about a target: page size, flash size, where the resident loader
// starts, and the EEPROM size. ATtiny85 is built in; other parts load
// from TOML files.
package device

import (
	"fmt"

	"github.com/wonkystuff/audioboot/avr"
)

// Profile is the memory geometry of one target device.
type Profile struct {
	// Name identifies the part, e.g. "attiny85"
	Name string

	// PageSize is the flash page size in bytes
	PageSize int

	// FlashSize is the total flash size in bytes
	FlashSize avr.ByteAddr

	// BootloaderStart is the byte address where the resident loader
	// begins; application flash ends here
	BootloaderStart avr.ByteAddr

	// EepromSize is the EEPROM size in bytes
	EepromSize int
}

// ATtiny85 returns the profile of the part the loader was written for:
// 8K flash in 64-byte pages, the loader resident at 0x1BC0, 512 bytes
// of EEPROM.
func ATtiny85() Profile {
	return Profile{
		Name:            "attiny85",
		PageSize:        64,
		FlashSize:       8192,
		BootloaderStart: 0x1BC0,
		EepromSize:      512,
	}
}

// PersistAddr returns the byte address of the flash word that holds the
// persisted application entry point, directly below the loader.
func (p Profile) PersistAddr() avr.ByteAddr {
	return p.BootloaderStart - 2
}

// AppFlashPages returns how many whole pages lie below the loader.
func (p Profile) AppFlashPages() int {
	return int(p.BootloaderStart) / p.PageSize
}

// Validate checks the profile for internal consistency.
func (p Profile) Validate() error {
	if p.PageSize <= 0 || p.PageSize%2 != 0 {
		return fmt.Errorf("page size must be positive and even, got %d", p.PageSize)
	}
	if p.FlashSize == 0 || p.FlashSize%avr.ByteAddr(p.PageSize) != 0 {
		return fmt.Errorf("flash size %d is not a multiple of the page size %d", p.FlashSize, p.PageSize)
	}
	if p.BootloaderStart == 0 || p.BootloaderStart >= p.FlashSize {
		return fmt.Errorf("bootloader start %#x outside flash of %d bytes", p.BootloaderStart, p.FlashSize)
	}
	if p.BootloaderStart%avr.ByteAddr(p.PageSize) != 0 {
		return fmt.Errorf("bootloader start %#x is not page aligned", p.BootloaderStart)
	}
	if p.EepromSize <= 0 {
		return fmt.Errorf("eeprom size must be positive, got %d", p.EepromSize)
	}
	return nil
}
