package flasher

import (
	"fmt"

	"github.com/wonkystuff/audioboot/avr"
)

// RegionError indicates that the image contains data inside the flash
// region the loader occupies. The loader would silently drop such
// pages, so the host refuses to build them.
type RegionError struct {
	Page            int
	FirstLoaderPage int
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("page %d overlaps the loader region: pages %d and up are protected",
		e.Page, e.FirstLoaderPage)
}

// VectorError indicates that the image's reset vector is not a relative
// jump. Without one the loader cannot learn the application entry and
// the part would never leave the loader.
type VectorError struct {
	Word uint16
}

func (e *VectorError) Error() string {
	return fmt.Sprintf("image word 0 is %#04x, not a relative jump", e.Word)
}

// RangeError indicates that an EEPROM write would run past the end of
// the EEPROM.
type RangeError struct {
	End  int
	Size int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("eeprom write ends at %d, past the %d byte eeprom", e.End, e.Size)
}

// VerifyError indicates that a byte read back from flash after a
// programming run does not match the image.
type VerifyError struct {
	Page     int
	Offset   int
	Expected byte
	Actual   byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify failed at page %d offset %d: expected 0x%02X, got 0x%02X",
		e.Page, e.Offset, e.Expected, e.Actual)
}

// EntryMismatchError indicates that the loader handed off to a
// different entry than the image's reset vector names.
type EntryMismatchError struct {
	Expected avr.WordAddr
	Actual   avr.WordAddr
}

func (e *EntryMismatchError) Error() string {
	return fmt.Sprintf("loader handed off to word %#x, image entry is %#x",
		uint32(e.Actual), uint32(e.Expected))
}
