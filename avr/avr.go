// Package avr provides address arithmetic and opcode helpers for AVR
// flash as seen by a resident bootloader.
//
// # Addressing
//
// AVR flash is byte-addressed by the self-programming engine (page
// erase/write take byte addresses) but word-addressed by the program
// counter: jump targets and vectors count 16-bit words. Both spaces
// appear in bootloader code, so they get distinct types here and every
// conversion is spelled out.
//
// # Reset vector interception
//
// An application image carries an RJMP to its entry point at flash word
// 0. A resident bootloader must own that word so reset always lands in
// the loader; it rewrites word 0 with a jump to itself and remembers
// the displaced target. EncodeResetJump and DecodeResetJump implement
// the opcode arithmetic for that swap.
package avr

// ByteAddr is a flash address counted in bytes.
type ByteAddr uint32

// WordAddr is a flash address counted in 16-bit words.
type WordAddr uint32

// Word converts a byte address to the word address of the same location.
func (a ByteAddr) Word() WordAddr {
	return WordAddr(a / 2)
}

// Byte converts a word address to the byte address of the same location.
func (a WordAddr) Byte() ByteAddr {
	return ByteAddr(a * 2)
}

// RJMPMask selects the opcode bits of an RJMP instruction word.
const RJMPMask = 0xF000

// RJMPOpcode is the RJMP opcode with a zero displacement field.
const RJMPOpcode = 0xC000

// IsRJMP reports whether w is a relative jump instruction.
func IsRJMP(w uint16) bool {
	return w&RJMPMask == RJMPOpcode
}

// EncodeResetJump builds the RJMP instruction word that, placed at flash
// word 0, jumps to target. The displacement is relative to the word after
// the instruction, hence the minus one. Targets must lie within the
// 12-bit RJMP range of the reset vector.
func EncodeResetJump(target WordAddr) uint16 {
	return RJMPOpcode + uint16(target) - 1
}

// DecodeResetJump recovers the jump target from an RJMP instruction word
// read at flash word 0. It is the inverse of EncodeResetJump.
func DecodeResetJump(w uint16) WordAddr {
	return WordAddr(w - RJMPOpcode + 1)
}
