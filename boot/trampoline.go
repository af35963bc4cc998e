package boot

import (
	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/device"
)

// EntryState tags the lifecycle of the application entry pointer.
type EntryState int

const (
	// EntryUnset means no application entry has been seen since reset
	EntryUnset EntryState = iota

	// EntryTransient means an entry was captured from a programmed
	// reset vector; it lives in RAM and dies with the power
	EntryTransient

	// EntryPersisted means the entry has been written to the flash
	// word directly below the loader
	EntryPersisted
)

// String returns a human-readable state name.
func (s EntryState) String() string {
	switch s {
	case EntryUnset:
		return "unset"
	case EntryTransient:
		return "transient"
	case EntryPersisted:
		return "persisted"
	default:
		return "invalid"
	}
}

// EntryPointer is the application entry address together with its
// lifecycle state.
type EntryPointer struct {
	state EntryState
	addr  avr.WordAddr
}

// State returns the lifecycle tag.
func (p EntryPointer) State() EntryState {
	return p.state
}

// Addr returns the entry word address. ok is false while the pointer is
// unset.
func (p EntryPointer) Addr() (avr.WordAddr, bool) {
	return p.addr, p.state != EntryUnset
}

// Trampoline owns the application entry pointer in both of its forms:
// the transient capture taken while programming the reset vector page,
// and the word persisted in flash directly below the loader.
type Trampoline struct {
	engine  *Engine
	flash   Flash
	profile device.Profile
	entry   EntryPointer
}

// NewTrampoline creates a trampoline using the engine for persisting
// and the flash capability for reading back.
func NewTrampoline(engine *Engine, flash Flash, profile device.Profile) *Trampoline {
	if engine == nil {
		panic("engine cannot be nil")
	}
	if flash == nil {
		panic("flash capability cannot be nil")
	}
	return &Trampoline{engine: engine, flash: flash, profile: profile}
}

// Entry returns the current entry pointer.
func (t *Trampoline) Entry() EntryPointer {
	return t.entry
}

// CaptureTransient records the entry address displaced from the reset
// vector. The capture lives until power-off unless persisted.
func (t *Trampoline) CaptureTransient(addr avr.WordAddr) {
	t.entry = EntryPointer{state: EntryTransient, addr: addr}
}

// ExitWithPersist merge-writes the captured entry address into the
// persist word below the loader and returns it as the handoff target.
// With nothing captured there is nothing to persist or run: ok is false
// and flash stays untouched.
func (t *Trampoline) ExitWithPersist() (avr.WordAddr, bool, error) {
	addr, ok := t.entry.Addr()
	if !ok {
		return 0, false, nil
	}

	w := uint16(addr)
	if err := t.engine.MergeWrite(t.profile.PersistAddr(), []byte{byte(w), byte(w >> 8)}); err != nil {
		return 0, false, err
	}

	t.entry = EntryPointer{state: EntryPersisted, addr: addr}
	return addr, true, nil
}

// ExitWithoutPersist reads the persisted entry word. A zero word means
// nothing was ever persisted: ok is false and the loader stays
// resident. Any other value, the erased-flash word included, is handed
// off exactly as stored.
func (t *Trampoline) ExitWithoutPersist() (avr.WordAddr, bool) {
	w := t.flash.ReadWord(t.profile.PersistAddr())
	if w == 0 {
		return 0, false
	}
	return avr.WordAddr(w), true
}
