// Package sim is a virtual-time microcontroller for exercising the boot
// core without hardware.
//
// A single Device implements every capability in the boot.Hardware
// bundle. Time is a shared tick counter: each capability poll (an audio
// or boot-check level read, a clock read, a busyness check) advances it
// by exactly one tick. The loader's busy-wait loops therefore make
// progress, and its self-calibration measures the loaded signal's true
// bit period.
//
// The audio line plays a level stream loaded with LoadLevels, one entry
// per signal half-cell. When the stream runs out the line returns
// ErrSignalDone, which drives the loader's transfer-failure path.
package sim

import (
	"errors"
	"fmt"

	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/boot"
	"github.com/wonkystuff/audioboot/device"
)

// ErrSignalDone is returned by the audio line once the loaded level
// stream is exhausted.
var ErrSignalDone = errors.New("sim: audio signal exhausted")

// MinTicksPerHalfCell is the shortest half-cell the receiver can track
// given the fixed one-tick cost of each poll.
const MinTicksPerHalfCell = 10

// DefaultTicksPerHalfCell is a comfortable signal speed for tests and
// the console.
const DefaultTicksPerHalfCell = 25

// Busy-countdown lengths charged per flash or EEPROM operation, in
// polls.
const (
	flashBusyPolls  = 2
	eepromBusyPolls = 2
)

// LampEvent is one recorded status lamp transition.
type LampEvent struct {
	// At is the virtual time of the transition
	At uint64

	// Lit is the lamp state after the transition
	Lit bool
}

// Device is the simulated part. It is not safe for concurrent use; the
// loader and the test share one goroutine.
type Device struct {
	profile device.Profile

	now uint64

	// audio signal
	levels     []bool
	halfTicks  uint64
	started    bool
	signalFrom uint64

	// boot-check line
	bootHeld     bool
	bootHeldLeft uint64

	// clock
	epoch uint64

	// flash
	flash      []byte
	pageBuffer []uint16
	flashLeft  int
	rww        int

	// eeprom
	eeprom     []byte
	eepromLeft int

	// lamp
	lampLit bool
	lampLog []LampEvent

	// interrupts
	irqDepth    int
	irqMaxDepth int
	irqSuspends int
}

// New creates a device with erased flash and EEPROM. It panics on an
// invalid profile, mirroring the loader's own constructor.
func New(profile device.Profile) *Device {
	if err := profile.Validate(); err != nil {
		panic("invalid device profile: " + err.Error())
	}

	d := &Device{
		profile:    profile,
		flash:      make([]byte, profile.FlashSize),
		pageBuffer: make([]uint16, profile.PageSize/2),
		eeprom:     make([]byte, profile.EepromSize),
	}
	for i := range d.flash {
		d.flash[i] = 0xFF
	}
	for i := range d.eeprom {
		d.eeprom[i] = 0xFF
	}
	d.clearPageBuffer()

	// The loader's own image pins the word below it to zero, so a part
	// fresh from the programmer stays resident instead of jumping into
	// erased flash.
	d.flash[profile.PersistAddr()] = 0
	d.flash[profile.PersistAddr()+1] = 0

	return d
}

// Hardware returns the capability bundle backed by this device.
func (d *Device) Hardware() boot.Hardware {
	return boot.Hardware{
		Audio:      audioLine{d},
		BootCheck:  bootLine{d},
		Clock:      clock{d},
		Flash:      flashPort{d},
		Eeprom:     eepromPort{d},
		Lamp:       lamp{d},
		Interrupts: irqPort{d},
	}
}

// Profile returns the simulated part's geometry.
func (d *Device) Profile() device.Profile {
	return d.profile
}

// Now returns the current virtual time in ticks.
func (d *Device) Now() uint64 {
	return d.now
}

// tick advances virtual time. Every observable poll costs one tick.
func (d *Device) tick() {
	d.now++
}

// LoadLevels arms the audio line with a level stream, one entry per
// half-cell. The stream starts playing at the first level read, so time
// spent in the boot decision does not eat into it. A previously loaded
// stream is replaced.
func (d *Device) LoadLevels(levels []bool, ticksPerHalfCell int) error {
	if ticksPerHalfCell < MinTicksPerHalfCell {
		return fmt.Errorf("sim: %d ticks per half-cell is below the minimum %d",
			ticksPerHalfCell, MinTicksPerHalfCell)
	}
	d.levels = append([]bool(nil), levels...)
	d.halfTicks = uint64(ticksPerHalfCell)
	d.started = false
	d.signalFrom = 0
	return nil
}

// SignalLoaded reports whether unconsumed signal remains on the line.
func (d *Device) SignalLoaded() bool {
	if d.levels == nil {
		return false
	}
	if !d.started {
		return true
	}
	return (d.now-d.signalFrom)/d.halfTicks < uint64(len(d.levels))
}

// HoldBoot asserts the boot-check line until ReleaseBoot.
func (d *Device) HoldBoot() {
	d.bootHeld = true
	d.bootHeldLeft = 0
}

// HoldBootFor asserts the boot-check line for the next polls reads,
// then releases it.
func (d *Device) HoldBootFor(polls uint64) {
	d.bootHeld = false
	d.bootHeldLeft = polls
}

// ReleaseBoot deasserts the boot-check line.
func (d *Device) ReleaseBoot() {
	d.bootHeld = false
	d.bootHeldLeft = 0
}

// FlashBytes returns a copy of n committed flash bytes from addr.
func (d *Device) FlashBytes(addr avr.ByteAddr, n int) []byte {
	out := make([]byte, n)
	copy(out, d.flash[addr:])
	return out
}

// FlashWord returns the committed little-endian word at addr.
func (d *Device) FlashWord(addr avr.ByteAddr) uint16 {
	return uint16(d.flash[addr]) | uint16(d.flash[addr+1])<<8
}

// EepromBytes returns a copy of n EEPROM bytes from addr.
func (d *Device) EepromBytes(addr, n int) []byte {
	out := make([]byte, n)
	copy(out, d.eeprom[addr:])
	return out
}

// LampLit reports the current lamp state.
func (d *Device) LampLit() bool {
	return d.lampLit
}

// LampEvents returns the recorded lamp transitions.
func (d *Device) LampEvents() []LampEvent {
	return append([]LampEvent(nil), d.lampLog...)
}

// InterruptDepth returns the current interrupt suspension depth. A
// well-behaved loader leaves it at zero.
func (d *Device) InterruptDepth() int {
	return d.irqDepth
}

// MaxInterruptDepth returns the deepest suspension seen.
func (d *Device) MaxInterruptDepth() int {
	return d.irqMaxDepth
}

// InterruptSuspends returns how many times interrupts were suspended.
func (d *Device) InterruptSuspends() int {
	return d.irqSuspends
}

// RWWEnables returns how many times the read-while-write section was
// re-enabled.
func (d *Device) RWWEnables() int {
	return d.rww
}

// Reset power-cycles the part. Flash and EEPROM contents survive; the
// signal, the clock, the page buffer, the lamp and the interrupt state
// do not. Virtual time keeps running.
func (d *Device) Reset() {
	d.levels = nil
	d.halfTicks = 0
	d.started = false
	d.signalFrom = 0
	d.bootHeld = false
	d.bootHeldLeft = 0
	d.epoch = d.now
	d.clearPageBuffer()
	d.flashLeft = 0
	d.eepromLeft = 0
	if d.lampLit {
		d.lampLit = false
		d.lampLog = append(d.lampLog, LampEvent{At: d.now, Lit: false})
	}
	d.irqDepth = 0
}

func (d *Device) clearPageBuffer() {
	for i := range d.pageBuffer {
		d.pageBuffer[i] = 0xFFFF
	}
}

func (d *Device) audioLevel() (bool, error) {
	d.tick()
	if d.levels == nil {
		return false, ErrSignalDone
	}
	if !d.started {
		d.started = true
		d.signalFrom = d.now
	}
	idx := (d.now - d.signalFrom) / d.halfTicks
	if idx >= uint64(len(d.levels)) {
		return false, ErrSignalDone
	}
	return d.levels[idx], nil
}

func (d *Device) bootLevel() (bool, error) {
	d.tick()
	if d.bootHeld {
		return true, nil
	}
	if d.bootHeldLeft > 0 {
		d.bootHeldLeft--
		return true, nil
	}
	return false, nil
}

func (d *Device) clockReset() {
	d.epoch = d.now
}

func (d *Device) clockTicks() uint16 {
	d.tick()
	return uint16(d.now - d.epoch)
}

func (d *Device) checkPage(page avr.ByteAddr) error {
	pageSize := avr.ByteAddr(d.profile.PageSize)
	if page%pageSize != 0 {
		return fmt.Errorf("sim: address %#x is not a page start", uint32(page))
	}
	if page+pageSize > d.profile.FlashSize {
		return fmt.Errorf("sim: page %#x is outside flash", uint32(page))
	}
	return nil
}

func (d *Device) flashErase(page avr.ByteAddr) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	for i := 0; i < d.profile.PageSize; i++ {
		d.flash[int(page)+i] = 0xFF
	}
	d.flashLeft = flashBusyPolls
	return nil
}

func (d *Device) flashFill(addr avr.ByteAddr, w uint16) error {
	if addr%2 != 0 {
		return fmt.Errorf("sim: fill address %#x is odd", uint32(addr))
	}
	if addr+2 > d.profile.FlashSize {
		return fmt.Errorf("sim: fill address %#x is outside flash", uint32(addr))
	}
	d.pageBuffer[int(addr%avr.ByteAddr(d.profile.PageSize))/2] = w
	return nil
}

func (d *Device) flashWrite(page avr.ByteAddr) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	for i, w := range d.pageBuffer {
		d.flash[int(page)+2*i] = byte(w)
		d.flash[int(page)+2*i+1] = byte(w >> 8)
	}
	// the hardware buffer erases itself after a page write
	d.clearPageBuffer()
	d.flashLeft = flashBusyPolls
	return nil
}

func (d *Device) flashReadWord(addr avr.ByteAddr) uint16 {
	return d.FlashWord(addr)
}

func (d *Device) flashBusy() bool {
	d.tick()
	if d.flashLeft > 0 {
		d.flashLeft--
		return true
	}
	return false
}

func (d *Device) eepromWrite(addr uint16, value byte) error {
	if int(addr) >= len(d.eeprom) {
		addr = uint16(len(d.eeprom) - 1)
	}
	d.eeprom[addr] = value
	d.eepromLeft = eepromBusyPolls
	return nil
}

func (d *Device) eepromBusy() bool {
	d.tick()
	if d.eepromLeft > 0 {
		d.eepromLeft--
		return true
	}
	return false
}

func (d *Device) lampSet(lit bool) {
	if d.lampLit == lit {
		return
	}
	d.lampLit = lit
	d.lampLog = append(d.lampLog, LampEvent{At: d.now, Lit: lit})
}

func (d *Device) irqSuspend() func() {
	d.irqDepth++
	d.irqSuspends++
	if d.irqDepth > d.irqMaxDepth {
		d.irqMaxDepth = d.irqDepth
	}
	return func() {
		d.irqDepth--
	}
}

type audioLine struct{ d *Device }

func (l audioLine) Level() (bool, error) { return l.d.audioLevel() }

type bootLine struct{ d *Device }

func (l bootLine) Level() (bool, error) { return l.d.bootLevel() }

type clock struct{ d *Device }

func (c clock) Reset()        { c.d.clockReset() }
func (c clock) Ticks() uint16 { return c.d.clockTicks() }

type flashPort struct{ d *Device }

func (f flashPort) ErasePage(page avr.ByteAddr) error          { return f.d.flashErase(page) }
func (f flashPort) FillWord(addr avr.ByteAddr, w uint16) error { return f.d.flashFill(addr, w) }
func (f flashPort) WritePage(page avr.ByteAddr) error          { return f.d.flashWrite(page) }
func (f flashPort) ReadWord(addr avr.ByteAddr) uint16          { return f.d.flashReadWord(addr) }
func (f flashPort) Busy() bool                                 { return f.d.flashBusy() }
func (f flashPort) ReenableRWW()                               { f.d.rww++ }

type eepromPort struct{ d *Device }

func (e eepromPort) Write(addr uint16, value byte) error { return e.d.eepromWrite(addr, value) }
func (e eepromPort) Busy() bool                          { return e.d.eepromBusy() }

type lamp struct{ d *Device }

func (l lamp) On()     { l.d.lampSet(true) }
func (l lamp) Off()    { l.d.lampSet(false) }
func (l lamp) Toggle() { l.d.lampSet(!l.d.lampLit) }

type irqPort struct{ d *Device }

func (p irqPort) Suspend() func() { return p.d.irqSuspend() }
