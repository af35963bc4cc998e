package boot

import (
	"fmt"

	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/device"
)

// Engine performs page-granular flash programming through the Flash
// capability.
type Engine struct {
	flash   Flash
	eeprom  Eeprom
	irq     Interrupts
	profile device.Profile
}

// NewEngine creates a flash engine over the given hardware.
func NewEngine(hw Hardware, profile device.Profile) *Engine {
	if hw.Flash == nil {
		panic("flash capability cannot be nil")
	}
	if hw.Eeprom == nil {
		panic("eeprom capability cannot be nil")
	}
	if hw.Interrupts == nil {
		panic("interrupts capability cannot be nil")
	}
	return &Engine{
		flash:   hw.Flash,
		eeprom:  hw.Eeprom,
		irq:     hw.Interrupts,
		profile: profile,
	}
}

// ProgramPage erases and programs one full page. Data must be exactly
// one page.
//
// Programming the reset vector page swaps the application's jump out of
// flash word 0: the loader's own jump goes in, and the displaced target
// comes back so the caller can capture it. The substitution happens for
// any incoming word; intercepted is true only when the word decoded as
// a relative jump and the returned entry is meaningful.
func (e *Engine) ProgramPage(page avr.ByteAddr, data []byte) (avr.WordAddr, bool, error) {
	if len(data) != e.profile.PageSize {
		return 0, false, &PageSizeError{Got: len(data), Want: e.profile.PageSize}
	}
	if page%avr.ByteAddr(e.profile.PageSize) != 0 {
		return 0, false, &PageAlignError{Addr: uint32(page), PageSize: e.profile.PageSize}
	}

	resume := e.irq.Suspend()
	defer resume()

	if err := e.flash.ErasePage(page); err != nil {
		return 0, false, err
	}
	e.waitFlash()

	var entry avr.WordAddr
	intercepted := false
	for i := 0; i < len(data); i += 2 {
		w := uint16(data[i]) | uint16(data[i+1])<<8

		// Flash word 0 is the reset vector.
		if page == 0 && i == 0 {
			if avr.IsRJMP(w) {
				entry = avr.DecodeResetJump(w)
				intercepted = true
			}
			w = avr.EncodeResetJump(e.profile.BootloaderStart.Word())
		}

		if err := e.flash.FillWord(page+avr.ByteAddr(i), w); err != nil {
			return 0, false, err
		}
		e.waitFlash()
	}

	if err := e.flash.WritePage(page); err != nil {
		return 0, false, err
	}
	e.waitFlash()

	return entry, intercepted, nil
}

// MergeWrite writes data at an arbitrary address inside one page and
// preserves the rest of the page: existing words are read back into the
// page buffer around the new data. The buffer is filled before the
// erase; the buffer is separate storage on AVR cores, so it survives
// the erase.
func (e *Engine) MergeWrite(addr avr.ByteAddr, data []byte) error {
	if len(data) == 0 || len(data)%2 != 0 {
		return fmt.Errorf("merge data must be a positive even number of bytes, got %d", len(data))
	}

	pageSize := avr.ByteAddr(e.profile.PageSize)
	page := addr / pageSize * pageSize
	if addr+avr.ByteAddr(len(data)) > page+pageSize {
		return fmt.Errorf("merge of %d bytes at %#x crosses a page boundary", len(data), addr)
	}

	resume := e.irq.Suspend()
	defer resume()

	remaining := data
	for cur := page; cur < page+pageSize; cur += 2 {
		var w uint16
		if cur >= addr && len(remaining) > 0 {
			w = uint16(remaining[0]) | uint16(remaining[1])<<8
			remaining = remaining[2:]
		} else {
			w = e.flash.ReadWord(cur)
		}
		if err := e.flash.FillWord(cur, w); err != nil {
			return err
		}
	}

	e.waitEeprom()
	if err := e.flash.ErasePage(page); err != nil {
		return err
	}
	e.waitFlash()
	if err := e.flash.WritePage(page); err != nil {
		return err
	}
	e.waitFlash()
	e.flash.ReenableRWW()

	return nil
}

func (e *Engine) waitFlash() {
	for e.flash.Busy() {
	}
}

func (e *Engine) waitEeprom() {
	for e.eeprom.Busy() {
	}
}
