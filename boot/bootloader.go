package boot

import (
	"context"

	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/device"
	"github.com/wonkystuff/audioboot/frame"
)

// blinkTick is the tick count that closes one blink sub-period, in the
// slow wait blink and the fast fail blink alike. At the reference clock
// this is a 20kHz cadence.
const blinkTick = 100

// Bootloader drives a Hardware through the resident loader protocol:
// the boot decision, the frame loop, flash and EEPROM programming, and
// the final handoff to the application.
type Bootloader struct {
	hw      Hardware
	profile device.Profile
	config  Config
	engine  *Engine
	tramp   *Trampoline
}

// New creates a bootloader on the given hardware. It panics when a
// required capability is missing or the profile geometry is invalid, so
// that a miswired port fails at startup instead of mid-transfer.
func New(hw Hardware, profile device.Profile, opts ...Option) *Bootloader {
	if hw.Audio == nil {
		panic("audio line cannot be nil")
	}
	if hw.BootCheck == nil {
		panic("boot-check line cannot be nil")
	}
	if hw.Clock == nil {
		panic("clock cannot be nil")
	}
	if hw.Lamp == nil {
		panic("status lamp cannot be nil")
	}
	if err := profile.Validate(); err != nil {
		panic("invalid device profile: " + err.Error())
	}

	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	engine := NewEngine(hw, profile)

	return &Bootloader{
		hw:      hw,
		profile: profile,
		config:  config,
		engine:  engine,
		tramp:   NewTrampoline(engine, hw.Flash, profile),
	}
}

// Entry exposes the trampoline's view of the application entry pointer,
// mainly for inspection tools.
func (b *Bootloader) Entry() EntryPointer {
	return b.tramp.Entry()
}

// Run executes the loader until it hands off to an application or the
// context ends. The returned address is the application entry in word
// addressing; the caller performs the actual jump.
//
// The boot decision comes first. Under PolicyHold a released boot-check
// line means a normal boot: the stored entry is handed off when there
// is one, and with nothing stored the loader falls through to the frame
// loop. Under PolicySignal the loader watches the audio line for
// activity and hands off on timeout instead.
func (b *Bootloader) Run(ctx context.Context) (avr.WordAddr, error) {
	switch b.config.Policy {
	case PolicySignal:
		addr, ok, err := b.signalDecision(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			b.logInfo("handing off to stored application", "entry", addr)
			return addr, nil
		}

	default:
		stay, err := b.holdDecision(ctx)
		if err != nil {
			return 0, err
		}
		if !stay {
			if addr, ok := b.tramp.ExitWithoutPersist(); ok {
				b.logInfo("handing off to stored application", "entry", addr)
				return addr, nil
			}
			b.logDebug("nothing stored, staying resident")
		}
	}

	b.logInfo("waiting for transfer")
	return b.serve(ctx)
}

// holdDecision samples the boot-check line and stays resident only when
// it is held active for the full threshold of polls. The lamp stays on
// while the line is held.
func (b *Bootloader) holdDecision(ctx context.Context) (bool, error) {
	var presses uint32
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		held, err := b.hw.BootCheck.Level()
		if err != nil {
			return false, err
		}
		if !held {
			break
		}
		b.hw.Lamp.On()
		presses++
		if presses > b.config.HoldThreshold {
			break
		}
	}
	b.hw.Lamp.Off()

	return presses >= b.config.HoldThreshold, nil
}

// signalDecision watches the audio line. Three level transitions mean a
// sender is live, so the loader stays resident. Quiet line: the lamp
// blinks slowly and on timeout the stored entry is handed off; with
// nothing stored the wait starts over.
func (b *Bootloader) signalDecision(ctx context.Context) (avr.WordAddr, bool, error) {
	p, err := b.hw.Audio.Level()
	if err != nil {
		return 0, false, err
	}

	countdown := b.config.WaitBlink
	timeout := b.config.SignalTimeout
	transitions := 3

	b.hw.Clock.Reset()
	for transitions > 0 {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}

		if b.hw.Clock.Ticks() > blinkTick {
			b.hw.Clock.Reset()
			countdown--
			if countdown == 0 {
				b.hw.Lamp.Toggle()
				countdown = b.config.WaitBlink
				timeout--
				if timeout == 0 {
					b.hw.Lamp.Off()
					if addr, ok := b.tramp.ExitWithoutPersist(); ok {
						return addr, true, nil
					}
					timeout = b.config.SignalTimeout
				}
			}
		}

		lv, err := b.hw.Audio.Level()
		if err != nil {
			return 0, false, err
		}
		if lv != p {
			p = lv
			transitions--
		}
	}

	return 0, false, nil
}

// serve is the frame loop. It leaves only through a run command with a
// captured entry, through an EEPROM write when an entry is stored, or
// through the context.
func (b *Bootloader) serve(ctx context.Context) (avr.WordAddr, error) {
	for {
		f, err := b.receiveFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return 0, err
			}
			return 0, b.failLoop(ctx, err)
		}

		switch f.Command() {
		case frame.CmdProgramPage:
			if err := b.programPage(f); err != nil {
				return 0, err
			}

		case frame.CmdRunApplication:
			addr, ok, err := b.tramp.ExitWithPersist()
			if err != nil {
				return 0, err
			}
			if ok {
				b.logInfo("handing off to application", "entry", addr)
				return addr, nil
			}
			b.logDebug("run command before any program page, ignoring")

		case frame.CmdWriteEEPROM:
			if err := b.writeEeprom(f); err != nil {
				return 0, err
			}
			b.hw.Lamp.Off()
			if addr, ok := b.tramp.ExitWithoutPersist(); ok {
				b.logInfo("handing off to stored application", "entry", addr)
				return addr, nil
			}

		default:
			// test, exit and unknown commands keep the loader resident
		}
	}
}

// programPage writes one received page through the engine. Pages that
// would land in the loader region are dropped without complaint so a
// stray image cannot brick the device.
func (b *Bootloader) programPage(f frame.Frame) error {
	addr := avr.ByteAddr(f.PageNumber()) * avr.ByteAddr(b.profile.PageSize)
	if addr >= b.profile.BootloaderStart {
		b.logDebug("page inside loader region, dropped", "page", f.PageNumber())
		return nil
	}

	captured, intercepted, err := b.engine.ProgramPage(addr, f.Payload())
	if err != nil {
		return err
	}
	if intercepted {
		b.tramp.CaptureTransient(captured)
		b.logDebug("reset vector redirected", "entry", captured)
	}
	b.hw.Lamp.Toggle()
	b.logDebug("page written", "page", f.PageNumber())

	return nil
}

// writeEeprom stores the frame payload byte by byte. Addresses past the
// 16-bit range saturate; the capability clamps to its own size.
func (b *Bootloader) writeEeprom(f frame.Frame) error {
	length := int(f.Length())
	if length > b.profile.PageSize {
		length = b.profile.PageSize
	}

	payload := f.Payload()
	base := uint32(f.PageNumber()) * uint32(b.profile.PageSize)
	for i := 0; i < length; i++ {
		addr := base + uint32(i)
		if addr > 0xFFFF {
			addr = 0xFFFF
		}
		for b.hw.Eeprom.Busy() {
		}
		if err := b.hw.Eeprom.Write(uint16(addr), payload[i]); err != nil {
			return err
		}
	}
	b.logDebug("eeprom written", "page", f.PageNumber(), "length", length)

	return nil
}

// failLoop signals a broken transfer with a fast blink. On hardware the
// only way out is a reset; here the context plays that role and the
// receive error rides out in the returned TransferError.
func (b *Bootloader) failLoop(ctx context.Context, cause error) error {
	b.logError("transfer failed", "error", cause)

	countdown := b.config.FailBlink
	b.hw.Clock.Reset()
	for {
		if ctx.Err() != nil {
			return &TransferError{Cause: cause}
		}
		if b.hw.Clock.Ticks() > blinkTick {
			b.hw.Clock.Reset()
			countdown--
			if countdown == 0 {
				b.hw.Lamp.Toggle()
				countdown = b.config.FailBlink
			}
		}
	}
}

func (b *Bootloader) logDebug(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bootloader) logInfo(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Info(msg, keysAndValues...)
	}
}

func (b *Bootloader) logError(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Error(msg, keysAndValues...)
	}
}
