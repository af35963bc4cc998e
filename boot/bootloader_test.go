package boot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/device"
	"github.com/wonkystuff/audioboot/frame"
)

var errScriptDone = errors.New("script exhausted")

// scriptLine yields a fixed level sequence, then errors.
type scriptLine struct {
	levels []bool
	idx    int
}

func (l *scriptLine) Level() (bool, error) {
	if l.idx >= len(l.levels) {
		return false, errScriptDone
	}
	v := l.levels[l.idx]
	l.idx++
	return v, nil
}

// heldLine reads active for a fixed number of polls, then released.
type heldLine struct {
	polls int
}

func (l *heldLine) Level() (bool, error) {
	if l.polls > 0 {
		l.polls--
		return true, nil
	}
	return false, nil
}

// steadyLine always reads the same level.
type steadyLine struct {
	level bool
}

func (l *steadyLine) Level() (bool, error) {
	return l.level, nil
}

// fakeClock advances one tick per read.
type fakeClock struct {
	now   uint64
	epoch uint64
}

func (c *fakeClock) Reset() {
	c.epoch = c.now
}

func (c *fakeClock) Ticks() uint16 {
	c.now++
	return uint16(c.now - c.epoch)
}

// fakeLamp records transitions.
type fakeLamp struct {
	lit     bool
	ons     int
	offs    int
	toggles int
}

func (l *fakeLamp) On() {
	l.lit = true
	l.ons++
}

func (l *fakeLamp) Off() {
	l.lit = false
	l.offs++
}

func (l *fakeLamp) Toggle() {
	l.lit = !l.lit
	l.toggles++
}

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

func (m *mockLogger) hasMsg(msgs []string, want string) bool {
	for _, msg := range msgs {
		if msg == want {
			return true
		}
	}
	return false
}

type loaderParts struct {
	flash  *fakeFlash
	eeprom *fakeEeprom
	irq    *fakeIRQ
	clock  *fakeClock
	lamp   *fakeLamp
	log    *mockLogger
}

func newLoader(t *testing.T, audio, check Line, opts ...Option) (*Bootloader, *loaderParts) {
	t.Helper()
	profile := device.ATtiny85()
	parts := &loaderParts{
		flash:  newFakeFlash(profile),
		eeprom: &fakeEeprom{},
		irq:    &fakeIRQ{},
		clock:  &fakeClock{},
		lamp:   &fakeLamp{},
		log:    &mockLogger{},
	}
	hw := Hardware{
		Audio:      audio,
		BootCheck:  check,
		Clock:      parts.clock,
		Flash:      parts.flash,
		Eeprom:     parts.eeprom,
		Lamp:       parts.lamp,
		Interrupts: parts.irq,
	}
	opts = append(opts, WithLogger(parts.log))
	return New(hw, profile, opts...), parts
}

func storePersistWord(parts *loaderParts, w uint16) {
	addr := device.ATtiny85().PersistAddr()
	parts.flash.mem[addr] = byte(w)
	parts.flash.mem[addr+1] = byte(w >> 8)
}

func TestNewPanics(t *testing.T) {
	profile := device.ATtiny85()
	flash := newFakeFlash(profile)
	full := Hardware{
		Audio:      &steadyLine{},
		BootCheck:  &steadyLine{},
		Clock:      &fakeClock{},
		Flash:      flash,
		Eeprom:     &fakeEeprom{},
		Lamp:       &fakeLamp{},
		Interrupts: &fakeIRQ{},
	}

	tests := []struct {
		name   string
		mutate func(hw *Hardware)
	}{
		{"nil audio", func(hw *Hardware) { hw.Audio = nil }},
		{"nil boot check", func(hw *Hardware) { hw.BootCheck = nil }},
		{"nil clock", func(hw *Hardware) { hw.Clock = nil }},
		{"nil lamp", func(hw *Hardware) { hw.Lamp = nil }},
		{"nil flash", func(hw *Hardware) { hw.Flash = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			hw := full
			tt.mutate(&hw)
			New(hw, profile)
		})
	}

	t.Run("invalid profile", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		New(full, device.Profile{Name: "broken"})
	})
}

func TestHoldDecision(t *testing.T) {
	tests := []struct {
		name      string
		polls     int
		threshold uint32
		wantStay  bool
	}{
		{"never held", 0, 100, false},
		{"released early", 99, 100, false},
		{"held to the threshold", 100, 100, true},
		{"held past the threshold", 500, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, parts := newLoader(t, &steadyLine{}, &heldLine{polls: tt.polls},
				WithHoldThreshold(tt.threshold))

			stay, err := b.holdDecision(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stay != tt.wantStay {
				t.Errorf("stay = %v, want %v", stay, tt.wantStay)
			}
			if parts.lamp.lit {
				t.Error("lamp left on after the decision")
			}
			if tt.polls > 0 && parts.lamp.ons == 0 {
				t.Error("lamp never went on while the line was held")
			}
		})
	}

	t.Run("held forever breaks at the threshold", func(t *testing.T) {
		b, _ := newLoader(t, &steadyLine{}, &steadyLine{level: true},
			WithHoldThreshold(50))
		stay, err := b.holdDecision(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !stay {
			t.Error("a permanently held line must keep the loader resident")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		b, _ := newLoader(t, &steadyLine{}, &steadyLine{level: true})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := b.holdDecision(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestSignalDecisionStaysOnActivity(t *testing.T) {
	audio := &scriptLine{levels: []bool{false, true, false, true}}
	b, parts := newLoader(t, audio, &steadyLine{}, WithBootPolicy(PolicySignal))

	addr, ok, err := b.signalDecision(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || addr != 0 {
		t.Errorf("signalDecision() = %#x, %v, want stay", uint32(addr), ok)
	}
	if audio.idx != len(audio.levels) {
		t.Errorf("consumed %d levels, want %d", audio.idx, len(audio.levels))
	}
	if parts.lamp.toggles != 0 {
		t.Errorf("lamp blinked %d times before any timeout", parts.lamp.toggles)
	}
}

func TestSignalDecisionTimeoutHandsOff(t *testing.T) {
	b, parts := newLoader(t, &steadyLine{}, &steadyLine{},
		WithBootPolicy(PolicySignal),
		WithBlinkPeriods(2, 1000),
		WithSignalTimeout(2))
	storePersistWord(parts, 0x0222)

	addr, ok, err := b.signalDecision(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || addr != 0x0222 {
		t.Errorf("signalDecision() = %#x, %v, want stored entry", uint32(addr), ok)
	}
	if parts.lamp.toggles != 2 {
		t.Errorf("lamp toggles = %d, want one per blink period", parts.lamp.toggles)
	}
	if parts.lamp.lit {
		t.Error("lamp left on at handoff")
	}
}

func TestSignalDecisionTimeoutRestartsWhenNothingStored(t *testing.T) {
	// Quiet long enough for one full timeout cycle (2 periods of 2
	// sub-periods, 101 polls each), then a live sender appears.
	levels := make([]bool, 420, 423)
	levels = append(levels, true, false, true)
	b, parts := newLoader(t, &scriptLine{levels: levels}, &steadyLine{},
		WithBootPolicy(PolicySignal),
		WithBlinkPeriods(2, 1000),
		WithSignalTimeout(2))

	addr, ok, err := b.signalDecision(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || addr != 0 {
		t.Errorf("signalDecision() = %#x, %v, want stay", uint32(addr), ok)
	}
	if parts.lamp.offs == 0 {
		t.Error("timeout path never ran before the sender appeared")
	}
}

func TestRunHandsOffStoredEntry(t *testing.T) {
	b, parts := newLoader(t, &steadyLine{}, &heldLine{})
	storePersistWord(parts, 0x0100)

	addr, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != 0x0100 {
		t.Errorf("entry = %#x, want 0x0100", uint32(addr))
	}
	if !parts.log.hasMsg(parts.log.infoMsgs, "handing off to stored application") {
		t.Errorf("info log missing handoff message: %v", parts.log.infoMsgs)
	}
}

func TestRunFailsTransferOnBrokenSignal(t *testing.T) {
	// Nothing stored, boot check released: Run falls through to the
	// frame loop, where the dead audio line breaks the receive. The
	// fail blink runs until the context expires.
	b, parts := newLoader(t, &scriptLine{}, &heldLine{},
		WithBlinkPeriods(10000, 2))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.Run(ctx)
	var transferErr *TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("error = %v, want TransferError", err)
	}
	if !errors.Is(err, errScriptDone) {
		t.Errorf("cause = %v, want the receive error", transferErr.Cause)
	}
	if parts.lamp.toggles == 0 {
		t.Error("fail blink never toggled the lamp")
	}
	if !parts.log.hasMsg(parts.log.errorMsgs, "transfer failed") {
		t.Errorf("error log missing failure message: %v", parts.log.errorMsgs)
	}
}

func TestRunPropagatesContextError(t *testing.T) {
	b, _ := newLoader(t, &steadyLine{}, &steadyLine{level: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	var transferErr *TransferError
	if errors.As(err, &transferErr) {
		t.Error("a context error must not be wrapped as a transfer failure")
	}
}

func TestProgramPageDispatch(t *testing.T) {
	profile := device.ATtiny85()

	t.Run("page written and lamp toggled", func(t *testing.T) {
		b, parts := newLoader(t, &steadyLine{}, &steadyLine{})
		data := pagePattern(profile.PageSize, 0x30)
		f, err := frame.BuildProgramPageFrame(profile.PageSize, 5, data)
		if err != nil {
			t.Fatalf("building frame: %v", err)
		}

		if err := b.programPage(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		base := 5 * profile.PageSize
		for i := 0; i < profile.PageSize; i++ {
			if parts.flash.mem[base+i] != data[i] {
				t.Fatalf("flash[%#x] = %#02x, want %#02x", base+i, parts.flash.mem[base+i], data[i])
			}
		}
		if parts.lamp.toggles != 1 {
			t.Errorf("lamp toggles = %d, want 1", parts.lamp.toggles)
		}
		if b.Entry().State() != EntryUnset {
			t.Error("a page outside the vector must not capture an entry")
		}
	})

	t.Run("reset vector page captures the entry", func(t *testing.T) {
		b, _ := newLoader(t, &steadyLine{}, &steadyLine{})
		data := pagePattern(profile.PageSize, 0)
		w := avr.EncodeResetJump(0x77)
		data[0] = byte(w)
		data[1] = byte(w >> 8)
		f, err := frame.BuildProgramPageFrame(profile.PageSize, 0, data)
		if err != nil {
			t.Fatalf("building frame: %v", err)
		}

		if err := b.programPage(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr, ok := b.Entry().Addr(); !ok || addr != 0x77 {
			t.Errorf("captured entry = %#x, %v, want 0x77", uint32(addr), ok)
		}
	})

	t.Run("loader region dropped silently", func(t *testing.T) {
		b, parts := newLoader(t, &steadyLine{}, &steadyLine{})
		firstLoaderPage := uint16(profile.BootloaderStart) / uint16(profile.PageSize)
		f, err := frame.BuildProgramPageFrame(profile.PageSize, firstLoaderPage,
			pagePattern(profile.PageSize, 0x42))
		if err != nil {
			t.Fatalf("building frame: %v", err)
		}

		if err := b.programPage(f); err != nil {
			t.Fatalf("a loader-region page must be dropped, not failed: %v", err)
		}
		if got := parts.flash.mem[profile.BootloaderStart]; got != 0xFF {
			t.Errorf("loader region written: %#02x", got)
		}
		if parts.lamp.toggles != 0 {
			t.Error("a dropped page must not toggle the lamp")
		}
	})
}

func TestWriteEepromDispatch(t *testing.T) {
	profile := device.ATtiny85()

	t.Run("payload lands at the page offset", func(t *testing.T) {
		b, parts := newLoader(t, &steadyLine{}, &steadyLine{})
		data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		f, err := frame.BuildWriteEEPROMFrame(profile.PageSize, 2, data)
		if err != nil {
			t.Fatalf("building frame: %v", err)
		}

		if err := b.writeEeprom(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(parts.eeprom.writes) != len(data) {
			t.Fatalf("writes = %d, want %d", len(parts.eeprom.writes), len(data))
		}
		base := uint16(2 * profile.PageSize)
		for i, w := range parts.eeprom.writes {
			if w.addr != base+uint16(i) || w.value != data[i] {
				t.Fatalf("write %d = {%#x %#02x}, want {%#x %#02x}",
					i, w.addr, w.value, base+uint16(i), data[i])
			}
		}
	})

	t.Run("address saturates at the 16-bit limit", func(t *testing.T) {
		b, parts := newLoader(t, &steadyLine{}, &steadyLine{})
		f, err := frame.BuildWriteEEPROMFrame(profile.PageSize, 0xFFFF, []byte{0xAA, 0xBB})
		if err != nil {
			t.Fatalf("building frame: %v", err)
		}

		if err := b.writeEeprom(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, w := range parts.eeprom.writes {
			if w.addr != 0xFFFF {
				t.Errorf("write %d addr = %#x, want saturation at 0xFFFF", i, w.addr)
			}
		}
	})

	t.Run("length capped at one page", func(t *testing.T) {
		b, parts := newLoader(t, &steadyLine{}, &steadyLine{})
		f, err := frame.BuildWriteEEPROMFrame(profile.PageSize, 0,
			pagePattern(profile.PageSize, 1))
		if err != nil {
			t.Fatalf("building frame: %v", err)
		}
		f[frame.PosLengthLow] = 0xFF
		f[frame.PosLengthHigh] = 0x00

		if err := b.writeEeprom(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(parts.eeprom.writes) != profile.PageSize {
			t.Errorf("writes = %d, want cap at %d", len(parts.eeprom.writes), profile.PageSize)
		}
	})
}
