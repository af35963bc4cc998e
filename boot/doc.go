// Package boot implements the resident audio bootloader core.
//
// # Overview
//
// The loader receives a differential Manchester coded bit stream on a
// digital input, reassembles it into page-sized frames, and programs
// the application section of its own flash. It keeps reset ownership by
// rewriting the reset vector of every application it programs with a
// jump to itself, and parks the displaced application entry point in
// the flash word directly below its own first page.
//
// # Hardware Independence
//
// The core does not touch registers. All hardware access goes through
// small capability interfaces: Line for digital inputs, Clock for the
// one reused timer, Flash and Eeprom for self-programming, StatusLamp
// for the indicator, Interrupts for the global interrupt gate. A port
// supplies real implementations; the sim package supplies simulated
// ones, which is how the whole loader runs under go test.
//
// # Basic Usage
//
//	dev := sim.New(device.ATtiny85())
//	dev.LoadLevels(levels, 64)
//
//	b := boot.New(dev.Hardware(), device.ATtiny85())
//	entry, err := b.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	// entry is the application start address in flash words; a real
//	// port jumps there after Run returns.
//
// # Boot Decision
//
// On entry, Run decides whether to stay resident. The default policy
// watches the boot-check line: holding it past a threshold keeps the
// loader alive, releasing it early hands control to a previously
// persisted application. The alternative PolicySignal waits for
// activity on the audio line instead, giving up after a timeout.
//
// # Configuration Options
//
//	b := boot.New(hw, profile,
//	    boot.WithLogger(myLogger),
//	    boot.WithHoldThreshold(1000),
//	    boot.WithBootPolicy(boot.PolicySignal),
//	)
//
// # Logging
//
// Integrate with any logging framework:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	b := boot.New(hw, profile, boot.WithLogger(&StdLogger{}))
//
// A real port runs without a logger; the logging calls vanish behind
// nil checks.
//
// # Error Handling
//
// Run returns a context error when cancelled and capability errors when
// the hardware surface fails. A broken transfer does not return: as on
// the real part, the loader enters a terminal blink loop that only the
// context (standing in for the reset line) can leave.
package boot
