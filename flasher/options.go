package flasher

import (
	"github.com/wonkystuff/audioboot/audio"
	"github.com/wonkystuff/audioboot/boot"
	"github.com/wonkystuff/audioboot/sim"
)

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during programming runs (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// EncoderOptions configure the audio encoder
	EncoderOptions []audio.EncoderOption

	// WAVOptions configure WAV rendering
	WAVOptions []audio.WAVOption

	// TicksPerHalfCell is the signal speed used for simulated runs
	TicksPerHalfCell int

	// BootOptions are passed to the simulated loader
	BootOptions []boot.Option
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		TicksPerHalfCell: sim.DefaultTicksPerHalfCell,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithProgressCallback sets a callback to track programming progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session operations. The logger is also
// handed to the simulated loader during Flash runs.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithEncoderOptions sets options for the audio encoder, for example a
// longer training run.
//
// Example:
//
//	s := flasher.New(profile, flasher.WithEncoderOptions(audio.WithLeadIn(48)))
func WithEncoderOptions(opts ...audio.EncoderOption) Option {
	return func(c *Config) {
		c.EncoderOptions = append(c.EncoderOptions, opts...)
	}
}

// WithWAVOptions sets options for WAV rendering, for example a custom
// sample rate.
func WithWAVOptions(opts ...audio.WAVOption) Option {
	return func(c *Config) {
		c.WAVOptions = append(c.WAVOptions, opts...)
	}
}

// WithTicksPerHalfCell sets the signal speed for simulated runs.
func WithTicksPerHalfCell(ticks int) Option {
	return func(c *Config) {
		if ticks >= sim.MinTicksPerHalfCell {
			c.TicksPerHalfCell = ticks
		}
	}
}

// WithBootOptions sets options for the simulated loader, for example a
// shorter boot-check hold threshold to speed tests up.
func WithBootOptions(opts ...boot.Option) Option {
	return func(c *Config) {
		c.BootOptions = append(c.BootOptions, opts...)
	}
}
