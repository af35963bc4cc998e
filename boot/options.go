package boot

// BootPolicy selects how the loader decides between staying resident
// and starting the application.
type BootPolicy int

const (
	// PolicyHold stays resident while the boot-check line is held past
	// the hold threshold. This is the behavior of the shipped loader.
	PolicyHold BootPolicy = iota

	// PolicySignal stays resident once the audio line shows activity,
	// handing over to a persisted application after a timeout of slow
	// lamp blinks.
	PolicySignal
)

// Config holds the loader configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// Policy selects the boot decision
	Policy BootPolicy

	// HoldThreshold is the number of boot-check polls that counts as
	// "held" under PolicyHold
	HoldThreshold uint32

	// SignalTimeout is the number of slow blink periods PolicySignal
	// waits before handing over
	SignalTimeout int

	// WaitBlink is the countdown length of one slow blink period
	WaitBlink int

	// FailBlink is the countdown length of one fast blink period in
	// the terminal failure state
	FailBlink int
}

// defaultConfig returns the configuration matching the shipped loader.
func defaultConfig() Config {
	return Config{
		Policy:        PolicyHold,
		HoldThreshold: 3000000,
		SignalTimeout: 10,
		WaitBlink:     10000,
		FailBlink:     1000,
	}
}

// Option is a functional option for configuring the loader.
type Option func(*Config)

// WithLogger sets a logger for loader operations.
//
// Example:
//
//	b := boot.New(hw, profile, boot.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithBootPolicy selects the boot decision policy.
//
// Example:
//
//	b := boot.New(hw, profile, boot.WithBootPolicy(boot.PolicySignal))
func WithBootPolicy(policy BootPolicy) Option {
	return func(c *Config) {
		c.Policy = policy
	}
}

// WithHoldThreshold sets the number of polls the boot-check line must
// stay held to keep the loader resident. Mostly useful to shorten tests.
//
// Example:
//
//	b := boot.New(hw, profile, boot.WithHoldThreshold(100))
func WithHoldThreshold(polls uint32) Option {
	return func(c *Config) {
		if polls > 0 {
			c.HoldThreshold = polls
		}
	}
}

// WithSignalTimeout sets how many slow blink periods PolicySignal waits
// for line activity before handing over.
func WithSignalTimeout(periods int) Option {
	return func(c *Config) {
		if periods > 0 {
			c.SignalTimeout = periods
		}
	}
}

// WithBlinkPeriods overrides the slow and fast blink countdowns.
// Mostly useful to shorten tests.
func WithBlinkPeriods(wait, fail int) Option {
	return func(c *Config) {
		if wait > 0 {
			c.WaitBlink = wait
		}
		if fail > 0 {
			c.FailBlink = fail
		}
	}
}
