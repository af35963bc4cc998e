package flasher

import "time"

// Phase names reported through Progress.
const (
	PhaseBuilding  = "building"
	PhaseEncoding  = "encoding"
	PhaseFlashing  = "flashing"
	PhaseVerifying = "verifying"
	PhaseComplete  = "complete"
)

// Progress contains information about a programming run. Passed to
// ProgressCallback as the run moves through its phases.
type Progress struct {
	// Phase is one of the Phase constants
	Phase string

	// CurrentFrame is the latest frame handled (1-based)
	CurrentFrame int

	// TotalFrames is the total number of frames in the session
	TotalFrames int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the payload byte count sent so far
	BytesWritten int

	// ElapsedTime is the time since the run started
	ElapsedTime time.Duration
}

// ProgressCallback is called as a programming run progresses.
// Implementations should return quickly.
//
// Example:
//
//	s := flasher.New(profile,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("[%s] %.1f%% - frame %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentFrame, p.TotalFrames)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface. Any framework with leveled
// key-value logging fits.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
