package flasher

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/wonkystuff/audioboot/audio"
	"github.com/wonkystuff/audioboot/avr"
	"github.com/wonkystuff/audioboot/boot"
	"github.com/wonkystuff/audioboot/device"
	"github.com/wonkystuff/audioboot/firmware"
	"github.com/wonkystuff/audioboot/frame"
	"github.com/wonkystuff/audioboot/sim"
)

// Session builds and runs audio programming sessions for one device
// profile.
type Session struct {
	profile device.Profile
	config  Config
}

// New creates a session for the given device profile. It panics on an
// invalid profile.
//
// Example:
//
//	s := flasher.New(device.ATtiny85(),
//	    flasher.WithProgressCallback(progressFunc),
//	)
func New(profile device.Profile, opts ...Option) *Session {
	if err := profile.Validate(); err != nil {
		panic("invalid device profile: " + err.Error())
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		profile: profile,
		config:  cfg,
	}
}

// BuildProgram turns a firmware image into the frame sequence that
// programs it: one frame per touched page, then the run command.
//
// The image must fit below the loader region and its reset vector must
// be a relative jump, otherwise the loader could never return to the
// application.
func (s *Session) BuildProgram(img *firmware.Image) ([]frame.Frame, error) {
	if img == nil {
		return nil, errors.New("image cannot be nil")
	}

	pages := img.Pages(s.profile.PageSize)
	if len(pages) == 0 {
		return nil, errors.New("image contains no data")
	}

	if w := img.ReadWord(0); !avr.IsRJMP(w) {
		return nil, &VectorError{Word: w}
	}

	total := len(pages) + 1
	frames := make([]frame.Frame, 0, total)
	for i, page := range pages {
		if page.Number >= s.profile.AppFlashPages() {
			return nil, &RegionError{
				Page:            page.Number,
				FirstLoaderPage: s.profile.AppFlashPages(),
			}
		}

		f, err := frame.BuildProgramPageFrame(s.profile.PageSize, uint16(page.Number), page.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "build frame for page %d", page.Number)
		}
		frames = append(frames, f)

		s.reportProgress(Progress{
			Phase:        PhaseBuilding,
			CurrentFrame: i + 1,
			TotalFrames:  total,
			Percentage:   float64(i+1) / float64(total) * 10,
		})
	}

	run, err := frame.BuildRunApplicationFrame(s.profile.PageSize)
	if err != nil {
		return nil, errors.Wrap(err, "build run frame")
	}
	frames = append(frames, run)

	s.logDebug("program frames built", "pages", len(pages), "frames", len(frames))

	return frames, nil
}

// BuildEEPROM turns a byte block into EEPROM write frames, one per
// EEPROM page starting at the given page.
func (s *Session) BuildEEPROM(page int, data []byte) ([]frame.Frame, error) {
	if page < 0 {
		return nil, errors.Errorf("page cannot be negative, got %d", page)
	}
	if len(data) == 0 {
		return nil, errors.New("data cannot be empty")
	}
	if end := page*s.profile.PageSize + len(data); end > s.profile.EepromSize {
		return nil, &RangeError{End: end, Size: s.profile.EepromSize}
	}

	var frames []frame.Frame
	for i := 0; len(data) > 0; i++ {
		chunk := data
		if len(chunk) > s.profile.PageSize {
			chunk = chunk[:s.profile.PageSize]
		}
		data = data[len(chunk):]

		f, err := frame.BuildWriteEEPROMFrame(s.profile.PageSize, uint16(page+i), chunk)
		if err != nil {
			return nil, errors.Wrapf(err, "build eeprom frame for page %d", page+i)
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// Encode renders frames as a differential Manchester level stream.
func (s *Session) Encode(frames []frame.Frame) []bool {
	enc := audio.NewEncoder(s.config.EncoderOptions...)
	return enc.EncodeSession(frames)
}

// WriteWAV renders frames as a playable WAV file.
//
// Example:
//
//	out, _ := os.Create("firmware.wav")
//	defer out.Close()
//	err := s.WriteWAV(out, frames)
func (s *Session) WriteWAV(w io.WriteSeeker, frames []frame.Frame) error {
	levels := s.Encode(frames)
	return audio.WriteWAV(w, levels, s.config.WAVOptions...)
}

// Flash runs the complete programming chain against a simulated part:
//  1. Build the frame sequence from the image
//  2. Encode it as a level stream and arm the device's audio line
//  3. Run the resident loader with the boot-check line held
//  4. Verify the flash contents and the handoff entry
//
// It returns the application entry the loader handed off to. The
// operation can be cancelled via context.
func (s *Session) Flash(ctx context.Context, img *firmware.Image, dev *sim.Device) (avr.WordAddr, error) {
	if dev == nil {
		return 0, errors.New("device cannot be nil")
	}

	startTime := time.Now()

	frames, err := s.BuildProgram(img)
	if err != nil {
		return 0, errors.Wrap(err, "build program")
	}

	s.reportProgress(Progress{
		Phase:       PhaseEncoding,
		TotalFrames: len(frames),
		Percentage:  15,
	})

	levels := s.Encode(frames)
	if err := dev.LoadLevels(levels, s.config.TicksPerHalfCell); err != nil {
		return 0, errors.Wrap(err, "load signal")
	}

	s.logDebug("signal armed",
		"frames", len(frames),
		"half_cells", len(levels),
		"ticks_per_half_cell", s.config.TicksPerHalfCell,
	)

	s.reportProgress(Progress{
		Phase:       PhaseFlashing,
		TotalFrames: len(frames),
		Percentage:  20,
	})

	dev.HoldBoot()
	defer dev.ReleaseBoot()

	entry, err := s.runLoader(ctx, dev)
	if err != nil {
		return 0, errors.Wrap(err, "loader run")
	}

	s.reportProgress(Progress{
		Phase:        PhaseVerifying,
		CurrentFrame: len(frames),
		TotalFrames:  len(frames),
		Percentage:   90,
		ElapsedTime:  time.Since(startTime),
	})

	if err := s.verify(img, dev); err != nil {
		return 0, err
	}

	if expected := avr.DecodeResetJump(img.ReadWord(0)); entry != expected {
		return 0, &EntryMismatchError{Expected: expected, Actual: entry}
	}

	bytesWritten := (len(frames) - 1) * s.profile.PageSize
	s.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentFrame: len(frames),
		TotalFrames:  len(frames),
		Percentage:   100,
		BytesWritten: bytesWritten,
		ElapsedTime:  time.Since(startTime),
	})

	s.logInfo("programming complete",
		"pages", len(frames)-1,
		"bytes", bytesWritten,
		"entry", uint32(entry),
		"elapsed", time.Since(startTime).String(),
	)

	return entry, nil
}

// WriteEEPROM runs an EEPROM-only session against a simulated part. The
// loader leaves through the entry stored by an earlier programming run
// and the stored entry is returned; on a part that was never programmed
// the loader keeps waiting for frames until the context ends.
func (s *Session) WriteEEPROM(ctx context.Context, dev *sim.Device, page int, data []byte) (avr.WordAddr, error) {
	if dev == nil {
		return 0, errors.New("device cannot be nil")
	}

	frames, err := s.BuildEEPROM(page, data)
	if err != nil {
		return 0, errors.Wrap(err, "build eeprom frames")
	}

	levels := s.Encode(frames)
	if err := dev.LoadLevels(levels, s.config.TicksPerHalfCell); err != nil {
		return 0, errors.Wrap(err, "load signal")
	}

	dev.HoldBoot()
	defer dev.ReleaseBoot()

	entry, err := s.runLoader(ctx, dev)
	if err != nil {
		return 0, errors.Wrap(err, "loader run")
	}

	s.logInfo("eeprom written", "page", page, "bytes", len(data))

	return entry, nil
}

// runLoader boots the resident core on the device and returns the
// handoff entry.
func (s *Session) runLoader(ctx context.Context, dev *sim.Device) (avr.WordAddr, error) {
	opts := append([]boot.Option(nil), s.config.BootOptions...)
	if s.config.Logger != nil {
		opts = append(opts, boot.WithLogger(s.config.Logger))
	}

	b := boot.New(dev.Hardware(), s.profile, opts...)
	return b.Run(ctx)
}

// verify compares the device's flash against the image, page by page.
// The reset vector is expected to carry the loader's own jump, and the
// persist word below the loader belongs to the loader, so both are
// exempt from the comparison against image bytes.
func (s *Session) verify(img *firmware.Image, dev *sim.Device) error {
	loaderJump := avr.EncodeResetJump(s.profile.BootloaderStart.Word())
	persistPage := int(s.profile.PersistAddr()) / s.profile.PageSize
	persistOff := int(s.profile.PersistAddr()) % s.profile.PageSize

	for _, page := range img.Pages(s.profile.PageSize) {
		base := avr.ByteAddr(page.Number * s.profile.PageSize)
		actual := dev.FlashBytes(base, s.profile.PageSize)

		expected := append([]byte(nil), page.Data...)
		if page.Number == 0 {
			expected[0] = byte(loaderJump)
			expected[1] = byte(loaderJump >> 8)
		}

		for i := range expected {
			if page.Number == persistPage && (i == persistOff || i == persistOff+1) {
				continue
			}
			if actual[i] != expected[i] {
				return &VerifyError{
					Page:     page.Number,
					Offset:   i,
					Expected: expected[i],
					Actual:   actual[i],
				}
			}
		}
	}

	return nil
}

// reportProgress calls the progress callback if configured.
func (s *Session) reportProgress(progress Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
