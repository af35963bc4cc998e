// Command audioboot-wav renders a firmware image as an audio file that
// programs a part running the resident audio bootloader.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wonkystuff/audioboot/audio"
	"github.com/wonkystuff/audioboot/device"
	"github.com/wonkystuff/audioboot/firmware"
	"github.com/wonkystuff/audioboot/flasher"
	"github.com/wonkystuff/audioboot/internal/logging"
)

func main() {
	var (
		hexPath     = flag.String("hex", "", "Intel HEX firmware image (required)")
		outPath     = flag.String("out", "firmware.wav", "output WAV path")
		profilePath = flag.String("profile", "", "TOML device profile (default: ATtiny85)")
		leadIn      = flag.Int("lead-in", audio.DefaultLeadIn, "training cells per frame")
		gap         = flag.Int("gap", audio.DefaultFrameGap, "quiet cells between frames")
		samples     = flag.Int("samples", audio.DefaultSamplesPerHalfCell, "samples per half-cell")
		rate        = flag.Int("rate", audio.DefaultSampleRate, "sample rate in Hz")
		eepromSpec  = flag.String("eeprom", "", "raw byte file and EEPROM page as FILE:PAGE, sent before the run command (first-time programming; a part with a stored application leaves the loader at the first EEPROM write)")
		level       = flag.String("level", "info", "log level")
	)
	flag.Parse()

	logger := logging.Init("audioboot-wav", *level)

	if *hexPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	profile := device.ATtiny85()
	if *profilePath != "" {
		var err error
		profile, err = device.Load(*profilePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *profilePath).Msg("failed to load device profile")
		}
	}

	img, err := firmware.Parse(*hexPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *hexPath).Msg("failed to parse firmware")
	}
	log.Info().
		Str("path", *hexPath).
		Uint32("bytes", img.Size()).
		Int("pages", len(img.Pages(profile.PageSize))).
		Msg("firmware loaded")

	s := flasher.New(profile,
		flasher.WithLogger(logging.NewBootLogger(logger)),
		flasher.WithEncoderOptions(audio.WithLeadIn(*leadIn), audio.WithFrameGap(*gap)),
		flasher.WithWAVOptions(audio.WithSampleRate(*rate), audio.WithSamplesPerHalfCell(*samples)),
	)

	frames, err := s.BuildProgram(img)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build frames")
	}

	if *eepromSpec != "" {
		path, page, err := splitEepromSpec(*eepromSpec)
		if err != nil {
			log.Fatal().Err(err).Msg("bad eeprom spec")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to read eeprom data")
		}
		ee, err := s.BuildEEPROM(page, data)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build eeprom frames")
		}

		// The loader hands off on the run command, so EEPROM frames go
		// in front of it.
		run := frames[len(frames)-1]
		frames = append(frames[:len(frames)-1], ee...)
		frames = append(frames, run)
		log.Info().Str("path", path).Int("page", page).Int("bytes", len(data)).Msg("eeprom data queued")
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("failed to create output")
	}
	defer out.Close()

	if err := s.WriteWAV(out, frames); err != nil {
		log.Fatal().Err(err).Msg("failed to write wav")
	}

	halfCells := len(s.Encode(frames))
	seconds := float64(halfCells**samples) / float64(*rate)
	log.Info().
		Str("path", *outPath).
		Int("frames", len(frames)).
		Str("duration", fmt.Sprintf("%.1fs", seconds)).
		Msg("wav written")
}

// splitEepromSpec parses a FILE:PAGE argument. The page number is
// whatever follows the last colon, so paths containing colons still
// work.
func splitEepromSpec(spec string) (string, int, error) {
	i := strings.LastIndex(spec, ":")
	if i <= 0 || i == len(spec)-1 {
		return "", 0, fmt.Errorf("eeprom spec %q is not FILE:PAGE", spec)
	}
	page, err := strconv.Atoi(spec[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("eeprom page in %q is not a number", spec)
	}
	return spec[:i], page, nil
}
