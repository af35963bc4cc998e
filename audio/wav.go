package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultSampleRate is the output sample rate in Hz.
const DefaultSampleRate = 44100

// DefaultSamplesPerHalfCell sets the signalling speed: 8 samples per
// half-cell at 44.1kHz is roughly 2756 bits per second.
const DefaultSamplesPerHalfCell = 8

// DefaultAmplitude leaves headroom below full scale so playback chains
// with sloppy gain staging do not clip the edges the receiver times.
const DefaultAmplitude = 0.8

// WAVConfig collects the rendering parameters for WriteWAV.
type WAVConfig struct {
	SampleRate         int
	SamplesPerHalfCell int
	Amplitude          float64
}

// WAVOption adjusts a WAVConfig.
type WAVOption func(*WAVConfig)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) WAVOption {
	return func(c *WAVConfig) {
		if rate > 0 {
			c.SampleRate = rate
		}
	}
}

// WithSamplesPerHalfCell sets how many samples one half-cell spans.
// Fewer samples mean a faster transfer and a harder signal to play
// back.
func WithSamplesPerHalfCell(n int) WAVOption {
	return func(c *WAVConfig) {
		if n > 0 {
			c.SamplesPerHalfCell = n
		}
	}
}

// WithAmplitude sets the square wave amplitude as a fraction of full
// scale, clamped to (0, 1].
func WithAmplitude(a float64) WAVOption {
	return func(c *WAVConfig) {
		if a > 0 && a <= 1 {
			c.Amplitude = a
		}
	}
}

// WriteWAV renders a level stream as 16-bit mono PCM: a square wave,
// one half-cell per SamplesPerHalfCell samples.
func WriteWAV(w io.WriteSeeker, levels []bool, opts ...WAVOption) error {
	if len(levels) == 0 {
		return fmt.Errorf("audio: empty level stream")
	}

	cfg := WAVConfig{
		SampleRate:         DefaultSampleRate,
		SamplesPerHalfCell: DefaultSamplesPerHalfCell,
		Amplitude:          DefaultAmplitude,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	hi := int(cfg.Amplitude * 32767)
	lo := -hi

	data := make([]int, 0, len(levels)*cfg.SamplesPerHalfCell)
	for _, lv := range levels {
		s := lo
		if lv {
			s = hi
		}
		for i := 0; i < cfg.SamplesPerHalfCell; i++ {
			data = append(data, s)
		}
	}

	enc := wav.NewEncoder(w, cfg.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  cfg.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
