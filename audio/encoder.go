// Package audio encodes frames into the differential Manchester level
// stream the resident loader listens for, and renders that stream as a
// playable WAV file.
//
// The code is biphase mark: the line flips at every bit cell boundary,
// and flips again mid-cell when the bit is a one. Level streams are
// []bool slices with one entry per half-cell; Expand and WriteWAV turn
// them into samples.
package audio

import (
	"github.com/wonkystuff/audioboot/frame"
)

// DefaultLeadIn is the number of training cells sent before each frame.
const DefaultLeadIn = 24

// MinLeadIn is the shortest usable training run: the receiver times 16
// cell boundaries plus the one it synchronises on.
const MinLeadIn = 17

// DefaultFrameGap is the number of quiet cells between frames, sized so
// the part finishes programming a page before the next training run.
const DefaultFrameGap = 8

// Encoder turns frames into level streams. The line level carries over
// from call to call, so a session encoded frame by frame stays
// transition-correct at the seams.
type Encoder struct {
	leadIn int
	gap    int
	level  bool
}

// EncoderOption adjusts an Encoder.
type EncoderOption func(*Encoder)

// WithLeadIn sets the training cell count per frame. Values below the
// receiver's minimum are ignored.
func WithLeadIn(cells int) EncoderOption {
	return func(e *Encoder) {
		if cells >= MinLeadIn {
			e.leadIn = cells
		}
	}
}

// WithFrameGap sets the quiet cell count between frames.
func WithFrameGap(cells int) EncoderOption {
	return func(e *Encoder) {
		if cells >= 0 {
			e.gap = cells
		}
	}
}

// NewEncoder creates an encoder. The line starts low.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{
		leadIn: DefaultLeadIn,
		gap:    DefaultFrameGap,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cell appends one bit cell: a boundary flip, then a mid-cell flip when
// the bit is a one.
func (e *Encoder) cell(out []bool, one bool) []bool {
	e.level = !e.level
	out = append(out, e.level)
	if one {
		e.level = !e.level
	}
	return append(out, e.level)
}

// hold appends cells in which the line keeps its level.
func (e *Encoder) hold(out []bool, cells int) []bool {
	for i := 0; i < 2*cells; i++ {
		out = append(out, e.level)
	}
	return out
}

// EncodeFrame returns the level stream for a single frame: the training
// run of zero cells, one start cell, then every frame byte MSB-first.
func (e *Encoder) EncodeFrame(f frame.Frame) []bool {
	out := make([]bool, 0, 2*(e.leadIn+1+len(f)*8))
	for i := 0; i < e.leadIn; i++ {
		out = e.cell(out, false)
	}
	out = e.cell(out, true)
	for _, b := range f {
		for bit := 7; bit >= 0; bit-- {
			out = e.cell(out, b>>uint(bit)&1 == 1)
		}
	}
	return out
}

// EncodeSession encodes frames back to back with quiet gaps between
// them. Each frame keeps its own training run, so the receiver
// re-synchronises per frame.
func (e *Encoder) EncodeSession(frames []frame.Frame) []bool {
	var out []bool
	for i, f := range frames {
		if i > 0 {
			out = e.hold(out, e.gap)
		}
		out = append(out, e.EncodeFrame(f)...)
	}
	return out
}

// Expand repeats every half-cell level over samplesPerHalfCell samples.
func Expand(levels []bool, samplesPerHalfCell int) []bool {
	out := make([]bool, 0, len(levels)*samplesPerHalfCell)
	for _, lv := range levels {
		for i := 0; i < samplesPerHalfCell; i++ {
			out = append(out, lv)
		}
	}
	return out
}
