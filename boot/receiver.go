package boot

import (
	"context"

	"github.com/wonkystuff/audioboot/frame"
)

// calibrationEdges is the number of cell boundaries timed during
// synchronisation. The first half warms up; the second half is averaged
// into the bit period estimate.
const calibrationEdges = 16

// ReceiveFrame receives a single frame from the audio line. It is the
// receive half of Run's frame loop, exposed for captures and tests.
func (b *Bootloader) ReceiveFrame(ctx context.Context) (frame.Frame, error) {
	return b.receiveFrame(ctx)
}

// receiveFrame receives one differential Manchester coded frame.
//
// The signal is self-clocking: every bit cell starts with a level
// transition, and a second transition in the middle of the cell makes
// the bit a one. The sender prefixes each frame with a run of zero
// cells; the receiver times those to estimate the bit period, then
// waits for the first cell carrying a mid-cell transition, which marks
// the start of the data. Each data bit is sampled at three quarters of
// a cell past the boundary and compared against the boundary level.
func (b *Bootloader) receiveFrame(ctx context.Context) (frame.Frame, error) {
	data := make([]byte, frame.Size(b.profile.PageSize))

	// Synchronisation and bit rate estimation.
	p, err := b.hw.Audio.Level()
	if err != nil {
		return nil, err
	}
	p, err = b.waitEdge(ctx, p)
	if err != nil {
		return nil, err
	}
	b.hw.Clock.Reset()

	sum := 0
	for n := 0; n < calibrationEdges; n++ {
		p, err = b.waitEdge(ctx, p)
		if err != nil {
			return nil, err
		}
		t := b.hw.Clock.Ticks()
		b.hw.Clock.Reset()
		if n >= calibrationEdges/2 {
			sum += int(t)
		}
	}

	// Three quarters of a bit period, in ticks.
	delay := uint16(sum * 3 / 4 / (calibrationEdges / 2))
	if err := b.waitTicks(ctx, delay); err != nil {
		return nil, err
	}

	// Wait for the start cell: no mid-cell change means another zero
	// cell of the preamble.
	for {
		lv, err := b.hw.Audio.Level()
		if err != nil {
			return nil, err
		}
		if lv != p {
			break
		}
		p, err = b.waitEdge(ctx, p)
		if err != nil {
			return nil, err
		}
		b.hw.Clock.Reset()
		if err := b.waitTicks(ctx, delay); err != nil {
			return nil, err
		}
		b.hw.Clock.Reset()
	}
	p, err = b.hw.Audio.Level()
	if err != nil {
		return nil, err
	}

	// Data bits, most significant first.
	var acc byte
	for n := 0; n < len(data)*8; n++ {
		p, err = b.waitEdge(ctx, p)
		if err != nil {
			return nil, err
		}
		b.hw.Clock.Reset()
		if err := b.waitTicks(ctx, delay); err != nil {
			return nil, err
		}
		t, err := b.hw.Audio.Level()
		if err != nil {
			return nil, err
		}

		acc <<= 1
		if p != t {
			acc |= 1
		}
		p = t
		data[n/8] = acc
	}

	return frame.Frame(data), nil
}

// waitEdge polls the audio line until its level differs from p and
// returns the new level.
func (b *Bootloader) waitEdge(ctx context.Context, p bool) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		lv, err := b.hw.Audio.Level()
		if err != nil {
			return false, err
		}
		if lv != p {
			return lv, nil
		}
	}
}

// waitTicks busy-waits on the clock until delay ticks have passed since
// the last Reset.
func (b *Bootloader) waitTicks(ctx context.Context, delay uint16) error {
	for b.hw.Clock.Ticks() < delay {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
