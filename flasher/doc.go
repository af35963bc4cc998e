// Package flasher is the host side of the audio programming chain. It
// turns a firmware image into the frame sequence a resident loader
// expects, encodes the frames as an audio level stream, and either
// renders the stream to a WAV file for playback or drives a simulated
// part through a complete programming run.
//
// # Basic Usage
//
//	img, err := firmware.Parse("blink.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s := flasher.New(device.ATtiny85())
//	frames, err := s.BuildProgram(img)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("blink.wav")
//	defer out.Close()
//	if err := s.WriteWAV(out, frames); err != nil {
//	    log.Fatal(err)
//	}
//
// # Programming a Simulated Part
//
// Flash runs the full chain against a sim.Device and verifies the
// flash contents afterwards:
//
//	dev := sim.New(device.ATtiny85())
//	entry, err := s.Flash(context.Background(), img, dev)
//
// # Progress Tracking
//
//	s := flasher.New(device.ATtiny85(),
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
//
// # Error Handling
//
// Build and verify failures return typed errors (RegionError,
// VectorError, VerifyError) that callers can match with errors.As.
package flasher
