package frame

import "fmt"

// SizeError indicates a raw buffer whose length does not match the frame
// size for the device page size.
type SizeError struct {
	Got  int
	Want int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("frame size mismatch: got %d bytes, want %d", e.Got, e.Want)
}

// PayloadSizeError indicates builder data that does not fit in one page.
type PayloadSizeError struct {
	Got int
	Max int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds page size %d", e.Got, e.Max)
}
