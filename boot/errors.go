package boot

import "fmt"

// PageSizeError indicates page data that is not exactly one page long.
type PageSizeError struct {
	Got  int
	Want int
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("page data of %d bytes, want exactly %d", e.Got, e.Want)
}

// PageAlignError indicates a page operation at an unaligned address.
type PageAlignError struct {
	Addr     uint32
	PageSize int
}

func (e *PageAlignError) Error() string {
	return fmt.Sprintf("address %#x is not aligned to the %d byte page size", e.Addr, e.PageSize)
}

// TransferError wraps the receive failure that drove the loader into
// its terminal blink state.
type TransferError struct {
	Cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: %v", e.Cause)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}
