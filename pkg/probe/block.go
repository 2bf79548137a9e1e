package probe

import (
	"fmt"
	"unsafe"
)

// block is one BlockSize-byte buffer whose address is aligned to
// BlockSize, as uncached reads require. It must be released exactly once.
type block struct {
	data    []byte
	release func([]byte) error
}

// Bytes returns the aligned buffer.
func (b *block) Bytes() []byte {
	return b.data
}

// Release returns the buffer to the system. Calling it again is a no-op.
func (b *block) Release() error {
	if b.data == nil {
		return nil
	}
	data := b.data
	b.data = nil
	if b.release == nil {
		return nil
	}
	return b.release(data)
}

func isAligned(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(data)))%BlockSize == 0
}

// CheckAllocation acquires and releases one aligned buffer. The daemon runs
// it once at startup so an environment that cannot provide aligned memory
// fails before the watchdog loop begins.
func CheckAllocation() error {
	b, err := newBlock()
	if err != nil {
		return fmt.Errorf("allocating aligned probe buffer: %w", err)
	}
	if err := b.Release(); err != nil {
		return fmt.Errorf("releasing aligned probe buffer: %w", err)
	}
	return nil
}
