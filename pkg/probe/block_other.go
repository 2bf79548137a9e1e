//go:build !linux

package probe

import "fmt"

// newBlock carves an aligned window out of a heap slice. The Go heap does
// not move objects, so the alignment holds for the life of the slice.
func newBlock() (*block, error) {
	raw := make([]byte, 2*BlockSize)
	for offset := 0; offset < BlockSize; offset++ {
		window := raw[offset : offset+BlockSize : offset+BlockSize]
		if isAligned(window) {
			return &block{data: window}, nil
		}
	}
	return nil, fmt.Errorf("no %d-byte aligned window in heap allocation", BlockSize)
}
