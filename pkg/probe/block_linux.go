//go:build linux

package probe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// newBlock maps an anonymous region outside the Go heap. mmap returns
// page-aligned memory, which satisfies the BlockSize alignment O_DIRECT
// needs, and the garbage collector never moves it.
func newBlock() (*block, error) {
	data, err := unix.Mmap(-1, 0, BlockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	if !isAligned(data) {
		unix.Munmap(data)
		return nil, fmt.Errorf("mmap returned memory not aligned to %d bytes", BlockSize)
	}
	clear(data)
	return &block{data: data, release: unix.Munmap}, nil
}
