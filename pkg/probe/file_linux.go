//go:build linux

package probe

import (
	"os"

	"golang.org/x/sys/unix"
)

// DirectOpener returns an Opener that opens files read-only with O_DIRECT,
// bypassing the page cache so every read reaches the device.
func DirectOpener() Opener {
	return OpenerFunc(openDirect)
}

func openDirect(path string) (File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECT|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &directFile{fd: fd, path: path}, nil
}

// directFile issues raw syscalls on a descriptor. os.File is avoided so a
// zero-byte read is reported as-is rather than translated to io.EOF, and
// so Close reports the kernel's close(2) result.
type directFile struct {
	fd   int
	path string
}

func (f *directFile) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(f.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &os.PathError{Op: "read", Path: f.path, Err: err}
		}
		return n, nil
	}
}

func (f *directFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := unix.Seek(f.fd, offset, whence)
	if err != nil {
		return 0, &os.PathError{Op: "seek", Path: f.path, Err: err}
	}
	return pos, nil
}

func (f *directFile) Close() error {
	if f.fd < 0 {
		return &os.PathError{Op: "close", Path: f.path, Err: os.ErrClosed}
	}
	fd := f.fd
	f.fd = -1
	if err := unix.Close(fd); err != nil {
		return &os.PathError{Op: "close", Path: f.path, Err: err}
	}
	return nil
}
