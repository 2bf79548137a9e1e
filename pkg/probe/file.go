package probe

import "io"

// File is the subset of file operations a probe performs.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Opener opens the target file for a probe.
type Opener interface {
	Open(path string) (File, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (File, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (File, error) {
	return f(path)
}
