package probe

import (
	"errors"
	"fmt"
)

// Kind classifies why a probe failed.
type Kind int

const (
	// KindNone is reported for a nil error.
	KindNone Kind = iota
	KindAllocation
	KindOpen
	KindSeek
	KindRead
	KindUnexpectedEOF
	KindPartialRead
	KindClose
	// KindUnknown is reported for errors that did not come from a probe.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAllocation:
		return "allocation_failed"
	case KindOpen:
		return "open_failed"
	case KindSeek:
		return "seek_failed"
	case KindRead:
		return "read_failed"
	case KindUnexpectedEOF:
		return "unexpected_eof"
	case KindPartialRead:
		return "partial_read"
	case KindClose:
		return "close_failed"
	default:
		return "unknown"
	}
}

// Error is a classified probe failure. Offset is the byte offset of the
// block being read for read-phase failures and Got is the byte count a
// partial read returned.
type Error struct {
	Kind   Kind
	Path   string
	Offset int64
	Got    int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAllocation:
		return fmt.Sprintf("aligned buffer allocation failed: %v", e.Err)
	case KindOpen:
		return fmt.Sprintf("open failed for read: %v", e.Err)
	case KindSeek:
		return fmt.Sprintf("lseek failed: %v", e.Err)
	case KindRead:
		return fmt.Sprintf("read failed at offset %d: %v", e.Offset, e.Err)
	case KindUnexpectedEOF:
		return fmt.Sprintf("unexpected EOF at offset %d", e.Offset)
	case KindPartialRead:
		return fmt.Sprintf("partial read at offset %d: %d/%d bytes", e.Offset, e.Got, BlockSize)
	case KindClose:
		return fmt.Sprintf("close failed: %v", e.Err)
	default:
		return fmt.Sprintf("probe failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
