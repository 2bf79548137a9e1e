// Package probe performs the storage health check: one uncached,
// block-aligned read pass over a target file, with every failure
// classified into a closed set of kinds.
package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/NavarchProject/disk-watchdog/pkg/clock"
)

// BlockSize is the unit of every read and the required buffer alignment.
const BlockSize = 512

// Config configures a Prober.
type Config struct {
	// Opener opens the target file. If nil, DirectOpener() is used.
	Opener Opener

	// Clock times each probe. If nil, uses real time.
	Clock clock.Clock
}

// Result describes one probe. Err is nil on success and a *Error otherwise.
type Result struct {
	Path string

	// Size is the file size observed at the start of the probe.
	Size int64

	// Blocks is the number of full blocks read before the probe ended.
	Blocks int

	Duration time.Duration
	Err      error
}

// OK reports whether the probe succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Bytes returns the number of bytes read.
func (r Result) Bytes() int64 {
	return int64(r.Blocks) * BlockSize
}

// Prober runs storage probes. It holds no per-probe state, so one Prober
// can be reused for every iteration of the watchdog loop.
type Prober struct {
	opener Opener
	clock  clock.Clock
	logger *slog.Logger
	alloc  func() (*block, error)
}

// New creates a Prober. If logger is nil, slog.Default() is used.
func New(cfg Config, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Opener == nil {
		cfg.Opener = DirectOpener()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Prober{
		opener: cfg.Opener,
		clock:  cfg.Clock,
		logger: logger,
		alloc:  newBlock,
	}
}

// Probe reads every whole block of the file at path. Any bytes after the
// last full block are never requested, and a file with no whole blocks is
// a vacuous success. The size is recomputed on every call.
func (p *Prober) Probe(ctx context.Context, path string) Result {
	start := p.clock.Now()
	result := p.probe(ctx, path)
	result.Duration = p.clock.Since(start)
	return result
}

func (p *Prober) probe(ctx context.Context, path string) Result {
	result := Result{Path: path}

	buf, err := p.alloc()
	if err != nil {
		result.Err = &Error{Kind: KindAllocation, Path: path, Err: err}
		return result
	}
	defer func() {
		if err := buf.Release(); err != nil {
			p.logger.WarnContext(ctx, "failed to release probe buffer",
				slog.String("error", err.Error()),
			)
		}
	}()

	f, err := p.opener.Open(path)
	if err != nil {
		result.Err = &Error{Kind: KindOpen, Path: path, Err: err}
		return result
	}

	result.Size, result.Blocks, result.Err = readBlocks(f, buf.Bytes(), path)

	// A close error can hide a deferred I/O error, so it fails an
	// otherwise clean probe. An earlier failure takes precedence.
	if err := f.Close(); err != nil && result.Err == nil {
		result.Err = &Error{Kind: KindClose, Path: path, Err: err}
	}

	return result
}

// readBlocks sizes the file, rewinds it and reads whole blocks from offset
// zero. It stops at the first block that does not come back complete.
func readBlocks(f File, buf []byte, path string) (int64, int, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, &Error{Kind: KindSeek, Path: path, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return size, 0, &Error{Kind: KindSeek, Path: path, Err: err}
	}

	alignedSize := (size / BlockSize) * BlockSize

	blocks := 0
	for offset := int64(0); offset < alignedSize; offset += BlockSize {
		n, err := f.Read(buf)
		switch {
		case err != nil && !errors.Is(err, io.EOF):
			return size, blocks, &Error{Kind: KindRead, Path: path, Offset: offset, Err: err}
		case n == 0:
			return size, blocks, &Error{Kind: KindUnexpectedEOF, Path: path, Offset: offset}
		case n != BlockSize:
			return size, blocks, &Error{Kind: KindPartialRead, Path: path, Offset: offset, Got: n}
		}
		blocks++
	}

	return size, blocks, nil
}
