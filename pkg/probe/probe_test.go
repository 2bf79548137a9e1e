package probe

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"syscall"
	"testing"
)

// fakeFile is an in-memory File that can inject failures at given offsets.
type fakeFile struct {
	data []byte
	pos  int64

	// reportedSize overrides the size returned by SeekEnd when >= 0.
	reportedSize int64

	shortAt   int64
	shortN    int
	readErrAt int64
	readErr   error
	seekErr   error
	closeErr  error

	reads     int
	requested int64
	closed    int
}

func newFakeFile(size int) *fakeFile {
	return &fakeFile{
		data:         make([]byte, size),
		reportedSize: -1,
		shortAt:      -1,
		readErrAt:    -1,
	}
}

func (f *fakeFile) Read(p []byte) (int, error) {
	f.reads++
	f.requested += int64(len(p))
	if f.pos == f.readErrAt {
		return 0, f.readErr
	}
	if f.pos == f.shortAt {
		f.pos += int64(f.shortN)
		return f.shortN, nil
	}
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *fakeFile) Seek(offset int64, whence int) (int64, error) {
	if f.seekErr != nil {
		return 0, f.seekErr
	}
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekEnd:
		size := int64(len(f.data))
		if f.reportedSize >= 0 {
			size = f.reportedSize
		}
		f.pos = size + offset
	}
	return f.pos, nil
}

func (f *fakeFile) Close() error {
	f.closed++
	return f.closeErr
}

// newTestProber returns a Prober that always opens file and counts buffer
// acquisitions and releases.
func newTestProber(file *fakeFile) (*Prober, *int, *int) {
	var allocs, releases int
	p := New(Config{
		Opener: OpenerFunc(func(string) (File, error) {
			file.pos = 0
			return file, nil
		}),
	}, nil)
	p.alloc = func() (*block, error) {
		allocs++
		return &block{
			data: make([]byte, BlockSize),
			release: func([]byte) error {
				releases++
				return nil
			},
		}, nil
	}
	return p, &allocs, &releases
}

func TestProbe_ReadsOnlyWholeBlocks(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		blocks int
	}{
		{"empty", 0, 0},
		{"one_byte", 1, 0},
		{"one_short_of_block", BlockSize - 1, 0},
		{"exact_block", BlockSize, 1},
		{"block_plus_one", BlockSize + 1, 1},
		{"four_blocks", 4 * BlockSize, 4},
		{"trailing_partial", 5000, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := newFakeFile(tt.size)
			p, _, _ := newTestProber(file)

			result := p.Probe(context.Background(), "/data/probe")
			if !result.OK() {
				t.Fatalf("Probe failed: %v", result.Err)
			}
			if result.Blocks != tt.blocks {
				t.Errorf("Blocks = %d, want %d", result.Blocks, tt.blocks)
			}
			if file.reads != tt.blocks {
				t.Errorf("read calls = %d, want %d", file.reads, tt.blocks)
			}
			if want := int64(tt.blocks) * BlockSize; file.requested != want {
				t.Errorf("bytes requested = %d, want %d", file.requested, want)
			}
			if result.Size != int64(tt.size) {
				t.Errorf("Size = %d, want %d", result.Size, tt.size)
			}
			if result.Bytes() != int64(tt.blocks)*BlockSize {
				t.Errorf("Bytes() = %d, want %d", result.Bytes(), int64(tt.blocks)*BlockSize)
			}
		})
	}
}

func TestProbe_RecomputesSizeEachCall(t *testing.T) {
	file := newFakeFile(2048)
	p, _, _ := newTestProber(file)
	ctx := context.Background()

	if result := p.Probe(ctx, "/data/probe"); result.Blocks != 4 {
		t.Fatalf("first probe Blocks = %d, want 4", result.Blocks)
	}

	file.data = nil
	result := p.Probe(ctx, "/data/probe")
	if !result.OK() {
		t.Fatalf("probe of truncated file failed: %v", result.Err)
	}
	if result.Blocks != 0 {
		t.Errorf("Blocks = %d, want 0", result.Blocks)
	}

	file.data = make([]byte, 3*BlockSize)
	if result := p.Probe(ctx, "/data/probe"); result.Blocks != 3 {
		t.Errorf("probe of grown file Blocks = %d, want 3", result.Blocks)
	}
}

func TestProbe_PartialRead(t *testing.T) {
	file := newFakeFile(8 * BlockSize)
	file.shortAt = 2 * BlockSize
	file.shortN = 100
	p, _, _ := newTestProber(file)

	result := p.Probe(context.Background(), "/data/probe")

	var pe *Error
	if !errors.As(result.Err, &pe) {
		t.Fatalf("expected *Error, got %v", result.Err)
	}
	if pe.Kind != KindPartialRead {
		t.Fatalf("Kind = %v, want %v", pe.Kind, KindPartialRead)
	}
	if pe.Offset != 2*BlockSize || pe.Got != 100 {
		t.Errorf("Offset/Got = %d/%d, want %d/100", pe.Offset, pe.Got, 2*BlockSize)
	}
	if file.reads != 3 {
		t.Errorf("read calls = %d, want 3 (no reads after the short one)", file.reads)
	}
	if result.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", result.Blocks)
	}
	if got, want := pe.Error(), "partial read at offset 1024: 100/512 bytes"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProbe_UnexpectedEOF(t *testing.T) {
	file := newFakeFile(BlockSize)
	file.reportedSize = 4 * BlockSize
	p, _, _ := newTestProber(file)

	result := p.Probe(context.Background(), "/data/probe")

	var pe *Error
	if !errors.As(result.Err, &pe) || pe.Kind != KindUnexpectedEOF {
		t.Fatalf("expected unexpected EOF, got %v", result.Err)
	}
	if pe.Offset != BlockSize {
		t.Errorf("Offset = %d, want %d", pe.Offset, BlockSize)
	}
}

func TestProbe_ReadFailed(t *testing.T) {
	file := newFakeFile(4 * BlockSize)
	file.readErrAt = BlockSize
	file.readErr = syscall.EIO
	p, _, _ := newTestProber(file)

	result := p.Probe(context.Background(), "/data/probe")

	if KindOf(result.Err) != KindRead {
		t.Fatalf("KindOf = %v, want %v", KindOf(result.Err), KindRead)
	}
	if !errors.Is(result.Err, syscall.EIO) {
		t.Errorf("expected error to wrap EIO, got %v", result.Err)
	}
	if file.reads != 2 {
		t.Errorf("read calls = %d, want 2", file.reads)
	}
}

func TestProbe_SeekFailed(t *testing.T) {
	file := newFakeFile(4 * BlockSize)
	file.seekErr = syscall.ESPIPE
	p, _, _ := newTestProber(file)

	result := p.Probe(context.Background(), "/data/probe")

	if KindOf(result.Err) != KindSeek {
		t.Fatalf("KindOf = %v, want %v", KindOf(result.Err), KindSeek)
	}
	if file.reads != 0 {
		t.Errorf("read calls = %d, want 0", file.reads)
	}
}

func TestProbe_CloseFailed(t *testing.T) {
	t.Run("after_clean_reads", func(t *testing.T) {
		file := newFakeFile(2 * BlockSize)
		file.closeErr = syscall.EIO
		p, _, _ := newTestProber(file)

		result := p.Probe(context.Background(), "/data/probe")

		if KindOf(result.Err) != KindClose {
			t.Fatalf("KindOf = %v, want %v", KindOf(result.Err), KindClose)
		}
		if result.Blocks != 2 {
			t.Errorf("Blocks = %d, want 2", result.Blocks)
		}
	})

	t.Run("read_failure_takes_precedence", func(t *testing.T) {
		file := newFakeFile(2 * BlockSize)
		file.readErrAt = 0
		file.readErr = syscall.EIO
		file.closeErr = syscall.EBADF
		p, _, _ := newTestProber(file)

		result := p.Probe(context.Background(), "/data/probe")

		if KindOf(result.Err) != KindRead {
			t.Errorf("KindOf = %v, want %v", KindOf(result.Err), KindRead)
		}
		if file.closed != 1 {
			t.Errorf("Close calls = %d, want 1", file.closed)
		}
	})
}

func TestProbe_OpenFailed(t *testing.T) {
	p := New(Config{}, nil)
	missing := filepath.Join(t.TempDir(), "missing")

	result := p.Probe(context.Background(), missing)

	if KindOf(result.Err) != KindOpen {
		t.Fatalf("KindOf = %v, want %v (err %v)", KindOf(result.Err), KindOpen, result.Err)
	}
}

func TestProbe_AllocationFailed(t *testing.T) {
	opened := false
	p := New(Config{
		Opener: OpenerFunc(func(string) (File, error) {
			opened = true
			return newFakeFile(BlockSize), nil
		}),
	}, nil)
	p.alloc = func() (*block, error) {
		return nil, syscall.ENOMEM
	}

	result := p.Probe(context.Background(), "/data/probe")

	if KindOf(result.Err) != KindAllocation {
		t.Fatalf("KindOf = %v, want %v", KindOf(result.Err), KindAllocation)
	}
	if opened {
		t.Error("file was opened after allocation failure")
	}
}

func TestProbe_ReleasesBufferOnEveryPath(t *testing.T) {
	cases := map[string]func(*fakeFile){
		"success":      func(*fakeFile) {},
		"seek_failed":  func(f *fakeFile) { f.seekErr = syscall.EIO },
		"read_failed":  func(f *fakeFile) { f.readErrAt = 0; f.readErr = syscall.EIO },
		"eof":          func(f *fakeFile) { f.reportedSize = 8 * BlockSize },
		"partial":      func(f *fakeFile) { f.shortAt = BlockSize; f.shortN = 1 },
		"close_failed": func(f *fakeFile) { f.closeErr = syscall.EIO },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			file := newFakeFile(4 * BlockSize)
			mutate(file)
			p, allocs, releases := newTestProber(file)

			p.Probe(context.Background(), "/data/probe")

			if *allocs != 1 || *releases != 1 {
				t.Errorf("allocs/releases = %d/%d, want 1/1", *allocs, *releases)
			}
			if file.closed != 1 {
				t.Errorf("Close calls = %d, want 1", file.closed)
			}
		})
	}

	t.Run("open_failed", func(t *testing.T) {
		file := newFakeFile(BlockSize)
		p, allocs, releases := newTestProber(file)
		p.opener = OpenerFunc(func(string) (File, error) {
			return nil, syscall.ENOENT
		})

		p.Probe(context.Background(), "/data/probe")

		if *allocs != 1 || *releases != 1 {
			t.Errorf("allocs/releases = %d/%d, want 1/1", *allocs, *releases)
		}
	})
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != KindNone {
		t.Errorf("KindOf(nil) = %v, want %v", got, KindNone)
	}
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("KindOf(foreign) = %v, want %v", got, KindUnknown)
	}
	if got := KindPartialRead.String(); got != "partial_read" {
		t.Errorf("String() = %q, want partial_read", got)
	}
}
