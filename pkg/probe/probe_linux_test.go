//go:build linux

package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestProbe_DirectIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.dat")
	if err := os.WriteFile(path, make([]byte, 2048+100), 0o644); err != nil {
		t.Fatal(err)
	}

	result := New(Config{}, nil).Probe(context.Background(), path)
	if KindOf(result.Err) == KindOpen && errors.Is(result.Err, unix.EINVAL) {
		t.Skip("filesystem does not support O_DIRECT")
	}
	if !result.OK() {
		t.Fatalf("Probe failed: %v", result.Err)
	}
	if result.Blocks != 4 {
		t.Errorf("Blocks = %d, want 4", result.Blocks)
	}
}
