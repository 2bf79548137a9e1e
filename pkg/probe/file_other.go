//go:build !linux

package probe

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// DirectOpener returns an Opener that fails on platforms without O_DIRECT.
// Cached reads would only prove the page cache is alive, so there is no
// fallback.
func DirectOpener() Opener {
	return OpenerFunc(func(path string) (File, error) {
		return nil, &os.PathError{
			Op:   "open",
			Path: path,
			Err:  fmt.Errorf("uncached reads on %s: %w", runtime.GOOS, errors.ErrUnsupported),
		}
	})
}
