package watchdog

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotRegular is returned when the probe target is not a regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrEmptyTarget is returned when the probe target has no bytes.
	ErrEmptyTarget = errors.New("file is empty")
)

// ValidateTarget checks that path exists, is a regular file and is not
// empty. It runs once before the loop starts; afterwards every probe's
// open re-checks existence on its own.
func ValidateTarget(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat test file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("test file %s: %w", path, ErrNotRegular)
	}
	if info.Size() == 0 {
		return fmt.Errorf("test file %s: %w", path, ErrEmptyTarget)
	}
	return nil
}
