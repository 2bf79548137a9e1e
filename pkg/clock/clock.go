// Package clock provides the time source used by the watchdog loop.
//
// In production, use Real() which wraps the standard time package.
// In tests, use NewFakeClock() so the probe cadence can be driven
// deterministically with Advance().
package clock

import "time"

// Clock provides time operations that can be real or simulated.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)

	// After waits for the duration to elapse and then sends the current time.
	After(d time.Duration) <-chan time.Time
}
