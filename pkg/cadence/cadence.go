// Package cadence decides how often the storage probe runs.
//
// When systemd supervises the daemon with a watchdog timeout, the probe
// interval is half that timeout so at least one full probe and heartbeat
// cycle always fits inside the deadline. Otherwise the user's interval, or
// DefaultInterval, is used as-is.
package cadence

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval is the probe interval when none is configured.
const DefaultInterval = 10 * time.Millisecond

// Source names where a resolved interval came from.
type Source string

const (
	SourceDefault  Source = "default"
	SourceUser     Source = "user"
	SourceWatchdog Source = "watchdog"
)

// TimeoutSource reports the supervisor's failure-detection timeout.
// ok is false when no timeout is configured.
type TimeoutSource interface {
	WatchdogTimeout() (timeout time.Duration, ok bool, err error)
}

// Options is the user's side of the decision.
type Options struct {
	// Interval is the user-supplied probe interval. It is only consulted
	// when IntervalSet is true.
	Interval    time.Duration
	IntervalSet bool

	// Debug skips the supervisor query entirely.
	Debug bool
}

// Resolution is the interval the loop will sleep between probes.
type Resolution struct {
	Interval time.Duration
	Source   Source

	// WatchdogTimeout is the supervisor timeout the interval was derived
	// from, zero unless Source is SourceWatchdog.
	WatchdogTimeout time.Duration

	// Overridden is the user interval that was discarded in favour of
	// the watchdog-derived one, zero if none was discarded.
	Overridden time.Duration
}

// Resolve computes the probe interval once at startup. src may be nil,
// which is treated as a supervisor without a watchdog timeout.
// If logger is nil, slog.Default() is used.
func Resolve(opts Options, src TimeoutSource, logger *slog.Logger) (Resolution, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.IntervalSet && opts.Interval <= 0 {
		return Resolution{}, fmt.Errorf("invalid interval %v: must be positive", opts.Interval)
	}

	fallback := Resolution{Interval: DefaultInterval, Source: SourceDefault}
	if opts.IntervalSet {
		fallback = Resolution{Interval: opts.Interval, Source: SourceUser}
	}

	if opts.Debug || src == nil {
		return fallback, nil
	}

	timeout, ok, err := src.WatchdogTimeout()
	if err != nil {
		logger.Warn("ignoring unusable watchdog configuration",
			slog.String("error", err.Error()),
		)
		return fallback, nil
	}
	if !ok {
		return fallback, nil
	}

	logger.Info("systemd watchdog enabled",
		slog.Duration("timeout", timeout),
	)

	// The interval is kept at microsecond precision, the unit systemd
	// reports the timeout in.
	interval := (timeout / 2).Truncate(time.Microsecond)
	if interval <= 0 {
		return Resolution{}, fmt.Errorf("watchdog timeout %v too short to derive a probe interval", timeout)
	}

	res := Resolution{
		Interval:        interval,
		Source:          SourceWatchdog,
		WatchdogTimeout: timeout,
	}
	if opts.IntervalSet {
		res.Overridden = opts.Interval
		logger.Info("overriding user-specified interval for watchdog safety",
			slog.Duration("requested", opts.Interval),
			slog.Duration("interval", interval),
		)
	}
	return res, nil
}
