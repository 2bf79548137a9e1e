// Package notify implements the supervisor side of the watchdog protocol:
// readiness and keep-alive notifications delivered to systemd, and the
// query for the watchdog timeout systemd expects us to honour.
package notify

import "context"

// State is a notification payload understood by the supervisor.
type State string

const (
	// Ready tells the supervisor startup has completed.
	Ready State = "READY=1"

	// Watchdog resets the supervisor's watchdog timer.
	Watchdog State = "WATCHDOG=1"
)

// Notifier delivers state notifications to the supervising process manager.
type Notifier interface {
	Notify(ctx context.Context, state State) error
}
