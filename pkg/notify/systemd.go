package notify

import (
	"context"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	envNotifySocket = "NOTIFY_SOCKET"
	envWatchdogUsec = "WATCHDOG_USEC"
	envWatchdogPID  = "WATCHDOG_PID"
)

// SystemdNotifier speaks the sd_notify protocol: each state is one datagram
// written to the unix socket named by $NOTIFY_SOCKET. When the variable is
// unset the process is not supervised and Notify does nothing.
type SystemdNotifier struct {
	socket string
	getenv func(string) string
	pid    int
}

// NewSystemdNotifier creates a notifier from the process environment.
func NewSystemdNotifier() *SystemdNotifier {
	return NewSystemdNotifierFromEnv(os.Getenv, os.Getpid())
}

// NewSystemdNotifierFromEnv creates a notifier that reads its environment
// through getenv and treats pid as its own process ID.
func NewSystemdNotifierFromEnv(getenv func(string) string, pid int) *SystemdNotifier {
	return &SystemdNotifier{
		socket: getenv(envNotifySocket),
		getenv: getenv,
		pid:    pid,
	}
}

// Enabled reports whether a notification socket is configured.
func (n *SystemdNotifier) Enabled() bool {
	return n.socket != ""
}

// Notify sends state to the supervisor. A socket name starting with '@'
// refers to the abstract namespace.
func (n *SystemdNotifier) Notify(ctx context.Context, state State) error {
	if n.socket == "" {
		return nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unixgram", n.socket)
	if err != nil {
		return fmt.Errorf("dial notify socket %s: %w", n.socket, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		return fmt.Errorf("write %s to notify socket: %w", state, err)
	}
	return nil
}

// WatchdogTimeout reports the watchdog timeout systemd configured for this
// service. It mirrors sd_watchdog_enabled: the timeout comes from
// $WATCHDOG_USEC and applies only when $WATCHDOG_PID is unset or names
// this process. ok is false when no watchdog is configured.
func (n *SystemdNotifier) WatchdogTimeout() (timeout time.Duration, ok bool, err error) {
	usecValue := n.getenv(envWatchdogUsec)
	if usecValue == "" {
		return 0, false, nil
	}

	usec, err := strconv.ParseUint(usecValue, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q: %w", envWatchdogUsec, usecValue, err)
	}
	if usec == 0 || usec > math.MaxInt64/uint64(time.Microsecond) {
		return 0, false, fmt.Errorf("invalid %s %q: out of range", envWatchdogUsec, usecValue)
	}

	if pidValue := n.getenv(envWatchdogPID); pidValue != "" {
		pid, err := strconv.Atoi(pidValue)
		if err != nil {
			return 0, false, fmt.Errorf("invalid %s %q: %w", envWatchdogPID, pidValue, err)
		}
		if pid != n.pid {
			return 0, false, nil
		}
	}

	return time.Duration(usec) * time.Microsecond, true, nil
}
