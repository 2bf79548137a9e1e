package notify

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications in the log instead of delivering them.
// Debug mode uses it so a daemon run by hand never talks to systemd.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new log notifier.
// If logger is nil, a default logger is used.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the state at debug level and never fails.
func (n *LogNotifier) Notify(ctx context.Context, state State) error {
	n.logger.DebugContext(ctx, "supervisor notification suppressed",
		slog.String("state", string(state)),
	)
	return nil
}
