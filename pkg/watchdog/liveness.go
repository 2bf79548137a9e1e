package watchdog

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Liveness is the cancellation token shared between the stop-signal
// handler and the watchdog loop. It starts alive and is cleared at most
// once. Clearing it never interrupts a probe or sleep in progress; the
// loop observes it at the top of its next iteration.
type Liveness struct {
	stopped atomic.Bool
}

// NewLiveness returns a token in the alive state.
func NewLiveness() *Liveness {
	return &Liveness{}
}

// Alive reports whether shutdown has not yet been requested.
func (l *Liveness) Alive() bool {
	return !l.stopped.Load()
}

// Stop requests shutdown. It returns true only for the call that actually
// cleared the token; later calls have no effect.
func (l *Liveness) Stop() bool {
	return l.stopped.CompareAndSwap(false, true)
}

// StopOnSignal clears the token when the first value arrives on signals.
// Further signals are absorbed so repeated SIGTERMs are harmless. The
// forwarding goroutine exits when signals is closed, and the returned
// channel is closed once it has.
func (l *Liveness) StopOnSignal(signals <-chan os.Signal, logger *slog.Logger) <-chan struct{} {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for sig := range signals {
			if l.Stop() {
				logger.Info("stop requested", slog.String("signal", sig.String()))
			}
		}
	}()
	return done
}
