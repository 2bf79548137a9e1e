// Package watchdog runs the storage health-check loop: it validates the
// probe target once, resolves the probe cadence, tells the supervisor it is
// ready, and then probes the target at that cadence, sending a keep-alive
// after every successful probe until shutdown is requested.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/NavarchProject/disk-watchdog/pkg/cadence"
	"github.com/NavarchProject/disk-watchdog/pkg/clock"
	"github.com/NavarchProject/disk-watchdog/pkg/notify"
	"github.com/NavarchProject/disk-watchdog/pkg/probe"
	"github.com/NavarchProject/disk-watchdog/pkg/retry"
)

// Prober runs one storage probe against path.
type Prober interface {
	Probe(ctx context.Context, path string) probe.Result
}

// Config holds configuration for the watchdog daemon.
type Config struct {
	// Path is the probe target.
	Path string

	// Interval is the user-requested probe interval, honoured only when
	// IntervalSet is true and no systemd watchdog timeout applies.
	Interval    time.Duration
	IntervalSet bool

	// Debug disables supervisor notifications and the watchdog timeout
	// query.
	Debug bool

	// Prober performs the probes. If nil, an O_DIRECT prober is created.
	Prober Prober

	// Notifier delivers READY and WATCHDOG notifications. Ignored in
	// debug mode. If nil, the systemd notifier is used.
	Notifier notify.Notifier

	// Timeouts reports the supervisor's watchdog timeout. If nil and
	// Notifier is a *notify.SystemdNotifier, the notifier is used.
	Timeouts cadence.TimeoutSource

	// Clock paces the loop. If nil, uses real time.
	Clock clock.Clock

	// Metrics records probe outcomes. If nil, metrics are kept in memory
	// only.
	Metrics *Metrics

	// ReadyRetry bounds delivery attempts of the READY notification.
	// If zero, retry.NotifyConfig() is used.
	ReadyRetry retry.Config
}

// Stats counts what the loop has done so far. Heartbeats counts only
// keep-alives delivered to the supervisor.
type Stats struct {
	Iterations int64
	Heartbeats int64
	Failures   int64
}

// Daemon is the watchdog loop. Run must be called at most once.
type Daemon struct {
	config   Config
	logger   *slog.Logger
	clock    clock.Clock
	prober   Prober
	notifier notify.Notifier
	timeouts cadence.TimeoutSource
	metrics  *Metrics

	cadence cadence.Resolution
	state   atomic.Int32

	iterations atomic.Int64
	heartbeats atomic.Int64
	failures   atomic.Int64
}

// New creates a new Daemon. If logger is nil, slog.Default() is used.
func New(cfg Config, logger *slog.Logger) (*Daemon, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("test file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	prober := cfg.Prober
	if prober == nil {
		prober = probe.New(probe.Config{Clock: clk}, logger)
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewSystemdNotifier()
	}
	timeouts := cfg.Timeouts
	if timeouts == nil {
		if sd, ok := notifier.(*notify.SystemdNotifier); ok {
			timeouts = sd
		}
	}
	if cfg.Debug {
		notifier = notify.NewLogNotifier(logger)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics("")
	}

	if cfg.ReadyRetry.MaxAttempts == 0 {
		cfg.ReadyRetry = retry.NotifyConfig()
	}
	cfg.ReadyRetry.Clock = clk

	return &Daemon{
		config:   cfg,
		logger:   logger,
		clock:    clk,
		prober:   prober,
		notifier: notifier,
		timeouts: timeouts,
		metrics:  metrics,
	}, nil
}

// State returns the current lifecycle phase.
func (d *Daemon) State() State {
	return State(d.state.Load())
}

// Cadence returns the resolved probe interval. It is zero until Run has
// finished initializing.
func (d *Daemon) Cadence() cadence.Resolution {
	return d.cadence
}

// Stats returns the loop counters.
func (d *Daemon) Stats() Stats {
	return Stats{
		Iterations: d.iterations.Load(),
		Heartbeats: d.heartbeats.Load(),
		Failures:   d.failures.Load(),
	}
}

// Run validates the target, resolves the cadence, signals readiness and
// then probes until live is stopped or ctx is cancelled. Both are checked
// only between iterations, so a probe or sleep in progress always
// completes. Startup failures are returned before any notification is
// sent. Probe failures never end the loop: the missing heartbeat is how the
// supervisor learns about them. Run returns nil after a requested shutdown.
func (d *Daemon) Run(ctx context.Context, live *Liveness) error {
	d.setState(StateInitializing)
	if err := d.initialize(); err != nil {
		d.setState(StateTerminated)
		return err
	}

	d.setState(StateReady)
	d.notifyReady(ctx)

	d.logger.InfoContext(ctx, "disk watchdog started",
		slog.Int("pid", os.Getpid()),
		slog.String("path", d.config.Path),
		slog.Duration("interval", d.cadence.Interval),
		slog.String("interval_source", string(d.cadence.Source)),
		slog.Bool("debug", d.config.Debug),
	)

	for live.Alive() && ctx.Err() == nil {
		d.runOnce(ctx)
	}

	d.setState(StateShuttingDown)
	d.logger.InfoContext(ctx, "disk watchdog shutting down", slog.Int64("iterations", d.iterations.Load()))
	d.setState(StateTerminated)
	return nil
}

func (d *Daemon) initialize() error {
	if err := ValidateTarget(d.config.Path); err != nil {
		return err
	}
	if err := probe.CheckAllocation(); err != nil {
		return err
	}

	res, err := cadence.Resolve(cadence.Options{
		Interval:    d.config.Interval,
		IntervalSet: d.config.IntervalSet,
		Debug:       d.config.Debug,
	}, d.timeouts, d.logger)
	if err != nil {
		return fmt.Errorf("resolving probe interval: %w", err)
	}
	d.cadence = res
	d.metrics.SetInterval(res.Interval)
	return nil
}

// notifyReady delivers READY=1. A supervisor that never receives it will
// fail the unit on its own start timeout, so delivery failure is logged
// rather than fatal.
func (d *Daemon) notifyReady(ctx context.Context) {
	err := retry.Do(ctx, d.config.ReadyRetry, func(ctx context.Context) error {
		return d.notifier.Notify(ctx, notify.Ready)
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to notify supervisor of readiness",
			slog.String("error", err.Error()),
		)
	}
}

// runOnce is one Probing -> Deciding -> Sleeping cycle.
func (d *Daemon) runOnce(ctx context.Context) {
	iteration := d.iterations.Add(1)

	d.setState(StateProbing)
	d.logger.DebugContext(ctx, "probe iteration", slog.Int64("iteration", iteration))
	result := d.prober.Probe(ctx, d.config.Path)

	d.setState(StateDeciding)
	d.metrics.RecordProbe(result, d.clock.Now())
	if result.OK() {
		d.logger.DebugContext(ctx, "read ok",
			slog.Int("blocks", result.Blocks),
			slog.Duration("duration", result.Duration),
		)
		d.heartbeat(ctx)
	} else {
		d.failures.Add(1)
		d.logFailure(ctx, iteration, result)
	}

	if err := d.metrics.WriteTextfile(); err != nil {
		d.logger.WarnContext(ctx, "failed to write metrics", slog.String("error", err.Error()))
	}

	d.setState(StateSleeping)
	d.clock.Sleep(d.cadence.Interval)
}

// heartbeat sends WATCHDOG=1. In debug mode nothing is delivered, so
// nothing is counted.
func (d *Daemon) heartbeat(ctx context.Context) {
	if d.config.Debug {
		_ = d.notifier.Notify(ctx, notify.Watchdog)
		return
	}
	if err := d.notifier.Notify(ctx, notify.Watchdog); err != nil {
		d.logger.WarnContext(ctx, "failed to send watchdog heartbeat",
			slog.String("error", err.Error()),
		)
		return
	}
	d.heartbeats.Add(1)
	d.metrics.RecordHeartbeat()
}

func (d *Daemon) logFailure(ctx context.Context, iteration int64, result probe.Result) {
	attrs := []slog.Attr{
		slog.Int64("iteration", iteration),
		slog.String("kind", probe.KindOf(result.Err).String()),
		slog.String("path", result.Path),
		slog.String("error", result.Err.Error()),
	}
	var pe *probe.Error
	if errors.As(result.Err, &pe) {
		switch pe.Kind {
		case probe.KindRead, probe.KindUnexpectedEOF:
			attrs = append(attrs, slog.Int64("offset", pe.Offset))
		case probe.KindPartialRead:
			attrs = append(attrs, slog.Int64("offset", pe.Offset), slog.Int("got", pe.Got))
		}
	}
	d.logger.LogAttrs(ctx, slog.LevelError, "read test failed", attrs...)
}

func (d *Daemon) setState(s State) {
	d.state.Store(int32(s))
}
