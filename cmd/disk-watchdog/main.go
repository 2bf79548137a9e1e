package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NavarchProject/disk-watchdog/pkg/config"
	"github.com/NavarchProject/disk-watchdog/pkg/watchdog"
)

type rootOptions struct {
	configPath      string
	file            string
	intervalMS      int
	verbose         bool
	debug           bool
	metricsTextfile string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "disk-watchdog",
		Short: "Storage liveness watchdog for systemd",
		Long: `disk-watchdog repeatedly reads a file with uncached I/O and sends a
systemd watchdog keep-alive after every successful read. When the disk
stops servicing reads, keep-alives stop and systemd acts on its
WatchdogSec= timeout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg.Spec.Verbose)
			return runDaemon(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "File to read for the disk test")
	cmd.Flags().IntVarP(&opts.intervalMS, "interval", "i", 10, "Interval between reads in milliseconds (overridden by WATCHDOG_USEC)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Debug mode: no systemd notifications, implies --verbose")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after every read")

	cmd.AddCommand(checkCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// maxIntervalMS is the largest --interval that fits in a time.Duration.
const maxIntervalMS = math.MaxInt64 / int64(time.Millisecond)

// loadConfig merges the optional config file with flags. Flags that were
// set explicitly win over file values. A nil Spec.Interval means the user
// did not choose an interval at all.
func loadConfig(cmd *cobra.Command, opts rootOptions) (*config.Config, error) {
	cfg := &config.Config{
		TypeMeta: config.TypeMeta{APIVersion: config.APIVersion, Kind: config.KindDiskWatchdog},
	}
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Spec.File = opts.file
	}
	if flags.Changed("interval") {
		ms := int64(opts.intervalMS)
		if ms > maxIntervalMS || ms < -maxIntervalMS {
			return nil, fmt.Errorf("invalid configuration: interval %d ms out of range", opts.intervalMS)
		}
		cfg.Spec.Interval = config.NewDuration(time.Duration(ms) * time.Millisecond)
	}
	if flags.Changed("verbose") {
		cfg.Spec.Verbose = opts.verbose
	}
	if flags.Changed("debug") {
		cfg.Spec.Debug = opts.debug
	}
	if flags.Changed("metrics-textfile") {
		cfg.Spec.MetricsTextfile = opts.metricsTextfile
	}

	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("instance", uuid.NewString()))
}

// stopOnSignals forwards SIGINT and SIGTERM to live until the returned
// function is called. The returned function waits for the forwarding
// goroutine to exit.
func stopOnSignals(live *watchdog.Liveness, logger *slog.Logger) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := live.StopOnSignal(signals, logger)
	return func() {
		signal.Stop(signals)
		close(signals)
		<-done
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	slog.SetDefault(logger)

	live := watchdog.NewLiveness()
	stop := stopOnSignals(live, logger)
	defer stop()

	var interval time.Duration
	if cfg.Spec.Interval != nil {
		interval = cfg.Spec.Interval.Duration()
	}

	d, err := watchdog.New(watchdog.Config{
		Path:        cfg.Spec.File,
		Interval:    interval,
		IntervalSet: cfg.Spec.Interval != nil,
		Debug:       cfg.Spec.Debug,
		Metrics:     watchdog.NewMetrics(cfg.Spec.MetricsTextfile),
	}, logger)
	if err != nil {
		return err
	}
	return d.Run(ctx, live)
}
