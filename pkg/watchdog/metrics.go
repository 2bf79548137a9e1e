package watchdog

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NavarchProject/disk-watchdog/pkg/probe"
)

// Metrics provides Prometheus metrics for the watchdog loop. The daemon has
// no listener; metrics leave the process only through WriteTextfile.
type Metrics struct {
	registry *prometheus.Registry
	textfile string

	probesTotal     *prometheus.CounterVec
	blocksReadTotal prometheus.Counter
	heartbeatsTotal prometheus.Counter
	probeDuration   prometheus.Histogram
	lastSuccess     prometheus.Gauge
	intervalSeconds prometheus.Gauge
}

// NewMetrics creates the watchdog collectors in a private registry.
// textfile may be empty, in which case WriteTextfile does nothing.
func NewMetrics(textfile string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disk_watchdog_probes_total",
				Help: "Total number of storage probes by result",
			},
			[]string{"result"},
		),
		blocksReadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "disk_watchdog_blocks_read_total",
				Help: "Total number of uncached blocks read",
			},
		),
		heartbeatsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "disk_watchdog_heartbeats_total",
				Help: "Total number of watchdog keep-alives delivered to the supervisor",
			},
		),
		probeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "disk_watchdog_probe_duration_seconds",
				Help:    "Wall time of one storage probe",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "disk_watchdog_last_success_timestamp_seconds",
				Help: "Unix time of the last successful probe",
			},
		),
		intervalSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "disk_watchdog_interval_seconds",
				Help: "Resolved interval between probes",
			},
		),
	}
	m.registry.MustRegister(m)
	return m
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.probesTotal.Describe(ch)
	m.blocksReadTotal.Describe(ch)
	m.heartbeatsTotal.Describe(ch)
	m.probeDuration.Describe(ch)
	m.lastSuccess.Describe(ch)
	m.intervalSeconds.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.probesTotal.Collect(ch)
	m.blocksReadTotal.Collect(ch)
	m.heartbeatsTotal.Collect(ch)
	m.probeDuration.Collect(ch)
	m.lastSuccess.Collect(ch)
	m.intervalSeconds.Collect(ch)
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordProbe records the outcome of one probe finished at now.
func (m *Metrics) RecordProbe(result probe.Result, now time.Time) {
	label := "ok"
	if !result.OK() {
		label = probe.KindOf(result.Err).String()
	}
	m.probesTotal.WithLabelValues(label).Inc()
	m.blocksReadTotal.Add(float64(result.Blocks))
	m.probeDuration.Observe(result.Duration.Seconds())
	if result.OK() {
		m.lastSuccess.Set(float64(now.UnixNano()) / float64(time.Second))
	}
}

// RecordHeartbeat increments the delivered heartbeat counter.
func (m *Metrics) RecordHeartbeat() {
	m.heartbeatsTotal.Inc()
}

// SetInterval records the resolved probe interval.
func (m *Metrics) SetInterval(d time.Duration) {
	m.intervalSeconds.Set(d.Seconds())
}

// WriteTextfile writes a snapshot for the node_exporter textfile collector.
// The file is replaced atomically so the exporter never sees a partial one.
func (m *Metrics) WriteTextfile() error {
	if m.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
