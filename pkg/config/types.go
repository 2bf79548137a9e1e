package config

import "time"

const (
	APIVersion = "diskwatchdog.navarch.io/v1alpha1"

	KindDiskWatchdog = "DiskWatchdog"
)

// TypeMeta describes the API version and kind of a resource.
type TypeMeta struct {
	APIVersion string `yaml:"apiVersion" json:"apiVersion"`
	Kind       string `yaml:"kind" json:"kind"`
}

// ObjectMeta contains metadata that all resources have.
type ObjectMeta struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Config configures one disk watchdog instance.
type Config struct {
	TypeMeta `yaml:",inline" json:",inline"`
	Metadata ObjectMeta `yaml:"metadata" json:"metadata"`
	Spec     Spec       `yaml:"spec" json:"spec"`
}

// Spec defines what the watchdog probes and how it reports.
type Spec struct {
	// File is the probe target. It must be a non-empty regular file.
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// Interval between probes. Nil leaves the choice to the cadence
	// defaults; a systemd watchdog timeout always takes precedence. A
	// present but non-positive value is rejected by Validate.
	Interval *Duration `yaml:"interval,omitempty" json:"interval,omitempty"`

	Verbose bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// Debug implies Verbose and disables supervisor notifications.
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty"`

	// MetricsTextfile, when set, receives a Prometheus text-format snapshot
	// after every probe for the node_exporter textfile collector.
	MetricsTextfile string `yaml:"metricsTextfile,omitempty" json:"metricsTextfile,omitempty"`
}

// Duration wraps time.Duration for YAML/JSON marshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// NewDuration returns a pointer to d as a Duration.
func NewDuration(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}
