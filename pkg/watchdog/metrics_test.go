package watchdog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NavarchProject/disk-watchdog/pkg/probe"
)

func TestMetrics_RecordProbe(t *testing.T) {
	m := NewMetrics("")
	now := time.Unix(1700000000, 0)

	m.RecordProbe(probe.Result{Blocks: 4, Duration: time.Millisecond}, now)
	m.RecordProbe(probe.Result{Blocks: 1, Err: &probe.Error{Kind: probe.KindPartialRead, Offset: 512, Got: 7}}, now)
	m.RecordHeartbeat()
	m.SetInterval(15 * time.Second)

	if got := testutil.ToFloat64(m.probesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok probes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.probesTotal.WithLabelValues("partial_read")); got != 1 {
		t.Errorf("partial_read probes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.blocksReadTotal); got != 5 {
		t.Errorf("blocks read = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.heartbeatsTotal); got != 1 {
		t.Errorf("heartbeats = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess); got != 1700000000 {
		t.Errorf("last success = %v, want 1700000000", got)
	}
	if got := testutil.ToFloat64(m.intervalSeconds); got != 15 {
		t.Errorf("interval = %v, want 15", got)
	}

	count, err := testutil.GatherAndCount(m.Registry(), "disk_watchdog_probe_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("duration series = %d, want 1", count)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		if err := NewMetrics("").WriteTextfile(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("writes_snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "disk_watchdog.prom")
		m := NewMetrics(path)
		m.RecordHeartbeat()

		if err := m.WriteTextfile(); err != nil {
			t.Fatalf("WriteTextfile failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "disk_watchdog_heartbeats_total 1") {
			t.Errorf("snapshot missing heartbeat counter:\n%s", data)
		}
	})

	t.Run("bad_directory", func(t *testing.T) {
		m := NewMetrics(filepath.Join(t.TempDir(), "missing", "x.prom"))
		if err := m.WriteTextfile(); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
