package ingest

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

func newTestUpkeep(t *testing.T, cfg UpkeepConfig) (*Upkeep, *spectator.Registry) {
	t.Helper()
	registry := spectator.NewRegistry(spectator.RegistryConfig{MeterTTL: time.Minute, GaugeTTL: time.Minute})
	parser := NewParser(registry)
	u, err := NewUpkeep(cfg, registry, parser)
	if err != nil {
		t.Fatalf("NewUpkeep: %v", err)
	}
	return u, registry
}

func TestEnsureNotStuckDoesNotAbortWhenRecent(t *testing.T) {
	u, _ := newTestUpkeep(t, UpkeepConfig{
		LastSuccess: func() int64 { return time.Now().UnixNano() },
	})
	// Must return normally (no os.Exit) when the last successful publish was just now.
	u.ensureNotStuck()
}

func TestEnsureNotStuckNoopWithoutLastSuccessFunc(t *testing.T) {
	u, _ := newTestUpkeep(t, UpkeepConfig{})
	u.ensureNotStuck()
}

func TestUpdateNetworkMetricsWiresProcstat(t *testing.T) {
	dir := t.TempDir()
	procFile := filepath.Join(dir, "udp")
	fixture := "  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops\n" +
		"   0: 00000000:04D2 00000000:0000 07 00000000:00000400 00:00000000 00000000   104        0 7856671 2 0000000000000000 7\n"
	if err := os.WriteFile(procFile, []byte(fixture), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	u, _ := newTestUpkeep(t, UpkeepConfig{
		UDPPort:        1234,
		ProcNetUDPFile: procFile,
	})

	u.updateNetworkMetrics()

	if got := u.udpRxQueueGauge.Get(); got != 0x400 {
		t.Errorf("udpRxQueueGauge = %v, want %v", got, float64(0x400))
	}
}

func TestUpdateNetworkMetricsNoMatchingPortIsANoop(t *testing.T) {
	dir := t.TempDir()
	procFile := filepath.Join(dir, "udp")
	fixture := "  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops\n"
	if err := os.WriteFile(procFile, []byte(fixture), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	u, _ := newTestUpkeep(t, UpkeepConfig{
		UDPPort:        1234,
		ProcNetUDPFile: procFile,
	})

	// Must not panic when no /proc/net/udp row matches the configured port.
	u.updateNetworkMetrics()

	if got := u.udpRxQueueGauge.Get(); !math.IsNaN(got) {
		t.Errorf("udpRxQueueGauge = %v, want NaN (never updated) when no row matches", got)
	}
}

func TestUpkeepTickUpdatesPercentileCacheGauges(t *testing.T) {
	u, _ := newTestUpkeep(t, UpkeepConfig{
		LastSuccess: func() int64 { return time.Now().UnixNano() },
	})

	if err := u.parser.ParseLine("T:latency:0.1"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}

	u.tick()

	if got := u.timersSizeGauge.Get(); got != 1 {
		t.Errorf("timersSizeGauge = %v, want 1", got)
	}
}
