package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingFileIsNotAnError(t *testing.T) {
	cfg := Default()
	if err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.json"), cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.URI != DefaultURI {
		t.Error("cfg should be untouched when the config file doesn't exist")
	}
}

func TestLoadFileValidConfigAppliesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"batch_size": 500,
		"meter_ttl_ms": 120000,
		"uri": "https://example.com/api/v4/update",
		"status_metrics_enabled": false
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Default()
	require.NoError(t, LoadFile(path, cfg))

	require.Equal(t, 500, cfg.BatchSize)
	require.Equal(t, 2*time.Minute, cfg.MeterTTL)
	require.Equal(t, "https://example.com/api/v4/update", cfg.URI)
	require.False(t, cfg.StatusMetricsEnabled)
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"not_a_real_field": 1}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Default()
	require.Error(t, LoadFile(path, cfg), "expected a schema validation error for an unknown field")
}

func TestLoadFileRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Default()
	if err := LoadFile(path, cfg); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestLoadFileLeavesUnsetFieldsAtDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"batch_size": 42}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.MeterTTL != DefaultMeterTTL {
		t.Errorf("MeterTTL = %v, want untouched default %v", cfg.MeterTTL, DefaultMeterTTL)
	}
}
