package config

import (
	"flag"
	"testing"
	"time"
)

func parseAndApply(t *testing.T, args []string) *Config {
	t.Helper()
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f, err := ParseFlags(fs, cfg, args)
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if err := f.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return cfg
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg := parseAndApply(t, nil)
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.URI != DefaultURI {
		t.Errorf("URI = %q, want %q (unset --uri keeps the built-in default)", cfg.URI, DefaultURI)
	}
}

func TestParseFlagsRejectsOutOfRangePort(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := ParseFlags(fs, cfg, []string{"--port", "0"}); err == nil {
		t.Fatal("expected an error for --port 0")
	}
}

func TestApplyDebugOverridesURIEvenWithExplicitURI(t *testing.T) {
	cfg := parseAndApply(t, []string{"--debug", "--uri", "https://example.com/custom"})
	if cfg.URI != DefaultDebugURI {
		t.Errorf("URI = %q, want debug URI %q to win over --uri", cfg.URI, DefaultDebugURI)
	}
}

func TestApplyExplicitURIOverridesDefault(t *testing.T) {
	cfg := parseAndApply(t, []string{"--uri", "https://example.com/custom"})
	if cfg.URI != "https://example.com/custom" {
		t.Errorf("URI = %q, want the explicit override", cfg.URI)
	}
}

func TestApplyMeterTTLConvertsMillisecondsToDuration(t *testing.T) {
	cfg := parseAndApply(t, []string{"--meter_ttl_ms", "60000"})
	if cfg.MeterTTL != time.Minute {
		t.Errorf("MeterTTL = %v, want 1m", cfg.MeterTTL)
	}
}

func TestApplyCommonTagsOverridesDefaultSet(t *testing.T) {
	cfg := parseAndApply(t, []string{"--common_tags", "nf.app=myapp"})
	if cfg.CommonTags["nf.app"] != "myapp" {
		t.Errorf("CommonTags = %+v, want nf.app=myapp", cfg.CommonTags)
	}
}

func TestApplyNoCommonTagsWinsOverCommonTags(t *testing.T) {
	cfg := parseAndApply(t, []string{"--common_tags", "nf.app=myapp", "--no_common_tags"})
	if len(cfg.CommonTags) != 0 {
		t.Errorf("CommonTags = %+v, want empty (no_common_tags applied after common_tags)", cfg.CommonTags)
	}
	if cfg.StatusMetricsEnabled {
		t.Error("StatusMetricsEnabled should be disabled by --no_common_tags")
	}
}

func TestApplyMalformedCommonTagsIsAnError(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f, err := ParseFlags(fs, cfg, []string{"--common_tags", "malformed"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if err := f.Apply(cfg); err == nil {
		t.Fatal("expected an error applying a malformed --common_tags value")
	}
}
