// Package config holds spectatord's effective configuration: the fields
// the Registry and Publisher need directly, plus daemon-level fields
// (listening ports, socket path) that config.h leaves to main() in the
// upstream daemon. Defaults mirror original_source/spectator/config.h and
// the Internal NFLX defaults noted in original_source/admin/admin_server_test.cc.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Default values. BatchSize, Frequency are the "Internal NFLX default"
// values used by the upstream test suite's GetConfiguration(); the rest
// come from spectator/config.h's zero-value-safe fields or spectatord_main.cc's
// flag defaults.
const (
	DefaultURI                 = "https://atlas-aggr-publish.prod.netflix.net/api/v4/update"
	DefaultDebugURI            = "https://atlas-aggr-dev.us-east-1.ieptest.netflix.net/api/v4/update"
	DefaultReadTimeout         = time.Second
	DefaultConnectTimeout      = time.Second
	DefaultBatchSize           = 10000
	DefaultFrequency           = 5 * time.Second
	DefaultExpirationFrequency = 5 * time.Second
	DefaultMeterTTL            = 15 * time.Minute
	DefaultAgeGaugeLimit       = 1000
	DefaultGaugeTTL            = 90 * time.Second

	DefaultPort        = 1234
	DefaultAdminPort   = 1234
	DefaultStatsdPort  = 8125
	DefaultSocketPath  = "/run/spectatord/spectatord.unix"
)

// Config is spectatord's effective, fully-resolved configuration: what
// the Registry and Publisher need (mirroring spectator/config.h), plus
// the daemon-level fields spectatord_main.cc wires from CLI flags.
type Config struct {
	CommonTags           map[string]string
	ReadTimeout          time.Duration
	ConnectTimeout       time.Duration
	BatchSize            int
	Frequency            time.Duration
	ExpirationFrequency  time.Duration
	MeterTTL             time.Duration
	GaugeTTL             time.Duration
	AgeGaugeLimit        int
	URI                  string
	ExternalURI          string
	MetatronDir          string
	ProcessName          string
	ExternalEnabled      bool
	StatusMetricsEnabled bool
	VerboseHTTP          bool

	Port         int
	AdminPort    int
	EnableStatsd bool
	StatsdPort   int
	EnableSocket bool
	SocketPath   string

	Verbose bool
}

// Default returns a Config populated with spectatord's built-in defaults;
// callers then layer a JSON file and CLI flags on top of it, the same
// override order the teacher's cmd/cc-backend/main.go uses for file-vs-flag
// precedence. Environment variables are not consulted.
func Default() *Config {
	return &Config{
		CommonTags:           map[string]string{},
		ReadTimeout:          DefaultReadTimeout,
		ConnectTimeout:       DefaultConnectTimeout,
		BatchSize:            DefaultBatchSize,
		Frequency:            DefaultFrequency,
		ExpirationFrequency:  DefaultExpirationFrequency,
		MeterTTL:             DefaultMeterTTL,
		GaugeTTL:             DefaultGaugeTTL,
		AgeGaugeLimit:        DefaultAgeGaugeLimit,
		URI:                  DefaultURI,
		StatusMetricsEnabled: true,

		Port:         DefaultPort,
		AdminPort:    DefaultAdminPort,
		StatsdPort:   DefaultStatsdPort,
		SocketPath:   DefaultSocketPath,
		EnableSocket: enableSocketDefault(),
	}
}

// ParseCommonTags parses the CLI "k=v,k2=v2" common-tags syntax used
// by spectatord_main.cc's --common_tags flag. Every pair must have a
// non-empty key and value; a malformed pair is a fatal configuration
// error in the upstream daemon (exit(EXIT_FAILURE)), surfaced here as an
// error for the caller to act on instead.
func ParseCommonTags(s string) (map[string]string, error) {
	tags := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, fmt.Errorf("invalid common tags specified: %q", s)
		}
		tags[kv[0]] = kv[1]
	}
	return tags, nil
}

// Describe produces the JSON-serializable view GET /config returns,
// matching admin_server.cc's GET_config field set and millisecond
// convention for durations.
func (c *Config) Describe() map[string]any {
	return map[string]any{
		"common_tags":            c.CommonTags,
		"read_timeout":           float64(c.ReadTimeout.Milliseconds()),
		"connect_timeout":        float64(c.ConnectTimeout.Milliseconds()),
		"batch_size":             c.BatchSize,
		"frequency":              float64(c.Frequency.Milliseconds()),
		"expiration_frequency":   float64(c.ExpirationFrequency.Milliseconds()),
		"meter_ttl":              float64(c.MeterTTL.Milliseconds()),
		"age_gauge_limit":        c.AgeGaugeLimit,
		"uri":                    c.URI,
		"metatron_dir":           c.MetatronDir,
		"external_enabled":       c.ExternalEnabled,
		"status_metrics_enabled": c.StatusMetricsEnabled,
	}
}
