package config

import (
	"flag"
	"fmt"
	"time"
)

// Flags holds the raw values parsed off the command line, mirroring every
// ABSL_FLAG declared in original_source/bin/spectatord_main.cc.
type Flags struct {
	Port          int
	EnableStatsd  bool
	StatsdPort    int
	AdminPort     int
	EnableSocket  bool
	SocketPath    string
	URI           string
	MeterTTLMs    int
	AgeGaugeLimit int
	CommonTags    string
	NoCommonTags  bool
	Verbose       bool
	VerboseHTTP   bool
	Debug         bool
}

// ParseFlags registers and parses the daemon's CLI flags against fs (pass
// flag.CommandLine in production, a fresh flag.FlagSet in tests), seeding
// defaults from def.
func ParseFlags(fs *flag.FlagSet, def *Config, args []string) (*Flags, error) {
	f := &Flags{}
	fs.IntVar(&f.Port, "port", def.Port, "Port number for the UDP socket.")
	fs.BoolVar(&f.EnableStatsd, "enable_statsd", false, "Enable statsd support.")
	fs.IntVar(&f.StatsdPort, "statsd_port", def.StatsdPort, "Port number for the statsd socket.")
	fs.IntVar(&f.AdminPort, "admin_port", def.AdminPort, "Port number for the admin server.")
	fs.BoolVar(&f.EnableSocket, "enable_socket", def.EnableSocket,
		"Enable UNIX domain socket support. Default is true on Linux and false on MacOS and Windows.")
	fs.StringVar(&f.SocketPath, "socket_path", def.SocketPath, "Path to the UNIX domain socket.")
	fs.StringVar(&f.URI, "uri", "", "Optional override URI for the aggregator.")
	fs.IntVar(&f.MeterTTLMs, "meter_ttl_ms", int(def.MeterTTL.Milliseconds()),
		"Meter TTL in milliseconds: expire meters after this period of inactivity.")
	fs.IntVar(&f.AgeGaugeLimit, "age_gauge_limit", def.AgeGaugeLimit,
		"The maximum number of age gauges that may be reported by this process.")
	fs.StringVar(&f.CommonTags, "common_tags", "",
		"Common tags: nf.app=app,nf.cluster=cluster. Override the default common tags.")
	fs.BoolVar(&f.NoCommonTags, "no_common_tags", false,
		"No common tags will be provided for metrics; also disables internal status metrics.")
	fs.BoolVar(&f.Verbose, "verbose", false, "Use verbose logging.")
	fs.BoolVar(&f.VerboseHTTP, "verbose_http", false, "Output debug info for HTTP requests.")
	fs.BoolVar(&f.Debug, "debug", false,
		"Debug spectatord. All values will be sent to a dev aggregator and dropped.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.Port < 1 || f.Port > 65535 {
		return nil, fmt.Errorf("--port: not in range [1,65535]")
	}
	if f.StatsdPort < 1 || f.StatsdPort > 65535 {
		return nil, fmt.Errorf("--statsd_port: not in range [1,65535]")
	}
	if f.AdminPort < 1 || f.AdminPort > 65535 {
		return nil, fmt.Errorf("--admin_port: not in range [1,65535]")
	}
	return f, nil
}

// Apply overlays parsed flags onto cfg, in the exact precedence order
// spectatord_main.cc's main() applies them: debug forces the dev
// aggregator URI, else an explicit --uri overrides it; verbose_http,
// meter_ttl, age_gauge_limit always apply; common_tags overrides the
// default set only if non-empty; no_common_tags clears tags and disables
// status metrics, taking priority over --common_tags.
func (f *Flags) Apply(cfg *Config) error {
	cfg.Port = f.Port
	cfg.EnableStatsd = f.EnableStatsd
	cfg.StatsdPort = f.StatsdPort
	cfg.AdminPort = f.AdminPort
	cfg.EnableSocket = f.EnableSocket
	cfg.SocketPath = f.SocketPath

	if f.Debug {
		cfg.URI = DefaultDebugURI
	} else if f.URI != "" {
		cfg.URI = f.URI
	}

	if f.VerboseHTTP {
		cfg.VerboseHTTP = true
	}
	cfg.Verbose = f.Verbose
	cfg.MeterTTL = time.Duration(f.MeterTTLMs) * time.Millisecond
	cfg.AgeGaugeLimit = f.AgeGaugeLimit

	if f.CommonTags != "" {
		tags, err := ParseCommonTags(f.CommonTags)
		if err != nil {
			return err
		}
		cfg.CommonTags = tags
	}

	if f.NoCommonTags {
		cfg.CommonTags = map[string]string{}
		cfg.StatusMetricsEnabled = false
	}

	return nil
}
