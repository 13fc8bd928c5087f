package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchemaFile(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadSchemaFile
}

// fileConfig is the JSON shape of an optional config file layer, applied
// on top of Default() and below CLI flags.
type fileConfig struct {
	CommonTags            map[string]string `json:"common_tags"`
	ReadTimeoutMs         *int              `json:"read_timeout_ms"`
	ConnectTimeoutMs      *int              `json:"connect_timeout_ms"`
	BatchSize             *int              `json:"batch_size"`
	FrequencyMs           *int              `json:"frequency_ms"`
	ExpirationFrequencyMs *int              `json:"expiration_frequency_ms"`
	MeterTTLMs            *int              `json:"meter_ttl_ms"`
	AgeGaugeLimit         *int              `json:"age_gauge_limit"`
	URI                   *string           `json:"uri"`
	ExternalURI           *string           `json:"external_uri"`
	MetatronDir           *string           `json:"metatron_dir"`
	ExternalEnabled       *bool             `json:"external_enabled"`
	StatusMetricsEnabled  *bool             `json:"status_metrics_enabled"`
	VerboseHTTP           *bool             `json:"verbose_http"`
}

// LoadFile reads path, validates it against the embedded JSON schema, and
// layers its fields onto cfg. A missing file is not an error; spectatord
// runs fine on built-in defaults plus flags alone.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	if err := validate(raw); err != nil {
		return fmt.Errorf("config file %s failed schema validation: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	fc.apply(cfg)
	return nil
}

func validate(raw []byte) error {
	s, err := jsonschema.Compile("embedFS://schemas/config.schema.json")
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.CommonTags != nil {
		cfg.CommonTags = fc.CommonTags
	}
	if fc.ReadTimeoutMs != nil {
		cfg.ReadTimeout = time.Duration(*fc.ReadTimeoutMs) * time.Millisecond
	}
	if fc.ConnectTimeoutMs != nil {
		cfg.ConnectTimeout = time.Duration(*fc.ConnectTimeoutMs) * time.Millisecond
	}
	if fc.BatchSize != nil {
		cfg.BatchSize = *fc.BatchSize
	}
	if fc.FrequencyMs != nil {
		cfg.Frequency = time.Duration(*fc.FrequencyMs) * time.Millisecond
	}
	if fc.ExpirationFrequencyMs != nil {
		cfg.ExpirationFrequency = time.Duration(*fc.ExpirationFrequencyMs) * time.Millisecond
	}
	if fc.MeterTTLMs != nil {
		cfg.MeterTTL = time.Duration(*fc.MeterTTLMs) * time.Millisecond
	}
	if fc.AgeGaugeLimit != nil {
		cfg.AgeGaugeLimit = *fc.AgeGaugeLimit
	}
	if fc.URI != nil {
		cfg.URI = *fc.URI
	}
	if fc.ExternalURI != nil {
		cfg.ExternalURI = *fc.ExternalURI
	}
	if fc.MetatronDir != nil {
		cfg.MetatronDir = *fc.MetatronDir
	}
	if fc.ExternalEnabled != nil {
		cfg.ExternalEnabled = *fc.ExternalEnabled
	}
	if fc.StatusMetricsEnabled != nil {
		cfg.StatusMetricsEnabled = *fc.StatusMetricsEnabled
	}
	if fc.VerboseHTTP != nil {
		cfg.VerboseHTTP = *fc.VerboseHTTP
	}
}
