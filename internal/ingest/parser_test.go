package ingest

import (
	"testing"
	"time"

	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

func newTestParser() (*Parser, *spectator.Registry) {
	r := spectator.NewRegistry(spectator.RegistryConfig{MeterTTL: time.Minute, GaugeTTL: 90 * time.Second, AgeGaugeLimit: 10})
	return NewParser(r), r
}

func TestParseLineCounter(t *testing.T) {
	p, r := newTestParser()
	if err := p.ParseLine("c:requests,status=200:1"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	c := r.GetCounter(r.CreateId("requests", spectator.NewTags(map[string]string{"status": "200"})))
	if c.Count() != 1 {
		t.Fatalf("Count() = %v, want 1", c.Count())
	}
}

func TestParseLineGaugeWithTTL(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("g,30:temp:98.6"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
}

func TestParseLineGaugeInvalidTTLIsError(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("g,-1:temp:98.6"); err == nil {
		t.Fatal("expected an error for a non-positive gauge TTL")
	}
}

func TestParseLineMonotonicSampledNoExtraIsNoop(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("X:bytes.read:42"); err != nil {
		t.Fatalf("ParseLine with no extra should silently no-op, got error: %v", err)
	}
}

func TestParseLineMonotonicSampledInvalidExtraIsError(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("X,-5:bytes.read:42"); err == nil {
		t.Fatal("expected an error for a non-positive monotonic-sampled timestamp")
	}
}

func TestParseLineMonotonicSampledValidExtra(t *testing.T) {
	p, r := newTestParser()
	if err := p.ParseLine("X,1000:bytes.read:42"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	id := r.CreateId("bytes.read", spectator.Tags{})
	_ = r.GetMonotonicSampled(id) // should already exist from ParseLine
}

func TestParseLineUnsignedMonotonicCounter(t *testing.T) {
	p, r := newTestParser()
	if err := p.ParseLine("U:packets:18446744073709551615"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	m := r.GetMonotonicCounterUint(r.CreateId("packets", spectator.Tags{}))
	_ = m // value stored; Delta is NaN until the first Measure establishes a baseline
}

func TestParseLineUnsignedMonotonicCounterRejectsNegative(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("U:packets:-1"); err == nil {
		t.Fatal("expected an error for a negative unsigned monotonic counter value")
	}
}

func TestParseLineAgeGauge(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("A:backup.age:0"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
}

func TestParseLineUnknownType(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("Z:unknown:1"); err == nil {
		t.Fatal("expected an error for an unknown type code")
	}
}

func TestParseLineMissingSeparator(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("crequests1"); err == nil {
		t.Fatal("expected an error for a line missing the ':' separator")
	}
}

func TestParseLinePercentileTimerReused(t *testing.T) {
	p, _ := newTestParser()
	if err := p.ParseLine("T:latency:0.1"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if err := p.ParseLine("T:latency:0.2"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	timers, _ := p.PercentileCacheSizes()
	if timers != 1 {
		t.Fatalf("percentile timer cache size = %d, want 1 (same Id reused)", timers)
	}
}

func TestParseBatchAggregatesErrors(t *testing.T) {
	p, _ := newTestParser()
	errs := p.ParseNativeBatch([]byte("c:good:1\nZ:bad:1\n"))
	if errs == "" {
		t.Fatal("expected aggregated errors for the malformed line")
	}
}

func TestParseBatchSkipsEmptyLines(t *testing.T) {
	p, _ := newTestParser()
	errs := p.ParseNativeBatch([]byte("\n\nc:good:1\n\n"))
	if errs != "" {
		t.Fatalf("errs = %q, want empty", errs)
	}
}

func TestParseMeasurementTrailingGarbageIsWarningNotError(t *testing.T) {
	id, value, warning, err := parseMeasurement("requests:42abc")
	if err != nil {
		t.Fatalf("parseMeasurement: %v", err)
	}
	if value != 42 {
		t.Errorf("value = %v, want 42", value)
	}
	if warning == "" {
		t.Error("expected a warning for trailing garbage after the value")
	}
	if id.Name() != "requests" {
		t.Errorf("Name() = %q, want requests", id.Name())
	}
}

func TestParseFloatPrefix(t *testing.T) {
	cases := []struct {
		in       string
		want     float64
		consumed int
	}{
		{"42", 42, 2},
		{"-3.5", -3.5, 4},
		{"1.5e3x", 1500, 5},
	}
	for _, c := range cases {
		v, n, err := parseFloatPrefix(c.in)
		if err != nil {
			t.Fatalf("parseFloatPrefix(%q): %v", c.in, err)
		}
		if v != c.want || n != c.consumed {
			t.Errorf("parseFloatPrefix(%q) = (%v, %d), want (%v, %d)", c.in, v, n, c.want, c.consumed)
		}
	}
}
