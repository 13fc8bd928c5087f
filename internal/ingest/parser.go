// Package ingest implements spectatord's two wire protocols (the native
// line protocol and a statsd-compatible subset), the UDP and Unix-domain
// datagram servers that feed them, and the percentile composite cache and
// upkeep loop that support them.
package ingest

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

const (
	percentileCacheExpiry = 120 * time.Second
	minPercTimer          = time.Nanosecond
	maxPercTimer          = 24 * time.Hour
)

// Parser turns native and statsd protocol lines into Registry updates. It
// owns the percentile composite caches, since a PercentileTimer or
// PercentileDistributionSummary is a thin wrapper the parser needs to reuse
// across lines reporting the same Id rather than rebuild on every update.
type Parser struct {
	registry *spectator.Registry

	percTimers *spectator.ExpiringCache[*spectator.PercentileTimer]
	percDist   *spectator.ExpiringCache[*spectator.PercentileDistributionSummary]

	parsedCount *spectator.Counter
	parseErrors *spectator.Counter
}

// NewParser builds a Parser bound to registry.
func NewParser(registry *spectator.Registry) *Parser {
	return &Parser{
		registry:    registry,
		percTimers:  spectator.NewExpiringCache[*spectator.PercentileTimer](percentileCacheExpiry),
		percDist:    spectator.NewExpiringCache[*spectator.PercentileDistributionSummary](percentileCacheExpiry),
		parsedCount: registry.GetCounter(registry.CreateId("spectatord.parsedCount", spectator.Tags{})),
		parseErrors: registry.GetCounter(registry.CreateId("spectatord.parseErrors", spectator.Tags{})),
	}
}

// PercentileCacheSizes reports (size, for the timer and dist-summary
// composite caches respectively, used by Upkeep's self-metrics.
func (p *Parser) PercentileCacheSizes() (timers, distSummaries int) {
	return p.percTimers.Size(), p.percDist.Size()
}

// ExpirePercentileCaches sweeps both composite caches and returns, for the
// timer cache and then the dist-summary cache, the size before the sweep
// and the number of entries removed.
func (p *Parser) ExpirePercentileCaches() (timersSize, timersExpired, dsSize, dsExpired int) {
	timersSize, timersExpired = p.percTimers.Expire()
	dsSize, dsExpired = p.percDist.Expire()
	return
}

// ParseNativeBatch feeds every newline-separated, non-empty line in data
// through ParseLine, aggregating per-line errors into a single newline
// joined message. A batch with no errors returns "".
func (p *Parser) ParseNativeBatch(data []byte) string {
	return p.parseBatch(data, p.ParseLine)
}

// ParseStatsdBatch is ParseNativeBatch for the statsd protocol.
func (p *Parser) ParseStatsdBatch(data []byte) string {
	return p.parseBatch(data, p.ParseStatsdLine)
}

func (p *Parser) parseBatch(data []byte, lineFn func(string) error) string {
	var errs []byte
	start := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != '\n' {
			continue
		}
		line := data[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		if err := lineFn(string(line)); err != nil {
			p.parseErrors.Increment()
			if len(errs) > 0 {
				errs = append(errs, '\n')
			}
			errs = append(errs, err.Error()...)
		} else {
			p.parsedCount.Increment()
		}
	}
	return string(errs)
}

// ParseLine parses one native protocol line:
//
//	<type>[,<extra>]:<name>[,<k>=<v>...]:<value>
//
// and applies it to the Registry. extra is a TTL in seconds for gauges ('g')
// or a required positive milliseconds-since-epoch timestamp for monotonic
// sampled sources ('X').
func (p *Parser) ParseLine(line string) error {
	if len(line) == 0 {
		return fmt.Errorf("empty line")
	}
	typeByte := line[0]
	rest := line[1:]

	var extra int64
	if len(rest) > 0 && rest[0] == ',' {
		n, tail, ok := parseIntPrefix(rest[1:])
		if !ok {
			return fmt.Errorf("invalid extra value in line: %q", line)
		}
		extra = n
		rest = tail
		if extra <= 0 {
			switch typeByte {
			case 'g':
				return fmt.Errorf("invalid ttl specified for gauge")
			case 'X':
				return fmt.Errorf("invalid timestamp specified for monotonic sampled source")
			}
		}
	}
	if len(rest) == 0 || rest[0] != ':' {
		return fmt.Errorf("expecting separator ':' in line: %q", line)
	}
	rest = rest[1:]

	id, value, warning, err := parseMeasurement(rest)
	if err != nil {
		return err
	}
	if warning != "" {
		log.Infof("while parsing %q: %s", rest, warning)
	}

	switch typeByte {
	case 'c':
		p.registry.GetCounter(id).Add(value)
	case 'C':
		p.registry.GetMonotonicCounter(id).Set(value)
	case 'U':
		if value < 0 {
			return fmt.Errorf("negative value for unsigned monotonic counter: %v", value)
		}
		p.registry.GetMonotonicCounterUint(id).Set(uint64(value))
	case 'g':
		if extra > 0 {
			ttl := time.Duration(extra) * time.Second
			g := p.registry.GetGaugeTTL(id, ttl)
			g.SetTTL(ttl)
			g.Set(value)
		} else {
			// preserves whatever TTL an earlier line set; the default
			// constructor would otherwise reset it.
			p.registry.GetGauge(id).Set(value)
		}
	case 'm':
		p.registry.GetMaxGauge(id).Update(value)
	case 'd':
		p.registry.GetDistSummary(id).Record(value)
	case 't':
		p.registry.GetTimer(id).Record(time.Duration(value * 1e9))
	case 'T':
		pt := p.percTimers.GetOrCreate(id, func() *spectator.PercentileTimer {
			return p.registry.PercentileTimer(id, minPercTimer, maxPercTimer)
		})
		pt.Record(time.Duration(value * 1e9))
	case 'D':
		pd := p.percDist.GetOrCreate(id, func() *spectator.PercentileDistributionSummary {
			return p.registry.PercentileDistSummary(id, math.MinInt64, math.MaxInt64)
		})
		pd.Record(int64(value))
	case 'X':
		if extra > 0 {
			nanos := extra * 1_000_000
			p.registry.GetMonotonicSampled(id).Set(value, nanos)
		}
	case 'A':
		p.registry.GetAgeGauge(id).UpdateLastSuccess(0)
	default:
		return fmt.Errorf("unknown type: %c", typeByte)
	}

	return nil
}

// parseMeasurement parses "<name>[,<k>=<v>...]:<value>[ trailing garbage]"
// into an Id and a value. A non-empty warning is returned (not an error)
// when trailing non-whitespace text follows the value.
func parseMeasurement(s string) (spectator.Id, float64, string, error) {
	pos := indexNameEnd(s)
	if pos <= 0 {
		return spectator.Id{}, 0, "", fmt.Errorf("missing name")
	}
	name := s[:pos]

	tags := spectator.Tags{}
	if s[pos] == ',' {
		for pos < len(s) && s[pos] != ':' {
			pos++
			eq := indexByteFrom(s, '=', pos)
			if eq < 0 {
				break
			}
			key := s[pos:eq]
			vStart := eq + 1
			vEnd := indexNameEndFrom(s, vStart)
			if vEnd < 0 {
				return spectator.Id{}, 0, "", fmt.Errorf("missing value")
			}
			tags.Add(key, s[vStart:vEnd])
			pos = vEnd
		}
	}
	if pos >= len(s) || s[pos] != ':' {
		return spectator.Id{}, 0, "", fmt.Errorf("missing value separator")
	}
	pos++

	valueStr := s[pos:]
	value, consumed, err := parseFloatPrefix(valueStr)
	if err != nil {
		return spectator.Id{}, 0, "", fmt.Errorf("unable to parse value for measurement: %q", valueStr)
	}

	var warning string
	if trailing := valueStr[consumed:]; trailing != "" && !isAllWhitespace(trailing) {
		warning = fmt.Sprintf("got %v parsing value, ignoring chars starting at %q", value, trailing)
	}

	return spectator.NewId(name, tags), value, warning, nil
}

func indexNameEnd(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' || s[i] == ':' {
			return i
		}
	}
	return -1
}

func indexNameEndFrom(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == ',' || s[i] == ':' {
			return i
		}
	}
	return -1
}

func indexByteFrom(s string, b byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func isAllWhitespace(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\r' && r != '\n' {
			return false
		}
	}
	return true
}

// parseIntPrefix parses a leading signed decimal integer, returning the
// value, the unconsumed remainder, and whether any digits were found.
func parseIntPrefix(s string) (int64, string, bool) {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, s, false
	}
	v, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, s, false
	}
	return v, s[i:], true
}

// parseFloatPrefix parses a leading decimal float (with optional exponent),
// returning the value and how many bytes of s were consumed.
func parseFloatPrefix(s string) (float64, int, error) {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	hasDigits := false
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		hasDigits = true
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			hasDigits = true
		}
	}
	if !hasDigits {
		return 0, 0, fmt.Errorf("no digits in %q", s)
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < n && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, 0, err
	}
	return v, i, nil
}
