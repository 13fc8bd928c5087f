package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

// ParseStatsdLine parses one line of the dogstatsd-flavored protocol:
//
//	<name>:<value>|<type>[|@<rate>][|#<tag>[,<tag>...]]
//
// type is one of c (counter), g (gauge), h (histogram, mapped to a
// DistributionSummary), ms (timing, mapped to a Timer), or s (set
// cardinality, logged and ignored). A bare tag with no ':' (e.g. "#shell")
// is recorded as tag=1, matching datadog's marker-tag convention.
func (p *Parser) ParseStatsdLine(line string) error {
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return fmt.Errorf("invalid format: name is required")
	}
	name := line[:colon]
	rest := line[colon+1:]

	value, consumed, err := parseFloatPrefix(rest)
	if err != nil {
		return fmt.Errorf("unable to parse value starting at %q", rest)
	}
	rest = rest[consumed:]

	if len(rest) == 0 || rest[0] != '|' {
		return fmt.Errorf("invalid format: expected '|' for name=%s", name)
	}
	rest = rest[1:]

	var kind byte
	switch {
	case strings.HasPrefix(rest, "ms"):
		kind = 'm'
		rest = rest[2:]
	case len(rest) > 0 && (rest[0] == 'c' || rest[0] == 'g' || rest[0] == 'h' || rest[0] == 's'):
		kind = rest[0]
		rest = rest[1:]
	default:
		return fmt.Errorf("invalid type for name=%s", name)
	}

	samplingRate := 1.0
	tags := spectator.Tags{}

	if len(rest) > 0 && rest[0] == '|' {
		rest = rest[1:]
		if len(rest) > 0 && rest[0] == '@' {
			rest = rest[1:]
			rate, consumed, err := parseFloatPrefix(rest)
			if err != nil || rate <= 0 || rate > 1 {
				return fmt.Errorf("invalid sampling rate for name=%s", name)
			}
			samplingRate = rate
			rest = rest[consumed:]
			if len(rest) > 0 && rest[0] == '|' {
				rest = rest[1:]
			}
		}
		if len(rest) > 0 && rest[0] == '#' {
			rest = rest[1:]
			for _, pair := range strings.Split(rest, ",") {
				if pair == "" {
					return fmt.Errorf("invalid tags for name=%s", name)
				}
				if idx := strings.IndexByte(pair, ':'); idx >= 0 {
					k, v := pair[:idx], pair[idx+1:]
					if k == "" || v == "" {
						return fmt.Errorf("invalid tags for name=%s", name)
					}
					tags.Add(k, v)
				} else {
					tags.Add(pair, "1")
				}
			}
		}
	}

	id := spectator.NewId(name, tags)

	switch kind {
	case 'c':
		p.registry.GetCounter(id).Add(value / samplingRate)
	case 'g':
		p.registry.GetGauge(id).Set(value)
	case 'h':
		repeats := int(math.Round(1 / samplingRate))
		ds := p.registry.GetDistSummary(id)
		for i := 0; i < repeats; i++ {
			ds.Record(value)
		}
	case 'm':
		repeats := int(math.Round(1 / samplingRate))
		nanos := time.Duration(math.Round(value * 1e6))
		timer := p.registry.GetTimer(id)
		for i := 0; i < repeats; i++ {
			timer.Record(nanos)
		}
	case 's':
		log.Infof("ignoring set cardinality metric for %s", id.Key())
	}

	return nil
}
