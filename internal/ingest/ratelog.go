package ingest

import (
	"golang.org/x/time/rate"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
)

// errLogLimiter throttles the "error receiving" log line emitted by the UDP
// and UDS read loops. A socket wedged in a read-error state (e.g. a
// transient EMFILE) would otherwise spin the loop and flood the log at line
// rate; one log line per second is enough to diagnose the problem without
// drowning it out.
var errLogLimiter = rate.NewLimiter(rate.Limit(1), 1)

func logRecvError(name string, err error) {
	if errLogLimiter.Allow() {
		log.Errorf("%s: error receiving: %v", name, err)
	}
}
