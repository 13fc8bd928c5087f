// Package procstat reads the few /proc entries spectatord uses to self-report
// on the health of its UDP listeners: the configured socket receive buffer
// ceiling, and per-port drop/queue-depth counters straight from the kernel's
// UDP socket table.
package procstat

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

const defaultMaxBufferSize = 16 * 1024 * 1024

// MaxBufferSize reads the system's UDP receive buffer ceiling from
// /proc/sys/net/core/rmem_max, falling back to a 16MiB default on any
// platform or permission error (e.g. non-Linux, or a sandboxed container
// without /proc).
func MaxBufferSize(procFile string) int {
	data, err := os.ReadFile(procFile)
	if err != nil {
		return defaultMaxBufferSize
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n <= 0 {
		return defaultMaxBufferSize
	}
	return n
}

// UDPInfo is the subset of /proc/net/udp's per-socket row spectatord cares
// about for a given local port: how many bytes are sitting unread in the
// kernel receive queue, and how many inbound datagrams the kernel has
// dropped because the application wasn't reading fast enough.
type UDPInfo struct {
	NumDropped   int64
	RxQueueBytes int64
}

// ReadUDPInfo scans procFile (normally /proc/net/udp) for the row matching
// port and returns its queue depth and drop count. It returns (UDPInfo{},
// false) if the port has no matching row, or the file can't be read (most
// non-Linux platforms).
func ReadUDPInfo(procFile string, port int) (UDPInfo, bool) {
	f, err := os.Open(procFile)
	if err != nil {
		return UDPInfo{}, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return UDPInfo{}, false // header line, discarded
	}

	for scanner.Scan() {
		fields := strings.FieldsFunc(scanner.Text(), func(r rune) bool {
			return r == ' ' || r == ':' || r == '\n'
		})
		if len(fields) < 17 {
			continue
		}
		curPort, err := strconv.ParseInt(fields[2], 16, 64)
		if err != nil || int(curPort) != port {
			continue
		}

		rxQueue, _ := strconv.ParseUint(fields[7], 16, 64)
		dropped, _ := strconv.ParseUint(fields[16], 10, 64)
		return UDPInfo{NumDropped: int64(dropped), RxQueueBytes: int64(rxQueue)}, true
	}
	return UDPInfo{}, false
}
