//go:build windows

package ingest

// Windows has no umask and no Unix domain datagram sockets; this is a
// no-op so the package still builds there for development purposes.
func syscallUmask(int) int { return 0 }
