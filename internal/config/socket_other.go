//go:build !linux

package config

// enableSocketDefault is false outside Linux (no AF_UNIX datagram
// sockets on Windows; disabled by default on macOS too, matching
// spectatord_main.cc).
func enableSocketDefault() bool { return false }
