//go:build linux

package config

// enableSocketDefault is true on Linux, matching spectatord_main.cc's
// platform-conditional default for --enable_socket.
func enableSocketDefault() bool { return true }
