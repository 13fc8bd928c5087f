//go:build !windows

package ingest

import "syscall"

func syscallUmask(mask int) int {
	return syscall.Umask(mask)
}
