//go:build linux

package logger

import (
	"syscall"
	"unsafe"
)

// tcgets is the Linux ioctl request number for reading terminal attributes.
// BSD-family systems use a different request number; see terminal_bsd.go.
const tcgets = 0x5401

// isTerminal checks if the file descriptor is a terminal on Linux, the
// platform safesecd actually ships on.
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, err := syscall.Syscall6(
		syscall.SYS_IOCTL,
		fd,
		tcgets,
		uintptr(unsafe.Pointer(&termios)),
		0, 0, 0,
	)
	return err == 0
}
