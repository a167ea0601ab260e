package ioctl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Fder is an open device handle.
type Fder interface {
	Fd() uintptr
}

// Do issues command with a pointer argument. ptr may be nil.
//
// ptr is converted to uintptr inside the syscall expression, so the argument
// stays pinned until the kernel is done with it.
func Do(f Fder, command Command, ptr unsafe.Pointer) error {
	fd := f.Fd()
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(command), uintptr(ptr)); errno != 0 {
		return fmt.Errorf("%s failed: %w", command, errno)
	}
	return nil
}
