// Package ioctl encodes and issues ioctl requests on device handles.
package ioctl

import (
	"fmt"
	"unsafe"

	"periph.io/x/host/v3/fs"
)

// Mode is the IOCTL mode.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command to be sent over ioctl.
type Command uint

func (c Command) String() string {
	var (
		mode = Mode(c >> 30 & 0x03)
		size = c >> 16 & 0x3fff
		cmd  = c & 0xffff
		str  string
	)
	if mode&Write > 0 {
		str += " write"
	}
	if mode&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) 0x%04x", str, size, uint(cmd))
}

// Encode an ioctl command for the driver type typ, request number nr and
// argument size.
func Encode(mode Mode, typ byte, nr uint8, size uintptr) Command {
	switch mode {
	case Read:
		return Command(fs.IOR(uint(typ), uint(nr), uint(size)))
	case Write:
		return Command(fs.IOW(uint(typ), uint(nr), uint(size)))
	case Read | Write:
		return Command(fs.IOWR(uint(typ), uint(nr), uint(size)))
	default:
		return Command(fs.IO(uint(typ), uint(nr)))
	}
}

// For encodes a command whose argument is a T.
func For[T any](mode Mode, typ byte, nr uint8) Command {
	var v T
	return Encode(mode, typ, nr, unsafe.Sizeof(v))
}
