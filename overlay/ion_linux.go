package overlay

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"

	"github.com/BeatGlow/screen/internal/ioctl"
)

const ionMagic = 'I'

// Structures from the legacy <linux/ion.h> interface.
type (
	sysIonAllocation struct {
		len      uintptr
		align    uintptr
		heapMask uint32
		flags    uint32
		handle   int32
	}

	sysIonHandle struct {
		handle int32
	}

	sysIonFD struct {
		handle int32
		fd     int32
	}
)

var (
	ioctlIonAlloc = ioctl.For[sysIonAllocation](ioctl.Read|ioctl.Write, ionMagic, 0)
	ioctlIonFree  = ioctl.For[sysIonHandle](ioctl.Read|ioctl.Write, ionMagic, 1)
	ioctlIonMap   = ioctl.For[sysIonFD](ioctl.Read|ioctl.Write, ionMagic, 2)
)

// Ion is an open ION allocator.
type Ion struct {
	*fs.File
	heapMask uint32
}

// OpenIon opens the ION device node at path.
func OpenIon(path string, heapMask uint32) (*Ion, error) {
	f, err := fs.Open(path, os.O_RDWR|unix.O_DSYNC|unix.O_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Ion{File: f, heapMask: heapMask}, nil
}

func openAllocator(config *Config) (Allocator, error) {
	ion, err := OpenIon(config.Allocator, config.HeapMask)
	if err != nil {
		return nil, err
	}
	return ion, nil
}

// Alloc allocates size bytes of page aligned memory and maps it.
func (ion *Ion) Alloc(size int) (_ *Buffer, err error) {
	data := sysIonAllocation{
		len:      uintptr(size),
		align:    uintptr(os.Getpagesize()),
		heapMask: ion.heapMask,
	}
	if err = ioctl.Do(ion.File, ioctlIonAlloc, unsafe.Pointer(&data)); err != nil {
		return nil, err
	}
	buf := &Buffer{Handle: data.handle, FD: -1}
	defer func() {
		if err != nil {
			_ = ion.Free(buf)
		}
	}()

	share := sysIonFD{handle: data.handle}
	if err = ioctl.Do(ion.File, ioctlIonMap, unsafe.Pointer(&share)); err != nil {
		return nil, err
	}
	buf.FD = int(share.fd)

	if buf.Mem, err = unix.Mmap(buf.FD, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED); err != nil {
		return nil, fmt.Errorf("ion: map %d bytes: %w", size, err)
	}
	return buf, nil
}

// Free unmaps buf, frees its handle and closes the shared descriptor.
func (ion *Ion) Free(buf *Buffer) error {
	var errs []error
	if buf.Mem != nil {
		if err := unix.Munmap(buf.Mem); err != nil {
			errs = append(errs, err)
		}
		buf.Mem = nil
	}
	handle := sysIonHandle{handle: buf.Handle}
	if err := ioctl.Do(ion.File, ioctlIonFree, unsafe.Pointer(&handle)); err != nil {
		errs = append(errs, err)
	}
	if buf.FD >= 0 {
		if err := unix.Close(buf.FD); err != nil {
			errs = append(errs, err)
		}
		buf.FD = -1
	}
	return errors.Join(errs...)
}
