package framebuffer

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"

	"github.com/BeatGlow/screen/internal/ioctl"
)

// From <linux/fb.h>
const (
	fbioGetVScreenInfo ioctl.Command = 0x4600
	fbioPutVScreenInfo ioctl.Command = 0x4601
	fbioGetFScreenInfo ioctl.Command = 0x4602
	fbioPanDisplay     ioctl.Command = 0x4606
)

// File is an open fbdev device node.
type File struct {
	*fs.File
}

// OpenFile opens the framebuffer device node at path.
func OpenFile(path string) (*File, error) {
	f, err := fs.Open(path, os.O_RDWR|unix.O_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &File{File: f}, nil
}

func openDevice(path string) (Device, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) VarScreenInfo() (vi VarScreenInfo, err error) {
	err = ioctl.Do(f.File, fbioGetVScreenInfo, unsafe.Pointer(&vi))
	return
}

func (f *File) SetVarScreenInfo(vi *VarScreenInfo) error {
	return ioctl.Do(f.File, fbioPutVScreenInfo, unsafe.Pointer(vi))
}

func (f *File) FixScreenInfo() (fi FixScreenInfo, err error) {
	err = ioctl.Do(f.File, fbioGetFScreenInfo, unsafe.Pointer(&fi))
	return
}

func (f *File) Pan(vi *VarScreenInfo) error {
	return ioctl.Do(f.File, fbioPanDisplay, unsafe.Pointer(vi))
}

func (f *File) Map(size int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (f *File) Unmap(b []byte) error {
	return unix.Munmap(b)
}
