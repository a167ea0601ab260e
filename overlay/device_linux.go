package overlay

import (
	"unsafe"

	"github.com/BeatGlow/screen/framebuffer"
	"github.com/BeatGlow/screen/internal/ioctl"
)

const msmfbMagic = 'm'

// struct msmfb_data
type sysMsmfbData struct {
	offset   uint32
	memoryID int32
	id       int32
	flags    uint32
	priv     uint32
	iova     uint32
}

// struct msmfb_overlay_data
type sysOverlayData struct {
	id         uint32
	data       sysMsmfbData
	versionKey uint32
	plane1     sysMsmfbData
	plane2     sysMsmfbData
	dst        sysMsmfbData
}

var (
	ioctlOverlayUnset = ioctl.For[uint32](ioctl.Write, msmfbMagic, 136)
	ioctlOverlayPlay  = ioctl.For[sysOverlayData](ioctl.Write, msmfbMagic, 137)
)

// File is a framebuffer device node with the MDP overlay interface. The
// request sizes of MSMFB_OVERLAY_SET and MSMFB_DISPLAY_COMMIT differ between
// kernels and are taken from the configuration.
type File struct {
	*framebuffer.File

	overlaySize int
	commitSize  int
	setCmd      ioctl.Command
	commitCmd   ioctl.Command
}

// OpenFile opens the framebuffer device node at path.
func OpenFile(path string, overlaySize, commitSize int) (*File, error) {
	f, err := framebuffer.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &File{
		File:        f,
		overlaySize: overlaySize,
		commitSize:  commitSize,
		setCmd:      ioctl.Encode(ioctl.Read|ioctl.Write, msmfbMagic, 135, uintptr(overlaySize)),
		commitCmd:   ioctl.Encode(ioctl.Write, msmfbMagic, 164, uintptr(commitSize)),
	}, nil
}

func openDevice(config *Config) (Device, error) {
	f, err := OpenFile(config.Device, config.OverlaySize, config.CommitSize)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) SetOverlay(r *Request) error {
	buf := make([]byte, f.overlaySize)
	r.Put(buf)
	if err := ioctl.Do(f.File, f.setCmd, unsafe.Pointer(&buf[0])); err != nil {
		return err
	}
	r.ID = ReadID(buf)
	return nil
}

func (f *File) UnsetOverlay(id uint32) error {
	return ioctl.Do(f.File, ioctlOverlayUnset, unsafe.Pointer(&id))
}

func (f *File) Play(id uint32, memoryFD int) error {
	data := sysOverlayData{
		id:   id,
		data: sysMsmfbData{memoryID: int32(memoryFD)},
	}
	return ioctl.Do(f.File, ioctlOverlayPlay, unsafe.Pointer(&data))
}

func (f *File) Commit(wait bool) error {
	buf := make([]byte, f.commitSize)
	putCommit(buf, wait)
	return ioctl.Do(f.File, f.commitCmd, unsafe.Pointer(&buf[0]))
}
