package drm

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"

	"github.com/BeatGlow/screen/internal/ioctl"
)

// Kernel structures from <drm/drm.h> and <drm/drm_mode.h>.
type (
	sysGetCap struct {
		capability uint64
		value      uint64
	}

	sysResources struct {
		fbIDPtr              uint64
		crtcIDPtr            uint64
		connectorIDPtr       uint64
		encoderIDPtr         uint64
		countFbs             uint32
		countCrtcs           uint32
		countConnectors      uint32
		countEncoders        uint32
		minWidth, maxWidth   uint32
		minHeight, maxHeight uint32
	}

	sysGetConnector struct {
		encodersPtr   uint64
		modesPtr      uint64
		propsPtr      uint64
		propValuesPtr uint64

		countModes    uint32
		countProps    uint32
		countEncoders uint32

		encoderID       uint32
		connectorID     uint32
		connectorType   uint32
		connectorTypeID uint32

		connection        uint32
		mmWidth, mmHeight uint32
		subpixel          uint32
		pad               uint32
	}

	sysGetEncoder struct {
		encoderID      uint32
		encoderType    uint32
		crtcID         uint32
		possibleCrtcs  uint32
		possibleClones uint32
	}

	sysCrtc struct {
		setConnectorsPtr uint64
		countConnectors  uint32

		crtcID uint32
		fbID   uint32

		x, y uint32

		gammaSize uint32
		modeValid uint32
		mode      ModeInfo
	}

	sysCreateDumb struct {
		height, width uint32
		bpp           uint32
		flags         uint32

		handle uint32
		pitch  uint32
		size   uint64
	}

	sysMapDumb struct {
		handle uint32
		pad    uint32
		offset uint64
	}

	sysDestroyDumb struct {
		handle uint32
	}

	sysFBCmd2 struct {
		fbID          uint32
		width, height uint32
		pixelFormat   uint32
		flags         uint32
		handles       [4]uint32
		pitches       [4]uint32
		offsets       [4]uint32
		modifier      [4]uint64
	}

	sysPageFlip struct {
		crtcID   uint32
		fbID     uint32
		flags    uint32
		reserved uint32
		userData uint64
	}
)

const ioctlBase = 'd'

var (
	ioctlGetCap       = ioctl.For[sysGetCap](ioctl.Read|ioctl.Write, ioctlBase, 0x0C)
	ioctlGetResources = ioctl.For[sysResources](ioctl.Read|ioctl.Write, ioctlBase, 0xA0)
	ioctlGetCrtc      = ioctl.For[sysCrtc](ioctl.Read|ioctl.Write, ioctlBase, 0xA1)
	ioctlSetCrtc      = ioctl.For[sysCrtc](ioctl.Read|ioctl.Write, ioctlBase, 0xA2)
	ioctlGetEncoder   = ioctl.For[sysGetEncoder](ioctl.Read|ioctl.Write, ioctlBase, 0xA6)
	ioctlGetConnector = ioctl.For[sysGetConnector](ioctl.Read|ioctl.Write, ioctlBase, 0xA7)
	ioctlRemoveFB     = ioctl.For[uint32](ioctl.Read|ioctl.Write, ioctlBase, 0xAF)
	ioctlPageFlip     = ioctl.For[sysPageFlip](ioctl.Read|ioctl.Write, ioctlBase, 0xB0)
	ioctlCreateDumb   = ioctl.For[sysCreateDumb](ioctl.Read|ioctl.Write, ioctlBase, 0xB2)
	ioctlMapDumb      = ioctl.For[sysMapDumb](ioctl.Read|ioctl.Write, ioctlBase, 0xB3)
	ioctlDestroyDumb  = ioctl.For[sysDestroyDumb](ioctl.Read|ioctl.Write, ioctlBase, 0xB4)
	ioctlAddFB2       = ioctl.For[sysFBCmd2](ioctl.Read|ioctl.Write, ioctlBase, 0xB8)
)

// Card is an open DRM device node.
type Card struct {
	*fs.File
}

// OpenCard opens the DRM device node at path.
func OpenCard(path string) (*Card, error) {
	f, err := fs.Open(path, os.O_RDWR|unix.O_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Card{File: f}, nil
}

func openDevice(path string) (Device, error) {
	c, err := OpenCard(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Card) Capability(capability uint64) (uint64, error) {
	arg := sysGetCap{capability: capability}
	if err := ioctl.Do(c.File, ioctlGetCap, unsafe.Pointer(&arg)); err != nil {
		return 0, err
	}
	return arg.value, nil
}

func (c *Card) Resources() (*Resources, error) {
	var res sysResources
	if err := ioctl.Do(c.File, ioctlGetResources, unsafe.Pointer(&res)); err != nil {
		return nil, err
	}

	var fbs, crtcs, connectors, encoders []uint32
	if res.countFbs > 0 {
		fbs = make([]uint32, res.countFbs)
		res.fbIDPtr = uint64(uintptr(unsafe.Pointer(&fbs[0])))
	}
	if res.countCrtcs > 0 {
		crtcs = make([]uint32, res.countCrtcs)
		res.crtcIDPtr = uint64(uintptr(unsafe.Pointer(&crtcs[0])))
	}
	if res.countConnectors > 0 {
		connectors = make([]uint32, res.countConnectors)
		res.connectorIDPtr = uint64(uintptr(unsafe.Pointer(&connectors[0])))
	}
	if res.countEncoders > 0 {
		encoders = make([]uint32, res.countEncoders)
		res.encoderIDPtr = uint64(uintptr(unsafe.Pointer(&encoders[0])))
	}

	err := ioctl.Do(c.File, ioctlGetResources, unsafe.Pointer(&res))
	runtime.KeepAlive(fbs)
	runtime.KeepAlive(crtcs)
	runtime.KeepAlive(connectors)
	runtime.KeepAlive(encoders)
	if err != nil {
		return nil, err
	}

	// The second call reports the counts it filled in, which shrink when
	// objects disappear in between.
	return &Resources{
		Fbs:        fbs[:min(len(fbs), int(res.countFbs))],
		Crtcs:      crtcs[:min(len(crtcs), int(res.countCrtcs))],
		Connectors: connectors[:min(len(connectors), int(res.countConnectors))],
		Encoders:   encoders[:min(len(encoders), int(res.countEncoders))],
		MinWidth:   res.minWidth,
		MaxWidth:   res.maxWidth,
		MinHeight:  res.minHeight,
		MaxHeight:  res.maxHeight,
	}, nil
}

func (c *Card) Connector(id uint32) (*Connector, error) {
	conn := sysGetConnector{connectorID: id}
	if err := ioctl.Do(c.File, ioctlGetConnector, unsafe.Pointer(&conn)); err != nil {
		return nil, err
	}

	var (
		modes      []ModeInfo
		encoders   []uint32
		props      []uint32
		propValues []uint64
	)
	if conn.countModes > 0 {
		modes = make([]ModeInfo, conn.countModes)
		conn.modesPtr = uint64(uintptr(unsafe.Pointer(&modes[0])))
	}
	if conn.countEncoders > 0 {
		encoders = make([]uint32, conn.countEncoders)
		conn.encodersPtr = uint64(uintptr(unsafe.Pointer(&encoders[0])))
	}
	if conn.countProps > 0 {
		props = make([]uint32, conn.countProps)
		conn.propsPtr = uint64(uintptr(unsafe.Pointer(&props[0])))
		propValues = make([]uint64, conn.countProps)
		conn.propValuesPtr = uint64(uintptr(unsafe.Pointer(&propValues[0])))
	}

	err := ioctl.Do(c.File, ioctlGetConnector, unsafe.Pointer(&conn))
	runtime.KeepAlive(modes)
	runtime.KeepAlive(encoders)
	runtime.KeepAlive(props)
	runtime.KeepAlive(propValues)
	if err != nil {
		return nil, err
	}

	return &Connector{
		ID:         conn.connectorID,
		EncoderID:  conn.encoderID,
		Type:       conn.connectorType,
		TypeID:     conn.connectorTypeID,
		Connection: conn.connection,
		MMWidth:    conn.mmWidth,
		MMHeight:   conn.mmHeight,
		Modes:      modes[:min(len(modes), int(conn.countModes))],
		Encoders:   encoders[:min(len(encoders), int(conn.countEncoders))],
	}, nil
}

func (c *Card) Encoder(id uint32) (*Encoder, error) {
	enc := sysGetEncoder{encoderID: id}
	if err := ioctl.Do(c.File, ioctlGetEncoder, unsafe.Pointer(&enc)); err != nil {
		return nil, err
	}
	return &Encoder{
		ID:             enc.encoderID,
		Type:           enc.encoderType,
		CrtcID:         enc.crtcID,
		PossibleCrtcs:  enc.possibleCrtcs,
		PossibleClones: enc.possibleClones,
	}, nil
}

func (c *Card) Crtc(id uint32) (*Crtc, error) {
	crtc := sysCrtc{crtcID: id}
	if err := ioctl.Do(c.File, ioctlGetCrtc, unsafe.Pointer(&crtc)); err != nil {
		return nil, err
	}
	return &Crtc{
		ID:        crtc.crtcID,
		FbID:      crtc.fbID,
		X:         crtc.x,
		Y:         crtc.y,
		GammaSize: crtc.gammaSize,
		ModeValid: crtc.modeValid != 0,
		Mode:      crtc.mode,
	}, nil
}

func (c *Card) SetCrtc(crtcID, fbID uint32, connectors []uint32, mode *ModeInfo) error {
	crtc := sysCrtc{
		crtcID:          crtcID,
		fbID:            fbID,
		countConnectors: uint32(len(connectors)),
	}
	if len(connectors) > 0 {
		crtc.setConnectorsPtr = uint64(uintptr(unsafe.Pointer(&connectors[0])))
	}
	if mode != nil {
		crtc.mode = *mode
		crtc.modeValid = 1
	}
	err := ioctl.Do(c.File, ioctlSetCrtc, unsafe.Pointer(&crtc))
	runtime.KeepAlive(connectors)
	return err
}

func (c *Card) CreateDumb(width, height, bpp uint32) (DumbBuffer, error) {
	arg := sysCreateDumb{width: width, height: height, bpp: bpp}
	if err := ioctl.Do(c.File, ioctlCreateDumb, unsafe.Pointer(&arg)); err != nil {
		return DumbBuffer{}, err
	}
	return DumbBuffer{Handle: arg.handle, Pitch: arg.pitch, Size: arg.size}, nil
}

func (c *Card) DestroyDumb(handle uint32) error {
	arg := sysDestroyDumb{handle: handle}
	return ioctl.Do(c.File, ioctlDestroyDumb, unsafe.Pointer(&arg))
}

func (c *Card) AddFB(width, height uint32, format Fourcc, handle, pitch uint32) (uint32, error) {
	arg := sysFBCmd2{
		width:       width,
		height:      height,
		pixelFormat: uint32(format),
	}
	arg.handles[0] = handle
	arg.pitches[0] = pitch
	if err := ioctl.Do(c.File, ioctlAddFB2, unsafe.Pointer(&arg)); err != nil {
		return 0, err
	}
	return arg.fbID, nil
}

func (c *Card) RemoveFB(fbID uint32) error {
	return ioctl.Do(c.File, ioctlRemoveFB, unsafe.Pointer(&fbID))
}

func (c *Card) MapDumb(handle uint32, size int) ([]byte, error) {
	arg := sysMapDumb{handle: handle}
	if err := ioctl.Do(c.File, ioctlMapDumb, unsafe.Pointer(&arg)); err != nil {
		return nil, err
	}
	return unix.Mmap(int(c.Fd()), int64(arg.offset), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (c *Card) Unmap(b []byte) error {
	return unix.Munmap(b)
}

func (c *Card) PageFlip(crtcID, fbID uint32) error {
	arg := sysPageFlip{crtcID: crtcID, fbID: fbID}
	return ioctl.Do(c.File, ioctlPageFlip, unsafe.Pointer(&arg))
}
