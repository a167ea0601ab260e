package drm

import (
	"bytes"
	"fmt"
)

// Capabilities
const (
	CapDumbBuffer = 0x1
)

// Connector types from <drm/drm_mode.h>.
const (
	ConnectorUnknown     = 0
	ConnectorVGA         = 1
	ConnectorDVII        = 2
	ConnectorDVID        = 3
	ConnectorDVIA        = 4
	ConnectorComposite   = 5
	ConnectorSVIDEO      = 6
	ConnectorLVDS        = 7
	ConnectorComponent   = 8
	Connector9PinDIN     = 9
	ConnectorDisplayPort = 10
	ConnectorHDMIA       = 11
	ConnectorHDMIB       = 12
	ConnectorTV          = 13
	ConnectorEDP         = 14
	ConnectorVirtual     = 15
	ConnectorDSI         = 16
	ConnectorDPI         = 17
)

// Connection states
const (
	Connected         = 1
	Disconnected      = 2
	UnknownConnection = 3
)

// Mode type flags
const (
	ModeTypeBuiltin   = 1 << 0
	ModeTypePreferred = 1 << 3
	ModeTypeDefault   = 1 << 4
	ModeTypeUserDef   = 1 << 5
	ModeTypeDriver    = 1 << 6
)

// ModeInfo is a display mode, struct drm_mode_modeinfo.
type ModeInfo struct {
	Clock                                         uint32
	Hdisplay, HsyncStart, HsyncEnd, Htotal, Hskew uint16
	Vdisplay, VsyncStart, VsyncEnd, Vtotal, Vscan uint16

	Vrefresh uint32

	Flags uint32
	Type  uint32
	Name  [32]byte
}

func (m *ModeInfo) String() string {
	name, _, _ := bytes.Cut(m.Name[:], []byte{0})
	return fmt.Sprintf("%s %dx%d@%d", name, m.Hdisplay, m.Vdisplay, m.Vrefresh)
}

// Preferred reports whether the driver flags this mode as preferred.
func (m *ModeInfo) Preferred() bool {
	return m.Type&ModeTypePreferred != 0
}

// Resources of a card.
type Resources struct {
	Fbs        []uint32
	Crtcs      []uint32
	Connectors []uint32
	Encoders   []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

// Connector is a display output.
type Connector struct {
	ID         uint32
	EncoderID  uint32 // current encoder
	Type       uint32
	TypeID     uint32
	Connection uint32

	// Physical size in millimetres.
	MMWidth, MMHeight uint32

	Modes    []ModeInfo
	Encoders []uint32
}

// Encoder drives a connector from a CRTC.
type Encoder struct {
	ID             uint32
	Type           uint32
	CrtcID         uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

// Crtc is a display controller.
type Crtc struct {
	ID        uint32
	FbID      uint32 // 0 = disconnected
	X, Y      uint32 // Position on the framebuffer
	GammaSize uint32
	ModeValid bool
	Mode      ModeInfo
}

// DumbBuffer is a CPU mappable scanout buffer.
type DumbBuffer struct {
	Handle uint32
	Pitch  uint32
	Size   uint64
}

// Fourcc is a DRM pixel format code.
type Fourcc uint32

// Scanout formats.
var (
	FourccRGB565   = fourcc('R', 'G', '1', '6')
	FourccXRGB8888 = fourcc('X', 'R', '2', '4')
	FourccXBGR8888 = fourcc('X', 'B', '2', '4')
)

func fourcc(a, b, c, d byte) Fourcc {
	return Fourcc(a) | Fourcc(b)<<8 | Fourcc(c)<<16 | Fourcc(d)<<24
}

// ParseFourcc parses a four character format code such as "RG16".
func ParseFourcc(s string) (Fourcc, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	f := fourcc(s[0], s[1], s[2], s[3])
	switch f {
	case FourccRGB565, FourccXRGB8888, FourccXBGR8888:
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}
}

func (f Fourcc) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// Bits per pixel of the format.
func (f Fourcc) Bits() uint32 {
	if f == FourccRGB565 {
		return 16
	}
	return 32
}
