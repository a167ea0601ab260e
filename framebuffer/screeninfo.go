package framebuffer

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/screen/pixel"
)

// FixScreenInfo is the fixed part of the screen description, struct
// fb_fix_screeninfo from <linux/fb.h>.
type FixScreenInfo struct {
	ID           [16]byte  // Identification string eg "TT Builtin"
	SmemStart    uintptr   // Start of frame buffer mem
	SmemLen      uint32    // Length of frame buffer mem
	Type         uint32    // FB_TYPE_
	TypeAux      uint32    // Interleave for interleaved Planes
	Visual       uint32    // FB_VISUAL_
	Xpanstep     uint16    // Zero if no hardware panning
	Ypanstep     uint16    // Zero if no hardware panning
	Ywrapstep    uint16    // Zero if no hardware ywrap
	LineLength   uint32    // Length of a line in bytes
	MmioStart    uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen      uint32    // Length of Memory Mapped I/O
	Accel        uint32    // Type of acceleration available
	Capabilities uint16    // FB_CAP_
	Reserved     [2]uint16 // Reserved for future compatibility
}

// Name is the driver identification string.
func (fi *FixScreenInfo) Name() string {
	id := fi.ID[:]
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}
	return string(id)
}

// BitField describes one color channel.
type BitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

func (bf BitField) String() string {
	return fmt.Sprintf("%d/%d", bf.Offset, bf.Length)
}

// VarScreenInfo is the changeable part of the screen description, struct
// fb_var_screeninfo from <linux/fb.h>.
type VarScreenInfo struct {
	Xres                     uint32
	Yres                     uint32
	XresVirtual              uint32
	YresVirtual              uint32
	Xoffset                  uint32
	Yoffset                  uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp BitField
	Nonstd                   uint32
	Activate                 uint32
	Height                   uint32 // Height of picture in mm
	Width                    uint32 // Width of picture in mm
	AccelFlags               uint32
	Pixclock                 uint32
	LeftMargin               uint32
	RightMargin              uint32
	UpperMargin              uint32
	LowerMargin              uint32
	HsyncLen                 uint32
	VsyncLen                 uint32
	Sync                     uint32
	Vmode                    uint32
	Rotate                   uint32
	Colorspace               uint32
	Reserved                 [4]uint32
}

// ForceRGB565 rewrites the channel description to plain 16-bit RGB565.
func (vi *VarScreenInfo) ForceRGB565() {
	vi.Blue = BitField{Offset: 0, Length: 5}
	vi.Green = BitField{Offset: 5, Length: 6}
	vi.Red = BitField{Offset: 11, Length: 5}
	vi.Transp = BitField{}
	vi.BitsPerPixel = 16
}

// Format infers the native pixel format from the depth and the red channel
// offset.
func (vi *VarScreenInfo) Format() pixel.Format {
	switch {
	case vi.BitsPerPixel == 16:
		return pixel.FormatRGB565
	case vi.Red.Offset == 8 || vi.Red.Offset == 16:
		return pixel.FormatBGRA8888
	case vi.Red.Offset == 0:
		return pixel.FormatRGBA8888
	case vi.Red.Offset == 24:
		return pixel.FormatRGBX8888
	case vi.Red.Length == 8:
		return pixel.FormatRGBX8888
	default:
		return pixel.FormatRGB565
	}
}

// Layout is the channel layout used to convert into a 32-bit buffer.
func (vi *VarScreenInfo) Layout() pixel.Layout {
	if vi.Red.Offset == 8 {
		return pixel.LayoutBGRA
	}
	return pixel.LayoutRGBA
}

// NeedsSwap reports whether 32-bit pixels must have their first and third
// byte exchanged on the way to the device, which is the case when the red
// offset is one of offsets.
func (vi *VarScreenInfo) NeedsSwap(offsets []uint32) bool {
	return vi.BitsPerPixel == 32 && slices.Contains(offsets, vi.Red.Offset)
}

// PhysicalSize of the panel, zero when the driver does not report it.
func (vi *VarScreenInfo) PhysicalSize() (w, h physic.Distance) {
	return physic.Distance(vi.Width) * physic.MilliMetre, physic.Distance(vi.Height) * physic.MilliMetre
}

// DPI limits for the estimate.
const (
	minEstimatedDPI = 120
	maxEstimatedDPI = 960
)

// DPI estimates the display density from the reported panel width, rounded to
// a multiple of 80. Without a physical size, or when the estimate falls
// outside [120, 960], it derives one from the shortest side instead.
func (vi *VarScreenInfo) DPI() int {
	fallback := int(min(vi.Xres, vi.Yres)) / 160 * 80
	if vi.Width == 0 || vi.Height == 0 {
		return fallback
	}
	inches := float64(vi.Width) * 0.03937
	dpi := int(math.Round(float64(vi.Xres)/inches/80)) * 80
	if dpi < minEstimatedDPI || dpi > maxEstimatedDPI {
		return fallback
	}
	return dpi
}
