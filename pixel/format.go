package pixel

import (
	"errors"
	"fmt"
)

// ErrLayout is returned for channel layouts that overlap or do not fit.
var ErrLayout = errors.New("pixel: invalid channel layout")

// Format is the native pixel format tag of a surface.
type Format uint8

// Supported native formats. The 8888 names follow the byte order in memory.
const (
	FormatUnknown Format = iota
	FormatRGB565
	FormatBGRA8888
	FormatRGBA8888
	FormatRGBX8888
)

func (f Format) String() string {
	switch f {
	case FormatRGB565:
		return "RGB_565"
	case FormatBGRA8888:
		return "BGRA_8888"
	case FormatRGBA8888:
		return "RGBA_8888"
	case FormatRGBX8888:
		return "RGBX_8888"
	default:
		return "unknown"
	}
}

// BytesPerPixel for the format, 0 when unknown.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGB565:
		return 2
	case FormatBGRA8888, FormatRGBA8888, FormatRGBX8888:
		return 4
	default:
		return 0
	}
}

// Layout is the bit position of each color channel within a native 32-bit
// pixel. Every channel is 8 bits wide.
type Layout struct {
	R, G, B uint8
}

// Common layouts.
var (
	// LayoutRGBA has red in the lowest byte.
	LayoutRGBA = Layout{R: 0, G: 8, B: 16}

	// LayoutBGRA has blue in the lowest byte.
	LayoutBGRA = Layout{R: 16, G: 8, B: 0}
)

// Bytes returns the byte index of each channel within a little-endian pixel.
func (l Layout) Bytes() (r, g, b uint8) {
	return l.R >> 3, l.G >> 3, l.B >> 3
}

// Validate checks that the channels fit in bits and do not overlap.
func (l Layout) Validate(bits int) error {
	shifts := [3]uint8{l.R, l.G, l.B}
	for i, s := range shifts {
		if s > 31 || int(s)+8 > bits {
			return fmt.Errorf("%w: channel at bit %d exceeds %d bits", ErrLayout, s, bits)
		}
		for _, o := range shifts[i+1:] {
			if s < o+8 && o < s+8 {
				return fmt.Errorf("%w: channels at bits %d and %d overlap", ErrLayout, s, o)
			}
		}
	}
	return nil
}

func (l Layout) String() string {
	return fmt.Sprintf("r%d g%d b%d", l.R, l.G, l.B)
}
