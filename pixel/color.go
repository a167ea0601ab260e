package pixel

import (
	"errors"
	"image/color"
	"strconv"
)

// RGB565Model converts any color to RGB565 by bit truncation.
var RGB565Model color.Model = color.ModelFunc(rgb565Model)

// ErrColorSyntax is returned by ParseHex for malformed input.
var ErrColorSyntax = errors.New("pixel: invalid color syntax")

// RGB565 represents a 16-bit 5-6-5 RGB color.
type RGB565 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c RGB565) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := uint32(Red(c.V))
	grn := uint32(Green(c.V))
	blu := uint32(Blue(c.V))
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return red, grn, blu, 0xffff
}

func rgb565Model(c color.Color) color.Color {
	if c, ok := c.(RGB565); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return RGB565{Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8))}
}

// Pack 8-bit channels into a 16-bit color. The low 3 (red, blue) or 2 (green)
// bits are truncated.
func Pack(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// Unpack a 16-bit color into 8-bit channels with the low bits zeroed.
func Unpack(c uint16) (r, g, b uint8) {
	return Red(c), Green(c), Blue(c)
}

// Red channel of c as an 8-bit value.
func Red(c uint16) uint8 {
	return uint8((c & 0xF800) >> 8)
}

// Green channel of c as an 8-bit value.
func Green(c uint16) uint8 {
	return uint8((c & 0x07E0) >> 3)
}

// Blue channel of c as an 8-bit value.
func Blue(c uint16) uint8 {
	return uint8((c & 0x001F) << 3)
}

// HiG fills the low bits of an unpacked green channel with its high bits, so
// full green unpacks to 0xff.
func HiG(g uint8) uint8 {
	return g | g>>6
}

// RGBA32 packs 8-bit channels into a 32-bit 0xAARRGGBB value.
func RGBA32(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// To32 expands a 16-bit color to an opaque 0xAARRGGBB value.
func To32(c uint16) uint32 {
	return RGBA32(Red(c), Green(c), Blue(c), 0xff)
}

// From32 reduces a 0xAARRGGBB value to 16 bits, ignoring alpha.
func From32(c uint32) uint16 {
	return Pack(uint8(c>>16), uint8(c>>8), uint8(c))
}

// ParseHex parses "#RRGGBB" or "#RGB" into a 16-bit color.
func ParseHex(s string) (uint16, error) {
	if len(s) == 0 || s[0] != '#' {
		return 0, ErrColorSyntax
	}
	var hex string
	switch len(s) {
	case 7:
		hex = s[1:]
	case 4:
		hex = string([]byte{s[1], s[1], s[2], s[2], s[3], s[3]})
	default:
		return 0, ErrColorSyntax
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, ErrColorSyntax
	}
	return From32(uint32(v)), nil
}
