package pixel

// Ordered dither thresholds, indexed by DitherIndex.
var (
	ditherR = [64]uint8{
		1, 7, 3, 5, 0, 8, 2, 6,
		7, 1, 5, 3, 8, 0, 6, 2,
		3, 5, 0, 8, 2, 6, 1, 7,
		5, 3, 8, 0, 6, 2, 7, 1,
		0, 8, 2, 6, 1, 7, 3, 5,
		8, 0, 6, 2, 7, 1, 5, 3,
		2, 6, 1, 7, 3, 5, 0, 8,
		6, 2, 7, 1, 5, 3, 8, 0,
	}
	ditherG = [64]uint8{
		1, 3, 2, 2, 3, 1, 2, 2,
		2, 2, 0, 4, 2, 2, 4, 0,
		3, 1, 2, 2, 1, 3, 2, 2,
		2, 2, 4, 0, 2, 2, 0, 4,
		1, 3, 2, 2, 3, 1, 2, 2,
		2, 2, 0, 4, 2, 2, 4, 0,
		3, 1, 2, 2, 1, 3, 2, 2,
		2, 2, 4, 0, 2, 2, 0, 4,
	}
	ditherB = [64]uint8{
		5, 3, 8, 0, 6, 2, 7, 1,
		3, 5, 0, 8, 2, 6, 1, 7,
		8, 0, 6, 2, 7, 1, 5, 3,
		0, 8, 2, 6, 1, 7, 3, 5,
		6, 2, 7, 1, 5, 3, 8, 0,
		2, 6, 1, 7, 3, 5, 0, 8,
		7, 1, 5, 3, 8, 0, 6, 2,
		1, 7, 3, 5, 0, 8, 2, 6,
	}
)

// DitherIndex is the threshold table position for pixel (x, y).
func DitherIndex(x, y int) int {
	return (y&7)<<3 + x&7
}

func saturate(v, d uint8) uint8 {
	if s := uint16(v) + uint16(d); s < 0xff {
		return uint8(s)
	}
	return 0xff
}

// DitherRGB reduces 8-bit channels at (x, y) to a 16-bit color.
func DitherRGB(x, y int, r, g, b uint8) uint16 {
	i := DitherIndex(x, y)
	return Pack(saturate(r, ditherR[i]), saturate(g, ditherG[i]), saturate(b, ditherB[i]))
}

// DitherMonoRGB reduces 8-bit channels at (x, y) using the green threshold
// only, doubled for red and blue. It keeps gray ramps neutral.
func DitherMonoRGB(x, y int, r, g, b uint8) uint16 {
	d := ditherG[DitherIndex(x, y)]
	return Pack(saturate(r, d*2), saturate(g, d), saturate(b, d*2))
}

// Dither reduces a 0xAARRGGBB value at (x, y) to a 16-bit color.
func Dither(x, y int, c uint32) uint16 {
	return DitherRGB(x, y, uint8(c>>16), uint8(c>>8), uint8(c))
}

// DitherMono reduces a 0xAARRGGBB value at (x, y) with DitherMonoRGB.
func DitherMono(x, y int, c uint32) uint16 {
	return DitherMonoRGB(x, y, uint8(c>>16), uint8(c>>8), uint8(c))
}
