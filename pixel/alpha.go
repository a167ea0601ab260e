package pixel

// Alpha composites src over dst with blend factor a (0 keeps dst, 0xff gives
// src). Each channel is blended in its own bit field with 8.8 fixed point.
func Alpha(dst, src uint16, a uint8) uint16 {
	switch {
	case src == dst:
		return src
	case a == 0:
		return dst
	case a == 0xff:
		return src
	}
	na := uint32(a)
	fa := 256 - na
	r := (uint32(Red(dst))*fa + uint32(Red(src))*na) >> 11 << 11
	g := (uint32(Green(dst))*fa + uint32(Green(src))*na) >> 10 << 5
	b := (uint32(Blue(dst))*fa + uint32(Blue(src))*na) >> 11
	return uint16(r | g | b)
}

// Alpha32 is Alpha with the blended channels kept at 8 bits, returned as an
// opaque 0xAARRGGBB value. Feed it to Dither to reduce banding.
func Alpha32(dst, src uint16, a uint8) uint32 {
	switch {
	case src == dst:
		return To32(src)
	case a == 0:
		return To32(dst)
	case a == 0xff:
		return To32(src)
	}
	na := uint32(a)
	fa := 256 - na
	r := (uint32(Red(dst))*fa + uint32(Red(src))*na) >> 8
	g := (uint32(Green(dst))*fa + uint32(Green(src))*na) >> 8
	b := (uint32(Blue(dst))*fa + uint32(Blue(src))*na) >> 8
	return 0xff<<24 | r<<16 | g<<8 | b
}

// AlphaBlack composites src over black.
func AlphaBlack(src uint16, a uint8) uint16 {
	switch a {
	case 0:
		return 0
	case 0xff:
		return src
	}
	na := uint32(a)
	r := uint32(Red(src)) * na >> 11 << 11
	g := uint32(Green(src)) * na >> 10 << 5
	b := uint32(Blue(src)) * na >> 11
	return uint16(r | g | b)
}

// AlphaBlend composites top over bottom into dst, element by element.
// All three slices must hold at least len(dst) pixels.
func AlphaBlend(dst, bottom, top []uint16, a uint8) {
	for i := range dst {
		dst[i] = Alpha(bottom[i], top[i], a)
	}
}

// AlphaBlendDither is AlphaBlend with the blend done at 8 bits per channel
// and reduced with ordered dithering, for row y of the target.
func AlphaBlendDither(y int, dst, bottom, top []uint16, a uint8) {
	for i := range dst {
		dst[i] = Dither(i, y, Alpha32(bottom[i], top[i], a))
	}
}

// AlphaFill composites the constant color top over bottom into dst.
func AlphaFill(dst, bottom []uint16, top uint16, a uint8) {
	for i := range dst {
		dst[i] = Alpha(bottom[i], top, a)
	}
}

// AlphaFillDither is AlphaFill with the blend done at 8 bits per channel and
// reduced with ordered dithering, for row y of the target.
func AlphaFillDither(y int, dst, bottom []uint16, top uint16, a uint8) {
	for i := range dst {
		dst[i] = Dither(i, y, Alpha32(bottom[i], top, a))
	}
}
