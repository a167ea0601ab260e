package pixel

import (
	"encoding/binary"
	"unsafe"
)

// Strides passed to the block routines are full row strides: bytes for
// native buffers, pixels for []uint16 canvas buffers.

// Bytes views 16-bit pixels as bytes in host byte order, which is the order
// the display hardware reads them in.
func Bytes(p []uint16) []byte {
	if len(p) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&p[0])), len(p)*2)
}

// Fill sets every pixel in dst to c.
func Fill(dst []uint16, c uint16) {
	for i := range dst {
		dst[i] = c
	}
}

// Copy16 copies a w*h block of canvas pixels into a native 16-bit buffer.
// Each row is an exact byte copy.
func Copy16(dst []byte, dstStride int, src []uint16, srcStride, w, h int) {
	var (
		s  = Bytes(src)
		n  = w * 2
		ss = srcStride * 2
	)
	for y := 0; y < h; y++ {
		copy(dst[y*dstStride:y*dstStride+n], s[y*ss:y*ss+n])
	}
}

// Read16 copies a w*h block of a native 16-bit buffer into canvas pixels.
func Read16(dst []uint16, dstStride int, src []byte, srcStride, w, h int) {
	var (
		d  = Bytes(dst)
		n  = w * 2
		ds = dstStride * 2
	)
	for y := 0; y < h; y++ {
		copy(d[y*ds:y*ds+n], src[y*srcStride:y*srcStride+n])
	}
}

// Convert16To32 converts a w*h block of canvas pixels into a native 32-bit
// buffer with channel layout l. Bits outside the three channels are zero.
func Convert16To32(dst []byte, dstStride int, src []uint16, srcStride, w, h int, l Layout) {
	for y := 0; y < h; y++ {
		var (
			row = dst[y*dstStride:]
			in  = src[y*srcStride : y*srcStride+w]
		)
		for x, c := range in {
			v := uint32(Red(c))<<l.R | uint32(Green(c))<<l.G | uint32(Blue(c))<<l.B
			binary.NativeEndian.PutUint32(row[x*4:], v)
		}
	}
}

// Convert32To16 converts a w*h block of a native 32-bit buffer with channel
// layout l into canvas pixels, truncating each channel.
func Convert32To16(dst []uint16, dstStride int, src []byte, srcStride, w, h int, l Layout) {
	for y := 0; y < h; y++ {
		var (
			row = src[y*srcStride:]
			out = dst[y*dstStride : y*dstStride+w]
		)
		for x := range out {
			v := binary.NativeEndian.Uint32(row[x*4:])
			out[x] = Pack(uint8(v>>l.R), uint8(v>>l.G), uint8(v>>l.B))
		}
	}
}

// SwapRB swaps the first and third byte of every 4-byte pixel in p.
func SwapRB(p []byte) {
	for i := 0; i+3 < len(p); i += 4 {
		p[i], p[i+2] = p[i+2], p[i]
	}
}

// CopySwapRB copies src into dst, swapping the first and third byte of every
// 4-byte pixel. It copies min(len(dst), len(src)) bytes rounded down to whole
// pixels.
func CopySwapRB(dst, src []byte) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}

// Present converts a w*h block of canvas pixels at (sx, sy) into surface s
// at (dx, dy), using the surface format and, for 32-bit formats, layout l.
func Present(s *Surface, dx, dy int, src []uint16, srcStride, sx, sy, w, h int, l Layout) {
	var (
		off = s.PixOffset(dx, dy)
		in  = src[sy*srcStride+sx:]
	)
	switch s.BytesPerPixel() {
	case 2:
		Copy16(s.Pix[off:], s.Stride, in, srcStride, w, h)
	case 4:
		Convert16To32(s.Pix[off:], s.Stride, in, srcStride, w, h, l)
	}
}

// Snapshot converts the whole of surface s back into canvas pixels.
func Snapshot(dst []uint16, dstStride int, s *Surface, l Layout) {
	switch s.BytesPerPixel() {
	case 2:
		Read16(dst, dstStride, s.Pix, s.Stride, s.Width, s.Height)
	case 4:
		Convert32To16(dst, dstStride, s.Pix, s.Stride, s.Width, s.Height, l)
	}
}
