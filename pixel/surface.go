package pixel

import "image"

// Surface describes a rectangular pixel buffer, either mapped device memory
// or a backend's private draw buffer.
type Surface struct {
	// Width and Height in pixels.
	Width, Height int

	// Stride is the distance in bytes between vertically adjacent pixels.
	Stride int

	// Format of the pixels.
	Format Format

	// Pix holds Stride*Height bytes.
	Pix []byte
}

// NewSurface allocates a zeroed surface with tightly packed rows.
func NewSurface(w, h int, f Format) *Surface {
	return NewSurfaceStride(w, h, w*f.BytesPerPixel(), f)
}

// NewSurfaceStride allocates a zeroed surface with the given row stride.
func NewSurfaceStride(w, h, stride int, f Format) *Surface {
	return &Surface{
		Width:  w,
		Height: h,
		Stride: stride,
		Format: f,
		Pix:    make([]byte, stride*h),
	}
}

// BytesPerPixel of the surface format.
func (s *Surface) BytesPerPixel() int {
	return s.Format.BytesPerPixel()
}

// Bounds of the surface.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Size is the number of bytes covered by the visible rows.
func (s *Surface) Size() int {
	return s.Stride * s.Height
}

// PixOffset is the byte offset of pixel (x, y).
func (s *Surface) PixOffset(x, y int) int {
	return y*s.Stride + x*s.BytesPerPixel()
}

// Clear the surface to zero.
func (s *Surface) Clear() {
	clear(s.Pix)
}
