package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Canvas is the software drawing surface: packed 16-bit pixels in row-major
// order.
type Canvas struct {
	// Pix are the canvas pixels.
	Pix []uint16

	// Stride is the Pix stride (in pixels) between vertically adjacent pixels.
	Stride int

	// Rect is the canvas bounding box.
	Rect image.Rectangle
}

// NewCanvas allocates a black w*h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		Pix:    make([]uint16, w*h),
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

// CanvasOf wraps caller-owned pixels in a Canvas. The buffer must hold at
// least w*h pixels.
func CanvasOf(pix []uint16, w, h int) *Canvas {
	return &Canvas{
		Pix:    pix,
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

func (p *Canvas) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Canvas) ColorModel() color.Model {
	return RGB565Model
}

// PixOffset is the index of pixel (x, y) in Pix.
func (p *Canvas) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

func (p *Canvas) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return RGB565{p.Pix[p.PixOffset(x, y)]}
}

// RGB565At returns the packed pixel at (x, y), or 0 outside the canvas.
func (p *Canvas) RGB565At(x, y int) uint16 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

func (p *Canvas) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = rgb565Model(c).(RGB565).V
}

// SetRGB565 sets the packed pixel at (x, y).
func (p *Canvas) SetRGB565(x, y int, c uint16) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = c
}

// Row returns the pixels of row y between x0 and x1, clipped to the canvas.
func (p *Canvas) Row(y, x0, x1 int) []uint16 {
	if y < p.Rect.Min.Y || y >= p.Rect.Max.Y {
		return nil
	}
	x0, x1 = max(x0, p.Rect.Min.X), min(x1, p.Rect.Max.X)
	if x0 >= x1 {
		return nil
	}
	i := p.PixOffset(x0, y)
	return p.Pix[i : i+x1-x0]
}

// Clear the canvas to black.
func (p *Canvas) Clear() {
	p.FillRGB565(0)
}

// Fill the canvas with a single color.
func (p *Canvas) Fill(c color.Color) {
	p.FillRGB565(rgb565Model(c).(RGB565).V)
}

// FillRGB565 fills the canvas with a packed color.
func (p *Canvas) FillRGB565(c uint16) {
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		Fill(p.Row(y, p.Rect.Min.X, p.Rect.Max.X), c)
	}
}

// SubImage returns the part of the canvas visible through r, sharing pixels.
func (p *Canvas) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Canvas{}
	}
	return &Canvas{
		Pix:    p.Pix[p.PixOffset(r.Min.X, r.Min.Y):],
		Stride: p.Stride,
		Rect:   r,
	}
}

// DrawDithered renders src into r of dst, aligning r.Min with sp, reducing
// each pixel with ordered dithering. Translucent source pixels are blended
// over the existing canvas content.
func DrawDithered(dst *Canvas, r image.Rectangle, src image.Image, sp image.Point) {
	clipped := r.Intersect(dst.Rect)
	sp = sp.Add(clipped.Min.Sub(r.Min))
	r = clipped
	for y := r.Min.Y; y < r.Max.Y; y++ {
		sy := sp.Y + y - r.Min.Y
		for x := r.Min.X; x < r.Max.X; x++ {
			sr, sg, sb, sa := src.At(sp.X+x-r.Min.X, sy).RGBA()
			if sa == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			if sa == 0xffff {
				dst.Pix[i] = DitherRGB(x, y, uint8(sr>>8), uint8(sg>>8), uint8(sb>>8))
				continue
			}
			// Premultiplied source over the unpacked destination.
			var (
				d          = dst.Pix[i]
				ia         = 0xffff - sa
				dr, dg, db = uint32(Red(d)) * 0x101, uint32(Green(d)) * 0x101, uint32(Blue(d)) * 0x101
			)
			r8 := (sr + dr*ia/0xffff) >> 8
			g8 := (sg + dg*ia/0xffff) >> 8
			b8 := (sb + db*ia/0xffff) >> 8
			dst.Pix[i] = DitherRGB(x, y, uint8(r8), uint8(g8), uint8(b8))
		}
	}
}

// Interface checks.
var (
	_ draw.Image = (*Canvas)(nil)
)
