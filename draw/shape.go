package draw

import (
	"image"
	"math"

	"github.com/BeatGlow/screen/pixel"
)

// Line draws a line from a to b, both ends included.
func Line(dst *pixel.Canvas, a, b image.Point, c uint16) {
	var (
		dx  = abs(b.X - a.X)
		dy  = -abs(b.Y - a.Y)
		sx  = sign(b.X - a.X)
		sy  = sign(b.Y - a.Y)
		err = dx + dy
		x   = a.X
		y   = a.Y
	)
	for {
		dst.SetRGB565(x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// HorizontalLine draws w pixels starting at (x,y).
func HorizontalLine(dst *pixel.Canvas, x, y, w int, c uint16) {
	if w > 0 {
		pixel.Fill(dst.Row(y, x, x+w), c)
	}
}

// VerticalLine draws h pixels starting at (x,y).
func VerticalLine(dst *pixel.Canvas, x, y, h int, c uint16) {
	for i := 0; i < h; i++ {
		dst.SetRGB565(x, y+i, c)
	}
}

// Rectangle draws the one pixel border of r.
func Rectangle(dst *pixel.Canvas, r image.Rectangle, c uint16) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	HorizontalLine(dst, r.Min.X, r.Min.Y, r.Dx(), c)
	HorizontalLine(dst, r.Min.X, r.Max.Y-1, r.Dx(), c)
	VerticalLine(dst, r.Min.X, r.Min.Y, r.Dy(), c)
	VerticalLine(dst, r.Max.X-1, r.Min.Y, r.Dy(), c)
}

// Box fills r.
func Box(dst *pixel.Canvas, r image.Rectangle, c uint16) {
	r = r.Canon().Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		pixel.Fill(dst.Row(y, r.Min.X, r.Max.X), c)
	}
}

// RoundedRectangle draws the border of r with corners of the given radius.
func RoundedRectangle(dst *pixel.Canvas, r image.Rectangle, radius int, c uint16) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	var (
		h      = r.Dy()
		insets = cornerInsets(radius, r)
	)
	for i := 0; i < h; i++ {
		y := r.Min.Y + i
		in := insetAt(insets, i, h)
		if i == 0 || i == h-1 {
			HorizontalLine(dst, r.Min.X+in, y, r.Dx()-2*in, c)
			continue
		}
		// Reach the inset of the row towards the edge, so arcs stay closed.
		span := max(1, max(insetAt(insets, i-1, h), insetAt(insets, i+1, h))-in)
		HorizontalLine(dst, r.Min.X+in, y, span, c)
		HorizontalLine(dst, r.Max.X-in-span, y, span, c)
	}
}

// RoundedBox fills r with corners of the given radius.
func RoundedBox(dst *pixel.Canvas, r image.Rectangle, radius int, c uint16) {
	r = r.Canon()
	var (
		h      = r.Dy()
		insets = cornerInsets(radius, r)
	)
	for i := 0; i < h; i++ {
		in := insetAt(insets, i, h)
		HorizontalLine(dst, r.Min.X+in, r.Min.Y+i, r.Dx()-2*in, c)
	}
}

// AlphaBox blends c over r with opacity a.
func AlphaBox(dst *pixel.Canvas, r image.Rectangle, c uint16, a uint8) {
	r = r.Canon().Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Row(y, r.Min.X, r.Max.X)
		pixel.AlphaFill(row, row, c, a)
	}
}

// AlphaBoxDither is AlphaBox blended at 8 bits per channel and dithered.
func AlphaBoxDither(dst *pixel.Canvas, r image.Rectangle, c uint16, a uint8) {
	r = r.Canon().Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Row(y, r.Min.X, r.Max.X)
		pixel.AlphaFillDither(y, row, row, c, a)
	}
}

// Gradient fills r with a dithered vertical gradient from top to bottom.
func Gradient(dst *pixel.Canvas, r image.Rectangle, top, bottom uint16) {
	r = r.Canon()
	h := r.Dy()
	for i := 0; i < h; i++ {
		y := r.Min.Y + i
		row := dst.Row(y, r.Min.X, r.Max.X)
		if row == nil {
			continue
		}
		var a uint8
		if h > 1 {
			a = uint8(i * 0xff / (h - 1))
		}
		c := pixel.Alpha32(top, bottom, a)
		x0 := max(r.Min.X, dst.Rect.Min.X)
		for j := range row {
			row[j] = pixel.Dither(x0+j, y, c)
		}
	}
}

// cornerInsets are the horizontal insets of the rows of a rounded corner,
// from the outer row inwards. The radius is limited to half of the shorter
// side of r.
func cornerInsets(radius int, r image.Rectangle) []int {
	radius = min(radius, r.Dx()/2, r.Dy()/2)
	if radius <= 0 {
		return nil
	}
	insets := make([]int, radius)
	for i := range insets {
		d := float64(radius - i)
		insets[i] = radius - int(math.Sqrt(float64(radius*radius)-d*d))
	}
	return insets
}

// insetAt is the inset of row i of a shape h rows high.
func insetAt(insets []int, i, h int) int {
	if i < 0 || i >= h {
		return 0
	}
	if k := min(i, h-1-i); k < len(insets) {
		return insets[k]
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
