// Package draw renders shapes, images and text into a canvas.
//
// Shapes take packed RGB565 colors and clip to the canvas. Images and text are
// converted with ordered dithering.
package draw

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/BeatGlow/screen/pixel"
)

// Image dithers src into r of dst, aligning r.Min with sp.
func Image(dst *pixel.Canvas, r image.Rectangle, src image.Image, sp image.Point) {
	pixel.DrawDithered(dst, r, src, sp)
}

// Scale resizes src to fill r of dst.
func Scale(dst *pixel.Canvas, r image.Rectangle, src image.Image) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	tmp := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.CatmullRom.Scale(tmp, tmp.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	pixel.DrawDithered(dst, r, tmp, image.Point{})
}

// Fit returns the largest rectangle with the aspect ratio of size that fits
// centered in r.
func Fit(r image.Rectangle, size image.Point) image.Rectangle {
	if size.X <= 0 || size.Y <= 0 || r.Empty() {
		return image.Rectangle{}
	}
	w, h := r.Dx(), r.Dy()
	if w*size.Y > h*size.X {
		w = h * size.X / size.Y
	} else {
		h = w * size.Y / size.X
	}
	origin := r.Min.Add(image.Pt((r.Dx()-w)/2, (r.Dy()-h)/2))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}
