package screen

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"

	"github.com/BeatGlow/screen/pixel"
)

// Drawer adapts the session to periph's display.Drawer. Draw renders into
// the canvas with ordered dithering and presents the touched region.
func (s *Session) Drawer() display.Drawer {
	return &drawer{s: s}
}

type drawer struct {
	s *Session
}

func (d *drawer) String() string {
	return d.s.backend.String()
}

// Halt blanks the screen.
func (d *drawer) Halt() error {
	d.s.canvas.Clear()
	return d.s.Sync()
}

func (d *drawer) ColorModel() color.Model {
	return pixel.RGB565Model
}

func (d *drawer) Bounds() image.Rectangle {
	return d.s.Bounds()
}

func (d *drawer) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	r := dstRect.Intersect(d.s.Bounds())
	if r.Empty() {
		return nil
	}
	srcPts = srcPts.Add(r.Min.Sub(dstRect.Min))
	pixel.DrawDithered(d.s.canvas, r, src, srcPts)

	if err := d.s.Begin(); err != nil {
		return err
	}
	err := d.s.Present(nil, r.Min.X, r.Min.Y, r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	if endErr := d.s.End(); err == nil {
		err = endErr
	}
	return err
}

var _ display.Drawer = (*drawer)(nil)
